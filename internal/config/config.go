package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Config represents the main configuration for salat.
type Config struct {
	DeviceID   string           `toml:"device_id" validate:"required"`
	BaseDir    string           `toml:"base_dir" validate:"required"`
	LogDir     string           `toml:"log_dir" validate:"required"`
	Location   LocationConfig   `toml:"location"`
	Database   DatabaseConfig   `toml:"database"`
	Cache      CacheConfig      `toml:"cache"`
	Remote     RemoteConfig     `toml:"remote"`
	Auth       AuthConfig       `toml:"auth"`
	Provider   ProviderConfig   `toml:"provider"`
	Reminders  RemindersConfig  `toml:"reminders"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// LocationConfig is the initial location used until one is chosen with
// `salat location set`. Zero coordinates mean unset.
type LocationConfig struct {
	Name      string  `toml:"name,omitempty"`
	Latitude  float64 `toml:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `toml:"longitude" validate:"min=-180,max=180"`
}

// DatabaseConfig represents configuration for the device key-value store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type" validate:"oneof=sqlite memory"`
	DataDir string `toml:"data_dir,omitempty" validate:"required_if=Type sqlite"`
}

// CacheConfig selects where cached prayer-time months live.
type CacheConfig struct {
	Type          string `toml:"type" validate:"oneof=local redis"` // "local" uses the database
	RedisAddr     string `toml:"redis_addr,omitempty" validate:"required_if=Type redis"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty" validate:"min=0"`
	RedisPrefix   string `toml:"redis_prefix,omitempty"`
	RedisTTLHours int    `toml:"redis_ttl_hours,omitempty" validate:"min=0"`
}

// RemoteConfig represents configuration for the remote day-record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type           string `toml:"type" validate:"oneof=none memory filesystem postgres s3"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"min=0"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty" validate:"required_if=Type filesystem"`

	// Postgres-specific fields (only used when Type == "postgres")
	PostgresDSN string `toml:"postgres_dsn,omitempty" validate:"required_if=Type postgres"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty" validate:"required_if=Type s3"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty" validate:"required_with=S3AccessKeyID"`
}

// Timeout bounds each remote call.
func (c RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthConfig selects how the signed-in user is determined.
type AuthConfig struct {
	Type string `toml:"type" validate:"oneof=none static token"`

	// StaticUserID is the fixed user for Type == "static".
	StaticUserID string `toml:"static_user_id,omitempty" validate:"required_if=Type static"`

	// JWTSecret verifies HS256 access tokens for Type == "token". The
	// SALAT_JWT_SECRET environment variable overrides it.
	JWTSecret string `toml:"jwt_secret,omitempty"`
}

// ProviderConfig configures the prayer-time provider.
type ProviderConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	Method         int    `toml:"method" validate:"min=0,max=23"`
	School         int    `toml:"school" validate:"oneof=0 1"`
	Tune           string `toml:"tune,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"min=0"`
	Retries        int    `toml:"retries" validate:"min=0,max=10"`

	// SehriOffsetMinutes is subtracted from Fajr to derive the Sehri end.
	SehriOffsetMinutes int `toml:"sehri_offset_minutes" validate:"min=0,max=120"`

	// RamadanShiftDays drops that many leading days of the calculated
	// Ramadan, for regions that start by local moon sighting.
	RamadanShiftDays int `toml:"ramadan_shift_days" validate:"min=0,max=3"`
}

// Timeout bounds a single provider request.
func (c ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RemindersConfig configures reminder scheduling and delivery.
type RemindersConfig struct {
	Enabled              bool    `toml:"enabled"`
	Permission           bool    `toml:"permission"`
	Sender               string  `toml:"sender" validate:"oneof=log mqtt fcm"`
	SehriLeadMinutes     int     `toml:"sehri_lead_minutes" validate:"min=0"`
	BatchSize            int     `toml:"batch_size" validate:"min=1"`
	MaxPending           int     `toml:"max_pending" validate:"min=0"`
	PollIntervalSeconds  int     `toml:"poll_interval_seconds" validate:"min=1"`
	RescheduleDistanceKm float64 `toml:"reschedule_distance_km" validate:"min=0"`
	MissedPrayers        bool    `toml:"missed_prayers"`

	// MQTT-specific fields (only used when Sender == "mqtt")
	MQTTBroker      string `toml:"mqtt_broker,omitempty" validate:"required_if=Sender mqtt"`
	MQTTClientID    string `toml:"mqtt_client_id,omitempty"`
	MQTTTopicPrefix string `toml:"mqtt_topic_prefix,omitempty"`

	// FCM-specific fields (only used when Sender == "fcm")
	FCMCredentialsFile string `toml:"fcm_credentials_file,omitempty" validate:"required_if=Sender fcm"`
	FCMDeviceToken     string `toml:"fcm_device_token,omitempty" validate:"required_if=Sender fcm"`
}

// PollInterval is how often the dispatcher checks for due reminders.
func (c RemindersConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// EncryptionConfig holds paths to the age key pair used for export archives.
type EncryptionConfig struct {
	Type           string `toml:"type" validate:"omitempty,oneof=age test"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
	// Armor writes archives as PEM-style ASCII instead of binary age files.
	Armor bool `toml:"armor"`
}

// NewConfig creates a new Config with the provided values and defaults for
// every backend.
func NewConfig(deviceID, baseDir string) *Config {
	return &Config{
		DeviceID: deviceID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Cache:  CacheConfig{Type: "local"},
		Remote: RemoteConfig{Type: "none", TimeoutSeconds: 10},
		Auth:   AuthConfig{Type: "none"},
		Provider: ProviderConfig{
			BaseURL:            "https://api.aladhan.com/v1",
			Method:             1,
			School:             1,
			Tune:               "-2,0,0,2,1,3,3,1,0",
			TimeoutSeconds:     15,
			Retries:            2,
			SehriOffsetMinutes: 10,
		},
		Reminders: RemindersConfig{
			Enabled:              true,
			Permission:           true,
			Sender:               "log",
			SehriLeadMinutes:     15,
			BatchSize:            60,
			MaxPending:           64,
			PollIntervalSeconds:  60,
			RescheduleDistanceKm: 5,
			MissedPrayers:        true,
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "salat.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "salat.key"),
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Save overwrites the config file at path.
func Save(path string, cfg *Config) error {
	return writeToFile(path, cfg)
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
