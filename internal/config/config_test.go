package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := NewConfig("device-abc", "/home/user/.local/share/salat")
	original.Location = LocationConfig{Name: "Dhaka", Latitude: 23.81, Longitude: 90.41}
	original.Remote = RemoteConfig{Type: "filesystem", FSRoot: "/backup/salat", TimeoutSeconds: 5}
	original.Cache = CacheConfig{Type: "redis", RedisAddr: "localhost:6379", RedisDB: 2}
	original.Provider.Tune = "-2,0,0,2,1,3,3,1,0"

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.DeviceID != original.DeviceID {
		t.Errorf("DeviceID = %q, want %q", got.DeviceID, original.DeviceID)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Location != original.Location {
		t.Errorf("Location = %+v, want %+v", got.Location, original.Location)
	}
	if got.Remote != original.Remote {
		t.Errorf("Remote = %+v, want %+v", got.Remote, original.Remote)
	}
	if got.Cache != original.Cache {
		t.Errorf("Cache = %+v, want %+v", got.Cache, original.Cache)
	}
	if got.Provider != original.Provider {
		t.Errorf("Provider = %+v, want %+v", got.Provider, original.Provider)
	}
	if got.Reminders != original.Reminders {
		t.Errorf("Reminders = %+v, want %+v", got.Reminders, original.Reminders)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("device-1", "/data/salat")

	if cfg.LogDir != "/data/salat/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/salat/log")
	}
	if cfg.Database.DataDir != "/data/salat/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/salat/db")
	}
	if cfg.Encryption.PublicKeyPath != "/data/salat/keys/salat.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Reminders.BatchSize != 60 {
		t.Errorf("Reminders.BatchSize = %d, want 60", cfg.Reminders.BatchSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "sqlite without data dir",
			mutate:  func(c *Config) { c.Database.DataDir = "" },
			wantErr: "DataDir",
		},
		{
			name:    "unknown remote type",
			mutate:  func(c *Config) { c.Remote.Type = "ftp" },
			wantErr: "Remote.Type",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Remote.Type = "postgres" },
			wantErr: "PostgresDSN",
		},
		{
			name:    "redis cache without address",
			mutate:  func(c *Config) { c.Cache.Type = "redis" },
			wantErr: "RedisAddr",
		},
		{
			name:    "latitude out of range",
			mutate:  func(c *Config) { c.Location.Latitude = 123 },
			wantErr: "Latitude",
		},
		{
			name:    "fcm sender without credentials",
			mutate:  func(c *Config) { c.Reminders.Sender = "fcm" },
			wantErr: "FCMCredentialsFile",
		},
		{
			name:    "static auth without user",
			mutate:  func(c *Config) { c.Auth.Type = "static" },
			wantErr: "StaticUserID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("device-1", "/data/salat")
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "salat.toml")
		cfg := NewConfig("d1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "salat.toml")
		cfg := NewConfig("d1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "salat.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.DeviceID != "read-test" {
			t.Errorf("DeviceID = %q, want %q", got.DeviceID, "read-test")
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "salat.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Remote.Type = "carrier-pigeon"

		if err := Save(path, cfg); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := ReadFromFile(path); err == nil {
			t.Fatal("ReadFromFile() expected validation error")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/salat.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
