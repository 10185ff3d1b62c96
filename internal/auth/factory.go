package auth

import (
	"fmt"
	"os"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// SecretEnv overrides AuthConfig.JWTSecret.
const SecretEnv = "SALAT_JWT_SECRET"

// NewAuthFromConfig creates the Provider named by cfg.Type.
func NewAuthFromConfig(cfg config.AuthConfig, kv salat.KeyValueStore, clock salat.Clock) (Provider, error) {
	switch cfg.Type {
	case "none", "":
		return NoneProvider{}, nil
	case "static":
		if cfg.StaticUserID == "" {
			return nil, fmt.Errorf("static auth requires static_user_id")
		}
		return NewStaticProvider(cfg.StaticUserID), nil
	case "token":
		secret := cfg.JWTSecret
		if env := os.Getenv(SecretEnv); env != "" {
			secret = env
		}
		return NewTokenProvider(kv, secret, clock)
	default:
		return nil, fmt.Errorf("unknown auth type: %s", cfg.Type)
	}
}
