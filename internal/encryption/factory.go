package encryption

import (
	"fmt"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// NewEncryptorFromConfig creates the archive Encryptor named by cfg.Type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (salat.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewStubEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
