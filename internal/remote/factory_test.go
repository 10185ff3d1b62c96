package remote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"salat-go/internal/config"
)

func TestNewRemoteFromConfig(t *testing.T) {
	ctx := context.Background()
	fsRoot := filepath.Join(t.TempDir(), "remote")

	tests := []struct {
		name     string
		cfg      config.RemoteConfig
		wantErr  bool
		validate bool
	}{
		{name: "memory", cfg: config.RemoteConfig{Type: "memory"}, validate: true},
		{name: "filesystem", cfg: config.RemoteConfig{Type: "filesystem", FSRoot: fsRoot}, validate: true},
		{name: "filesystem without root", cfg: config.RemoteConfig{Type: "filesystem"}, wantErr: true},
		{name: "postgres without dsn", cfg: config.RemoteConfig{Type: "postgres"}, wantErr: true},
		{name: "postgres", cfg: config.RemoteConfig{Type: "postgres", PostgresDSN: "postgres://localhost/salat?sslmode=disable"}},
		{name: "s3 without bucket", cfg: config.RemoteConfig{Type: "s3"}, wantErr: true},
		{name: "unknown", cfg: config.RemoteConfig{Type: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRemoteFromConfig(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRemoteFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got == nil {
				t.Fatal("NewRemoteFromConfig() returned nil store")
			}
			if tt.validate {
				if err := got.ValidateSetup(ctx); err != nil {
					t.Errorf("ValidateSetup() error = %v", err)
				}
			}
		})
	}
}

func TestNoneStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewRemoteFromConfig(ctx, config.RemoteConfig{Type: "none"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, "u1", nil); !errors.Is(err, ErrNoRemote) {
		t.Errorf("Upsert() error = %v, want ErrNoRemote", err)
	}
	if _, err := s.Select(ctx, "u1", rec("2026-02-24").Date, rec("2026-02-24").Date); !errors.Is(err, ErrNoRemote) {
		t.Errorf("Select() error = %v, want ErrNoRemote", err)
	}
}
