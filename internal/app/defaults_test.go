package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("SALAT_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("SALAT_HOME", "/custom/salat")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		want := map[string]string{
			"config_path": "/custom/config.toml",
			"base_dir":    "/custom/salat",
			"log_dir":     "/custom/salat/log",
		}
		for k, v := range want {
			if defaults[k] != v {
				t.Errorf("%s = %q, want %q", k, defaults[k], v)
			}
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("SALAT_CONFIG_PATH", "")
		t.Setenv("SALAT_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		wantBase := filepath.Join(homeDir, ".local", "share", "salat")
		if got := defaults["config_path"]; got != filepath.Join(homeDir, ".config", "salat.toml") {
			t.Errorf("config_path = %q", got)
		}
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
		if defaults["log_dir"] != filepath.Join(wantBase, "log") {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() without .env: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SALAT_TEST_VALUE=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SALAT_TEST_VALUE", "")
	os.Unsetenv("SALAT_TEST_VALUE")
	if err := LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("SALAT_TEST_VALUE"); got != "from-file" {
		t.Errorf("SALAT_TEST_VALUE = %q", got)
	}
}
