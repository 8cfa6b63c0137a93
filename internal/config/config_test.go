package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveLoadRoundTripJSONAndYAML(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Backend = BackendRemote
			cfg.PostgresDSN = "postgres://localhost/todo"
			cfg.JWTSecret = "s3cret"
			cfg.WebPort = 9090

			if err := Save(path, cfg); err != nil {
				t.Fatalf("save: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if loaded != cfg {
				t.Fatalf("expected %+v, got %+v", cfg, loaded)
			}
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"LAZYTODO_BLOB":        "redis",
		"LAZYTODO_USER":        "alice",
		"LAZYTODO_WEB_ENABLED": "true",
		"LAZYTODO_WEB_PORT":    "7000",
	}
	if host := Default().WebHost; host != "127.0.0.1" {
		t.Fatalf("expected loopback default, got %q", host)
	}
	cfg, err := ApplyEnv(Default(), func(key string) string { return env[key] })
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Blob != BlobRedis || cfg.User != "alice" || !cfg.WebEnabled || cfg.WebPort != 7000 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.WebHost != "127.0.0.1" {
		t.Fatalf("unset LAZYTODO_WEB_HOST must keep the default, got %q", cfg.WebHost)
	}

	env["LAZYTODO_WEB_HOST"] = "0.0.0.0"
	cfg, err = ApplyEnv(Default(), func(key string) string { return env[key] })
	if err != nil || cfg.WebHost != "0.0.0.0" {
		t.Fatalf("expected web host override, got %q (%v)", cfg.WebHost, err)
	}

	env["LAZYTODO_WEB_PORT"] = "eighty"
	if _, err := ApplyEnv(Default(), func(key string) string { return env[key] }); err == nil {
		t.Fatalf("expected invalid port to fail")
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LAZYTODO_TEST_PROFILE=fromfile\nLAZYTODO_TEST_USER=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("LAZYTODO_TEST_USER", "fromenv")
	t.Setenv("LAZYTODO_TEST_PROFILE", "")
	os.Unsetenv("LAZYTODO_TEST_PROFILE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("LAZYTODO_TEST_PROFILE"); got != "fromfile" {
		t.Fatalf("expected profile from file, got %q", got)
	}
	if got := os.Getenv("LAZYTODO_TEST_USER"); got != "fromenv" {
		t.Fatalf("expected existing env to win, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing dotenv should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Backend = "ftp" }, true},
		{"unknown blob", func(c *Config) { c.Blob = "s3" }, true},
		{"remote without dsn", func(c *Config) { c.Backend = BackendRemote; c.JWTSecret = "x" }, true},
		{"remote without secret", func(c *Config) { c.Backend = BackendRemote; c.PostgresDSN = "dsn" }, true},
		{"remote complete", func(c *Config) { c.Backend = BackendRemote; c.PostgresDSN = "dsn"; c.JWTSecret = "x" }, false},
		{"bad port", func(c *Config) { c.WebPort = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
