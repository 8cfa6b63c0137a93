package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	BlobSQLite = "sqlite"
	BlobRedis  = "redis"
)

type Config struct {
	Backend     string `json:"backend" yaml:"backend"`
	Blob        string `json:"blob" yaml:"blob"`
	DBPath      string `json:"db_path" yaml:"db_path"`
	RedisAddr   string `json:"redis_addr" yaml:"redis_addr"`
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
	JWTSecret   string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	Profile     string `json:"profile" yaml:"profile"`
	User        string `json:"user" yaml:"user"`
	Locale      string `json:"locale" yaml:"locale"`
	WebEnabled  bool   `json:"web_enabled" yaml:"web_enabled"`
	WebHost     string `json:"web_host" yaml:"web_host"`
	WebPort     int    `json:"web_port" yaml:"web_port"`
}

func Default() Config {
	return Config{
		Backend:   BackendLocal,
		Blob:      BlobSQLite,
		RedisAddr: "localhost:6379",
		Profile:   "tasks",
		WebHost:   "127.0.0.1",
		WebPort:   8080,
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// LoadDotEnv reads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays LAZYTODO_* variables onto cfg.
func ApplyEnv(cfg Config, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	strs := map[string]*string{
		"LAZYTODO_BACKEND":      &cfg.Backend,
		"LAZYTODO_BLOB":         &cfg.Blob,
		"LAZYTODO_DB_PATH":      &cfg.DBPath,
		"LAZYTODO_REDIS_ADDR":   &cfg.RedisAddr,
		"LAZYTODO_POSTGRES_DSN": &cfg.PostgresDSN,
		"LAZYTODO_JWT_SECRET":   &cfg.JWTSecret,
		"LAZYTODO_PROFILE":      &cfg.Profile,
		"LAZYTODO_USER":         &cfg.User,
		"LAZYTODO_LOCALE":       &cfg.Locale,
		"LAZYTODO_WEB_HOST":     &cfg.WebHost,
	}
	for key, target := range strs {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			*target = value
		}
	}

	if value := strings.TrimSpace(getenv("LAZYTODO_WEB_ENABLED")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("LAZYTODO_WEB_ENABLED: %w", err)
		}
		cfg.WebEnabled = enabled
	}
	if value := strings.TrimSpace(getenv("LAZYTODO_WEB_PORT")); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("LAZYTODO_WEB_PORT: %w", err)
		}
		cfg.WebPort = port
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Blob != BlobSQLite && c.Blob != BlobRedis {
			return fmt.Errorf("unknown blob store %q (want %s or %s)", c.Blob, BlobSQLite, BlobRedis)
		}
	case BackendRemote:
		if c.PostgresDSN == "" {
			return fmt.Errorf("remote backend needs postgres_dsn")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("remote backend needs jwt_secret for sign-in")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendLocal, BackendRemote)
	}
	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("invalid web port %d", c.WebPort)
	}
	return nil
}
