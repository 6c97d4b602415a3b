// Package config loads the client configuration: defaults, then an optional
// YAML file, then SKILLFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Upload backends.
const (
	UploadAPI = "api"
	UploadS3  = "s3"
)

// Config holds all configuration for the client.
type Config struct {
	API     APIConfig     `yaml:"api" envPrefix:"API_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
	OAuth   OAuthConfig   `yaml:"oauth" envPrefix:"OAUTH_"`
	Upload  UploadConfig  `yaml:"upload" envPrefix:"UPLOAD_"`
}

// APIConfig points the client at the SkillFlow server.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// StorageConfig holds the path of the local key/value database.
// ":memory:" keeps nothing between runs.
type StorageConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// OAuthConfig holds the loopback address the CLI listens on for the
// provider redirect.
type OAuthConfig struct {
	CallbackAddr string `yaml:"callback_addr" env:"CALLBACK_ADDR"`
}

// UploadConfig selects where media files go.
type UploadConfig struct {
	Backend string   `yaml:"backend" env:"BACKEND"`
	S3      S3Config `yaml:"s3" envPrefix:"S3_"`
}

// S3Config holds object storage configuration for the s3 upload backend.
type S3Config struct {
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{Path: defaultStoragePath()},
		Log:     LogConfig{Level: "info"},
		OAuth:   OAuthConfig{CallbackAddr: "127.0.0.1:3000"},
		Upload:  UploadConfig{Backend: UploadAPI},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SKILLFLOW_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	switch c.Upload.Backend {
	case UploadAPI:
	case UploadS3:
		if c.Upload.S3.Bucket == "" {
			return errors.New("config: upload.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("config: unknown upload backend %q", c.Upload.Backend)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level, defaulting to Info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "skillflow.db"
	}
	return dir + string(os.PathSeparator) + "skillflow" + string(os.PathSeparator) + "storage.db"
}
