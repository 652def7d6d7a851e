package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendLocal = "local"
	BackendMinIO = "minio"
	BackendS3    = "s3"
)

type Config struct {
	Env     string        `yaml:"env" env:"APP_ENV" env-default:"local"`
	Server  ServerConfig  `yaml:"server"`
	Upload  UploadConfig  `yaml:"upload"`
	Storage StorageConfig `yaml:"storage"`
	Sweeper SweeperConfig `yaml:"sweeper"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"2m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"2m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// UploadConfig bounds what a request may ask the server to allocate. Pixel
// limits are checked against the image header before decoding.
type UploadConfig struct {
	MaxBytes        int64 `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES" env-default:"33554432"`
	MaxPixels       int64 `yaml:"max_pixels" env:"UPLOAD_MAX_PIXELS" env-default:"40000000"`
	MaxOutputPixels int64 `yaml:"max_output_pixels" env:"UPSCALE_MAX_OUTPUT_PIXELS" env-default:"64000000"`
}

// StorageConfig selects the artifact backend. AccessKey/SecretKey are only
// read by the remote backends.
type StorageConfig struct {
	Backend        string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"local"`
	LocalDir       string `yaml:"local_dir" env:"STORAGE_LOCAL_DIR" env-default:"public/uploads"`
	PublicPrefix   string `yaml:"public_prefix" env:"STORAGE_PUBLIC_PREFIX" env-default:"/uploads"`
	Endpoint       string `yaml:"endpoint" env:"STORAGE_ENDPOINT" env-default:"localhost:9000"`
	AccessKey      string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey      string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
	Bucket         string `yaml:"bucket" env:"STORAGE_BUCKET" env-default:"converted"`
	Region         string `yaml:"region" env:"STORAGE_REGION" env-default:"us-east-1"`
	UseSSL         bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL" env-default:"false"`
	PublicURL      string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`
	KeyPrefix      string `yaml:"key_prefix" env:"STORAGE_KEY_PREFIX" env-default:"uploads/"`
	ApplyLifecycle bool   `yaml:"apply_lifecycle" env:"STORAGE_APPLY_LIFECYCLE" env-default:"false"`
}

type SweeperConfig struct {
	Interval time.Duration `yaml:"interval" env:"SWEEP_INTERVAL" env-default:"1h"`
}

// MustLoad reads the config file named by CONFIG_PATH, if any, and applies
// environment overrides on top.
func MustLoad() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal, BackendMinIO, BackendS3:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)", c.Storage.Backend, BackendLocal, BackendMinIO, BackendS3)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive, got %d", c.Upload.MaxBytes)
	}

	if c.Upload.MaxPixels <= 0 || c.Upload.MaxOutputPixels <= 0 {
		return fmt.Errorf("pixel limits must be positive, got input %d output %d", c.Upload.MaxPixels, c.Upload.MaxOutputPixels)
	}

	if c.Sweeper.Interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.Sweeper.Interval)
	}

	if c.Storage.Backend == BackendLocal && c.Storage.LocalDir == "" {
		return fmt.Errorf("local storage directory is empty")
	}

	return nil
}

// HasCredentials reports whether the remote access credential is set.
func (s StorageConfig) HasCredentials() bool {
	return s.AccessKey != "" && s.SecretKey != ""
}

// BaseURL is the public root objects are served from. It defaults to the
// storage endpoint itself.
func (s StorageConfig) BaseURL() string {
	if s.PublicURL != "" {
		return s.PublicURL
	}

	scheme := "http"
	if s.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + s.Endpoint
}
