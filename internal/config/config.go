// Package config loads process configuration from the environment and an optional .env file
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendS3     = "s3"
	BackendMinio  = "minio"
	BackendMemory = "memory"
)

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Store   StoreConfig
	Upload  UploadConfig
	Session SessionConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

type LogConfig struct {
	Level  string
	Format string
}

type StoreConfig struct {
	Backend        string
	Endpoint       string
	ForcePathStyle bool
	RetryAttempts  int
	MemoryBuckets  []string
}

type UploadConfig struct {
	Concurrency   int
	GracePeriodMs int
	MaxMemoryMB   int
}

type SessionConfig struct {
	CookieName string
	TTLHours   int
	Key        string
}

// GracePeriod returns how long completed upload tasks stay visible
func (u UploadConfig) GracePeriod() time.Duration {
	return time.Duration(u.GracePeriodMs) * time.Millisecond
}

// MaxMemory returns the multipart parse memory in bytes
func (u UploadConfig) MaxMemory() int64 {
	return int64(u.MaxMemoryMB) << 20
}

// TTL returns the configuration cookie lifetime
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// Load reads .env (if present) and the environment into a Config
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return FromViper(viper.New())
}

// FromViper builds a Config from the given viper instance, applying defaults
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			ReadTimeout:  v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetInt("SERVER_WRITE_TIMEOUT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Store: StoreConfig{
			Backend:        strings.ToLower(v.GetString("STORE_BACKEND")),
			Endpoint:       v.GetString("STORE_ENDPOINT"),
			ForcePathStyle: v.GetBool("STORE_FORCE_PATH_STYLE"),
			RetryAttempts:  v.GetInt("STORE_RETRY_ATTEMPTS"),
			MemoryBuckets:  splitList(v.GetString("MEMORY_BUCKETS")),
		},
		Upload: UploadConfig{
			Concurrency:   v.GetInt("UPLOAD_CONCURRENCY"),
			GracePeriodMs: v.GetInt("UPLOAD_GRACE_PERIOD_MS"),
			MaxMemoryMB:   v.GetInt("UPLOAD_MAX_MEMORY_MB"),
		},
		Session: SessionConfig{
			CookieName: v.GetString("SESSION_COOKIE"),
			TTLHours:   v.GetInt("SESSION_TTL_HOURS"),
			Key:        v.GetString("SESSION_KEY"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at request time
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendS3, BackendMinio, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want s3, minio or memory)", c.Store.Backend)
	}
	if c.Store.Backend == BackendMemory && len(c.Store.MemoryBuckets) == 0 {
		return fmt.Errorf("MEMORY_BUCKETS must name at least one bucket for the memory backend")
	}
	if c.Upload.Concurrency < 0 {
		return fmt.Errorf("UPLOAD_CONCURRENCY must not be negative")
	}
	if c.Upload.GracePeriodMs < 0 {
		return fmt.Errorf("UPLOAD_GRACE_PERIOD_MS must not be negative")
	}
	if c.Session.Key != "" && len(c.Session.Key) != 32 {
		return fmt.Errorf("SESSION_KEY must be exactly 32 bytes when set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 0)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_BACKEND", BackendS3)
	v.SetDefault("STORE_ENDPOINT", "")
	v.SetDefault("STORE_FORCE_PATH_STYLE", false)
	v.SetDefault("STORE_RETRY_ATTEMPTS", 3)
	v.SetDefault("MEMORY_BUCKETS", "local")
	v.SetDefault("UPLOAD_CONCURRENCY", 0)
	v.SetDefault("UPLOAD_GRACE_PERIOD_MS", 2000)
	v.SetDefault("UPLOAD_MAX_MEMORY_MB", 32)
	v.SetDefault("SESSION_COOKIE", "s3-config")
	v.SetDefault("SESSION_TTL_HOURS", 7*24)
	v.SetDefault("SESSION_KEY", "")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
