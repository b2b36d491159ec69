// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment constants
const (
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Directory DirectoryConfig
	Redis     RedisConfig
	Form      FormConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// IsProduction returns true when running in production.
func (c AppConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DirectoryConfig holds the external directory API configuration.
type DirectoryConfig struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
	// Client-side throttle against the upstream directory.
	RatePerSecond float64
	RateBurst     int
}

// RedisConfig holds Redis configuration for the hierarchy snapshot cache.
type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns the Redis address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FormConfig holds assignment form session configuration.
type FormConfig struct {
	// SessionTTL is how long an idle form session is retained.
	SessionTTL time.Duration
	// SweepInterval is how often expired sessions are evicted.
	SweepInterval time.Duration
	// SnapshotCacheTTL bounds how long cached hierarchy lists are reused
	// for new sessions. Open sessions keep their snapshot regardless.
	SnapshotCacheTTL time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig holds inbound HTTP rate limit configuration.
type RateLimitConfig struct {
	Enabled       bool
	RatePerSecond float64
	Burst         int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "dealerdesk"),
			Env:   getEnv("APP_ENV", "development"),
			Debug: getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodySize:     getEnvInt64("SERVER_MAX_BODY_SIZE", 1<<20),
		},
		Directory: DirectoryConfig{
			BaseURL:        getEnv("DIRECTORY_BASE_URL", "http://localhost:9090"),
			Token:          getEnv("DIRECTORY_TOKEN", ""),
			RequestTimeout: getEnvDuration("DIRECTORY_REQUEST_TIMEOUT", 10*time.Second),
			RatePerSecond:  getEnvFloat("DIRECTORY_RATE_PER_SECOND", 20),
			RateBurst:      getEnvInt("DIRECTORY_RATE_BURST", 40),
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Form: FormConfig{
			SessionTTL:       getEnvDuration("FORM_SESSION_TTL", 30*time.Minute),
			SweepInterval:    getEnvDuration("FORM_SWEEP_INTERVAL", time.Minute),
			SnapshotCacheTTL: getEnvDuration("FORM_SNAPSHOT_CACHE_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			RatePerSecond: getEnvFloat("RATE_LIMIT_RATE", 50),
			Burst:         getEnvInt("RATE_LIMIT_BURST", 100),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration consistency.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("DIRECTORY_BASE_URL is required")
	}
	if c.Directory.RequestTimeout <= 0 {
		return fmt.Errorf("directory request timeout must be positive")
	}
	if c.Form.SessionTTL <= 0 {
		return fmt.Errorf("form session TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
