package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"fitbook/internal/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// Timezone is the IANA zone used to display class and booking times.
	Timezone string `yaml:"timezone"`
}

type DatabaseConfig struct {
	// URL is a sqlite file path or a file: URI.
	URL string `yaml:"url"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Prefix    string             `yaml:"prefix"`
	CORS      APICORSConfig      `yaml:"cors"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APICORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BookingConfig throttles repeated booking attempts from one email.
type BookingConfig struct {
	AttemptLimit  int           `yaml:"attempt_limit"`
	AttemptWindow time.Duration `yaml:"attempt_window"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled bool `yaml:"enabled"`
	// Schedule is a cron expression ("@daily", "0 3 * * *") or a Go duration.
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// envOverrides are read after the YAML file so deployments can change the
// essentials without editing it.
type envOverrides struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
	Timezone    string `envconfig:"TIMEZONE"`
	HTTPPort    int    `envconfig:"HTTP_PORT"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	RedisAddr   string `envconfig:"REDIS_ADDRESS"`
}

const envPrefix = "FITNESS"

// Load reads .env (if present), the YAML file at configPath and the
// FITNESS_* overrides, then applies defaults and validates.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	if err := config.applyEnv(); err != nil {
		return nil, fmt.Errorf("read environment overrides: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return err
	}
	if env.DatabaseURL != "" {
		c.Database.URL = env.DatabaseURL
	}
	if env.Timezone != "" {
		c.App.Timezone = env.Timezone
	}
	if env.HTTPPort != 0 {
		c.API.HTTP.Port = env.HTTPPort
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.RedisAddr != "" {
		c.Redis.Address = env.RedisAddr
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("database url is required")
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid app timezone %q: %w", c.App.Timezone, err)
	}

	if c.API.HTTP.Port <= 0 || c.API.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.API.HTTP.Port)
	}

	if c.API.Prefix != "" && !strings.HasPrefix(c.API.Prefix, "/") {
		return fmt.Errorf("api prefix must start with '/': %q", c.API.Prefix)
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup storage_path is required when backups are enabled")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Fitness Studio Booking API"
	}
	if c.App.Version == "" {
		c.App.Version = "1.0.0"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = models.DefaultTimezone
	}
	if c.Database.URL == "" {
		c.Database.URL = "./data/fitness_booking.db"
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8000
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.API.HTTP.ShutdownTimeout == 0 {
		c.API.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.API.Prefix == "" {
		c.API.Prefix = "/api/v1"
	}
	c.API.Prefix = strings.TrimRight(c.API.Prefix, "/")
	if len(c.API.CORS.AllowOrigins) == 0 {
		c.API.CORS.AllowOrigins = []string{"*"}
	}
	if c.API.RateLimit.RPS > 0 && c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = 5
	}

	if c.Booking.AttemptLimit > 0 && c.Booking.AttemptWindow <= 0 {
		c.Booking.AttemptWindow = time.Minute
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "@daily"
	}
}
