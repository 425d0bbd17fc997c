package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string   `yaml:"port" env:"SERVER_PORT"`
		Mode            string   `yaml:"mode" env:"SERVER_MODE"`
		BaseURL         string   `yaml:"base_url" env:"SERVER_BASE_URL"`
		AllowedOrigins  []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
		MaxUploadSizeMB int      `yaml:"max_upload_size_mb" env:"SERVER_MAX_UPLOAD_SIZE_MB"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	// Storage selects the media backend for uploaded files.
	Storage struct {
		Type      string `yaml:"type" env:"STORAGE_TYPE"`
		BasePath  string `yaml:"base_path" env:"STORAGE_BASE_PATH"`
		BaseURL   string `yaml:"base_url" env:"STORAGE_BASE_URL"`
		Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET"`
		Region    string `yaml:"region" env:"STORAGE_REGION"`
		Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
		AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
		PublicURL string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`
	} `yaml:"storage"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
	} `yaml:"smtp"`

	RateLimit struct {
		Enabled       bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		RedisAddr     string `yaml:"redis_addr" env:"RATE_LIMIT_REDIS_ADDR"`
		RedisPassword string `yaml:"redis_password" env:"RATE_LIMIT_REDIS_PASSWORD"`
		RedisDB       int    `yaml:"redis_db" env:"RATE_LIMIT_REDIS_DB"`
		Window        string `yaml:"window" env:"RATE_LIMIT_WINDOW"`
		MaxRequests   int    `yaml:"max_requests" env:"RATE_LIMIT_MAX_REQUESTS"`
	} `yaml:"rate_limit"`

	// Admin is the account seeded on first start.
	Admin struct {
		Name     string `yaml:"name" env:"ADMIN_NAME"`
		Email    string `yaml:"email" env:"ADMIN_EMAIL"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
		Branch   string `yaml:"branch" env:"ADMIN_BRANCH"`
		USN      string `yaml:"usn" env:"ADMIN_USN"`
	} `yaml:"admin"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "5000"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:5000"
	config.Server.AllowedOrigins = []string{"http://localhost:3000"}
	config.Server.MaxUploadSizeMB = 100

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "erp_portal"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "168h"
	config.JWT.Issuer = "erp-portal"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Storage.Type = "local"
	config.Storage.BasePath = "./uploads"
	config.Storage.BaseURL = "/uploads"
	config.Storage.Region = "auto"

	config.SMTP.Port = 587
	config.SMTP.FromName = "Institute Portal"

	config.RateLimit.Window = "15m"
	config.RateLimit.MaxRequests = 100

	config.Admin.Name = "Institute Admin"
	config.Admin.Email = "admin@institute.edu"
	config.Admin.Branch = "Administration"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	switch config.Storage.Type {
	case "local":
		if config.Storage.BasePath == "" {
			return fmt.Errorf("storage base path is required for local storage")
		}
	case "s3":
		if config.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type %q", config.Storage.Type)
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RedisAddr == "" {
			return fmt.Errorf("rate limit redis address is required when rate limiting is enabled")
		}
		if _, err := time.ParseDuration(config.RateLimit.Window); err != nil {
			return fmt.Errorf("invalid rate limit window: %w", err)
		}
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "production"
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadSizeMB) * 1024 * 1024
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
