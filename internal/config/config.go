package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Email     EmailConfig     `yaml:"email"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Rental    RentalConfig    `yaml:"rental"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSecs     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSecs    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_seconds"`
	NodeID              int64  `yaml:"node_id"` // snowflake node for rental references
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// RedisConfig enables the unread-count cache and cross-instance realtime fan-out.
// Empty Addr disables both.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes"`
}

// EmailConfig selects the delivery backend: "smtp", "sendgrid" or "log".
type EmailConfig struct {
	Provider string         `yaml:"provider"`
	From     string         `yaml:"from"`
	FromName string         `yaml:"from_name"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type SendGridConfig struct {
	APIKey string `yaml:"api_key"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	Type         string   `yaml:"type"`       // "mock" or "s3"
	UploadDir    string   `yaml:"upload_dir"` // For mock storage
	BaseURL      string   `yaml:"base_url"`   // Server base URL for mock URLs
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"`
	S3           S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint         string `yaml:"endpoint"`
	AccessKey        string `yaml:"access_key"`
	SecretKey        string `yaml:"secret_key"`
	Bucket           string `yaml:"bucket"`
	UseSSL           bool   `yaml:"use_ssl"`
	URLExpiryMinutes int    `yaml:"url_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "json" or "text"
	File       string `yaml:"file"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RentalConfig holds booking rules; the max_days system setting overrides MaxDays.
type RentalConfig struct {
	MaxDays int `yaml:"max_days"` // 0 means unlimited
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	Enabled                   bool   `yaml:"enabled"` // run jobs inside the API process
	ExpireStaleRentals        string `yaml:"expire_stale_rentals"`
	CompleteFinishedRentals   string `yaml:"complete_finished_rentals"`
	PurgeReadNotifications    string `yaml:"purge_read_notifications"`
	NotificationRetentionDays int    `yaml:"notification_retention_days"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)
	envBool("DB_AUTO_MIGRATE", &c.Database.AutoMigrate)

	// Redis
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)

	// Email
	envString("EMAIL_PROVIDER", &c.Email.Provider)
	envString("EMAIL_FROM", &c.Email.From)
	envString("SMTP_HOST", &c.Email.SMTP.Host)
	envInt("SMTP_PORT", &c.Email.SMTP.Port)
	envString("SMTP_USER", &c.Email.SMTP.User)
	envString("SMTP_PASSWORD", &c.Email.SMTP.Password)
	envString("SENDGRID_API_KEY", &c.Email.SendGrid.APIKey)

	// JWT
	envString("JWT_SECRET", &c.JWT.Secret)

	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	// Storage
	envString("STORAGE_TYPE", &c.Storage.Type)
	envString("UPLOAD_DIR", &c.Storage.UploadDir)
	envString("S3_ENDPOINT", &c.Storage.S3.Endpoint)
	envString("S3_ACCESS_KEY", &c.Storage.S3.AccessKey)
	envString("S3_SECRET_KEY", &c.Storage.S3.SecretKey)
	envString("S3_BUCKET", &c.Storage.S3.Bucket)

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)
	envString("LOG_FILE", &c.Log.File)

	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		c.CORS.AllowedOrigins = strings.Split(val, ",")
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.RefreshTokenExpiry <= 0 {
		c.JWT.RefreshTokenExpiry = 7 * 24 * 60
	}

	switch c.Email.Provider {
	case "":
		c.Email.Provider = "log"
	case "smtp":
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.Email.SMTP.Port <= 0 || c.Email.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.Email.SMTP.Port)
		}
	case "sendgrid":
		if c.Email.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported email provider: %s", c.Email.Provider)
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "EquipRent"
	}

	switch c.Storage.Type {
	case "", "mock":
		c.Storage.Type = "mock"
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("upload directory is required")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.MaxFileSize <= 0 {
		c.Storage.MaxFileSize = 10
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
	}
	if c.Storage.S3.URLExpiryMinutes <= 0 {
		c.Storage.S3.URLExpiryMinutes = 60
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Server.ReadTimeoutSecs <= 0 {
		c.Server.ReadTimeoutSecs = 15
	}
	if c.Server.WriteTimeoutSecs <= 0 {
		c.Server.WriteTimeoutSecs = 30
	}
	if c.Server.ShutdownTimeoutSecs <= 0 {
		c.Server.ShutdownTimeoutSecs = 10
	}
	if c.Server.NodeID < 0 || c.Server.NodeID > 1023 {
		return fmt.Errorf("server node_id must be between 0 and 1023")
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 20
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 40
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}

	if c.Scheduler.ExpireStaleRentals == "" {
		c.Scheduler.ExpireStaleRentals = "0 0 * * * *" // hourly
	}
	if c.Scheduler.CompleteFinishedRentals == "" {
		c.Scheduler.CompleteFinishedRentals = "0 15 * * * *" // hourly at :15
	}
	if c.Scheduler.PurgeReadNotifications == "" {
		c.Scheduler.PurgeReadNotifications = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.NotificationRetentionDays <= 0 {
		c.Scheduler.NotificationRetentionDays = 30
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxFileSize * 1024 * 1024
}
