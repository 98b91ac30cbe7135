package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	SMTP     SMTPConfig
	AWS      AWSConfig
	Storage  StorageConfig
	Slack    SlackConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// SMTPConfig holds outgoing mail settings. An empty Host disables SMTP delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// Provider selects the mailer: "smtp" or "ses".
	Provider string
}

type AWSConfig struct {
	Region string
}

type StorageConfig struct {
	// Driver is "local" or "s3".
	Driver    string
	LocalPath string
	BaseURL   string
	S3Bucket  string
	S3Prefix  string
}

type SlackConfig struct {
	Token   string
	Channel string
}

type PayrollConfig struct {
	RulesFile         string
	RulesSSMParameter string
	// RunDay is the day of month the scheduled draft run fires for the previous month.
	RunDay int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: maxConns,
		MinConns: minConns,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Mail configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "hr@example.com"),
		FromName: getEnv("SMTP_FROM_NAME", "HR"),
		Provider: strings.ToLower(getEnv("MAIL_PROVIDER", "smtp")),
	}

	config.AWS = AWSConfig{
		Region: getEnv("AWS_REGION", "ap-south-1"),
	}

	config.Storage = StorageConfig{
		Driver:    strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		LocalPath: getEnv("STORAGE_LOCAL_PATH", "./storage"),
		BaseURL:   getEnv("STORAGE_BASE_URL", "/files"),
		S3Bucket:  getEnv("STORAGE_S3_BUCKET", ""),
		S3Prefix:  getEnv("STORAGE_S3_PREFIX", "payroll"),
	}

	config.Slack = SlackConfig{
		Token:   getEnv("SLACK_TOKEN", ""),
		Channel: getEnv("SLACK_CHANNEL", ""),
	}

	runDay, err := strconv.Atoi(getEnv("PAYROLL_RUN_DAY", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_RUN_DAY: %w", err)
	}

	config.Payroll = PayrollConfig{
		RulesFile:         getEnv("PAYROLL_RULES_FILE", ""),
		RulesSSMParameter: getEnv("PAYROLL_RULES_SSM_PARAMETER", ""),
		RunDay:            runDay,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.SMTP.Provider != "smtp" && c.SMTP.Provider != "ses" {
		return fmt.Errorf("MAIL_PROVIDER must be smtp or ses")
	}
	if c.Storage.Driver != "local" && c.Storage.Driver != "s3" {
		return fmt.Errorf("STORAGE_DRIVER must be local or s3")
	}
	if c.Storage.Driver == "s3" && c.Storage.S3Bucket == "" {
		return fmt.Errorf("STORAGE_S3_BUCKET is required for the s3 driver")
	}
	if c.Payroll.RunDay < 1 || c.Payroll.RunDay > 28 {
		return fmt.Errorf("PAYROLL_RUN_DAY must be between 1 and 28")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
