// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AdminUsername  string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword  string `mapstructure:"ADMIN_PASSWORD"`
	AdminEmail     string `mapstructure:"ADMIN_EMAIL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	SiteURL        string `mapstructure:"SITE_URL"`
	SiteName       string `mapstructure:"SITE_NAME"`

	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	MaxUploadSizeMB int    `mapstructure:"MAX_UPLOAD_SIZE_MB"`

	AccessTokenTTLMinutes  int `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTokenTTLDays    int `mapstructure:"REFRESH_TOKEN_TTL_DAYS"`
	OrphanTTLHours         int `mapstructure:"ORPHAN_TTL_HOURS"`
	PurgeTTLDays           int `mapstructure:"PURGE_TTL_DAYS"`
	CleanupIntervalMinutes int `mapstructure:"CLEANUP_INTERVAL_MINUTES"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; environment variables alone are enough.
	_ = viper.ReadInConfig()

	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "blog")
	viper.SetDefault("DB_PASSWORD", "blog")
	viper.SetDefault("DB_NAME", "blog")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("ADMIN_EMAIL", "admin@example.com")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("SITE_URL", "")
	viper.SetDefault("SITE_NAME", "Inkwell Blog")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MAX_UPLOAD_SIZE_MB", 5)
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 30)
	viper.SetDefault("REFRESH_TOKEN_TTL_DAYS", 7)
	viper.SetDefault("ORPHAN_TTL_HOURS", 24)
	viper.SetDefault("PURGE_TTL_DAYS", 7)
	viper.SetDefault("CLEANUP_INTERVAL_MINUTES", 60)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AdminUsername == "" {
		return errors.New("ADMIN_USERNAME is required")
	}
	if c.MaxUploadSizeMB <= 0 {
		return errors.New("MAX_UPLOAD_SIZE_MB must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AdminPassword == "" {
			return errors.New("ADMIN_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
