// Package config loads service configuration from the environment via
// viper, with a .env file honored in development.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root service configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Gateway     GatewayConfig
	Wizard      WizardConfig
	Auth        AuthConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
}

// DatabaseConfig holds postgres settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
}

// RedisConfig holds redis settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GatewayConfig holds upstream payment gateway settings
type GatewayConfig struct {
	BaseURL        string
	APIKey         string
	CallbackSecret string
}

// WizardConfig holds deposit wizard settings
type WizardConfig struct {
	ReturnURL      string
	CallbackURL    string
	SiteReference  string
	AllowedOrigins []string
}

// AuthConfig holds token validation settings
type AuthConfig struct {
	JWTSecret string
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	// Missing .env is fine outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 30)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WIZARD_SITE_REFERENCE", "")

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Port:         v.GetInt("SERVER_PORT"),
			ReadTimeout:  v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetInt("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetInt("DATABASE_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Gateway: GatewayConfig{
			BaseURL:        v.GetString("GATEWAY_BASE_URL"),
			APIKey:         v.GetString("GATEWAY_API_KEY"),
			CallbackSecret: v.GetString("GATEWAY_CALLBACK_SECRET"),
		},
		Wizard: WizardConfig{
			ReturnURL:      v.GetString("WIZARD_RETURN_URL"),
			CallbackURL:    v.GetString("WIZARD_CALLBACK_URL"),
			SiteReference:  v.GetString("WIZARD_SITE_REFERENCE"),
			AllowedOrigins: splitList(v.GetString("WIZARD_ALLOWED_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	if c.Environment == "production" {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.Gateway.CallbackSecret == "" {
			return fmt.Errorf("GATEWAY_CALLBACK_SECRET is required in production")
		}
		if len(c.Wizard.AllowedOrigins) == 0 {
			return fmt.Errorf("WIZARD_ALLOWED_ORIGINS is required in production")
		}
	}
	return nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
