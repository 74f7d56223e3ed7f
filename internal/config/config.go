package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port            int
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	MaxUploadBytes  int64
	StaticDir       string

	// Database
	DatabaseURL         string
	DBMaxConnections    int
	DBConnectionTimeout time.Duration

	// Auth
	JWTSecret     string
	JWTExpiresIn  time.Duration
	AdminUser     string
	AdminPassword string

	// S3
	S3Bucket    string
	S3Region    string
	AWSEndpoint string // For LocalStack in development

	Cache CacheConfig
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 3045)
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("MAX_UPLOAD_BYTES", 20*1024*1024)
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNECTIONS", 25)
	v.SetDefault("DB_CONNECTION_TIMEOUT", "30s")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_EXPIRES_IN", "8h")
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "sa-east-1")
	v.SetDefault("AWS_ENDPOINT", "")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_REPORT_TTL_SECONDS", 300)
}

// LoadFromEnv reads .env (if present) and the process environment
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                v.GetInt("PORT"),
		Environment:         v.GetString("ENVIRONMENT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		ShutdownTimeout:     v.GetDuration("SHUTDOWN_TIMEOUT"),
		AllowedOrigins:      splitList(v.GetString("ALLOWED_ORIGINS")),
		MaxUploadBytes:      v.GetInt64("MAX_UPLOAD_BYTES"),
		StaticDir:           v.GetString("STATIC_DIR"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		DBMaxConnections:    v.GetInt("DB_MAX_CONNECTIONS"),
		DBConnectionTimeout: v.GetDuration("DB_CONNECTION_TIMEOUT"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTExpiresIn:        v.GetDuration("JWT_EXPIRES_IN"),
		AdminUser:           v.GetString("ADMIN_USER"),
		AdminPassword:       v.GetString("ADMIN_PASSWORD"),
		S3Bucket:            v.GetString("S3_BUCKET"),
		S3Region:            v.GetString("S3_REGION"),
		AWSEndpoint:         v.GetString("AWS_ENDPOINT"),
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			ReportTTLSeconds: v.GetInt("CACHE_REPORT_TTL_SECONDS"),
		},
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.IsProduction() && (cfg.JWTSecret == "" || cfg.JWTSecret == "dev-secret-change-me") {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	if cfg.JWTExpiresIn <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRES_IN must be a positive duration")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
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
