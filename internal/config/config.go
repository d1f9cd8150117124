package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	JWT      JWTConfig
	Resend   ResendConfig
	Rabbit   RabbitConfig
	R2       R2Config
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SessionConfig struct {
	Secret string
}

type JWTConfig struct {
	Secret        string
	ExpiryMinutes int
}

type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type RabbitConfig struct {
	URL      string
	Exchange string
	Queue    string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
	Endpoint        string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Database: parseDatabaseConfig(),
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "your-jwt-secret-change-in-production"),
			ExpiryMinutes: getEnvAsInt("JWT_EXPIRY_MINUTES", 60),
		},
		Resend: ResendConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("RESEND_FROM_EMAIL", "noreply@registrations.example.com"),
			FromName:  getEnv("RESEND_FROM_NAME", "Event Registration Platform"),
		},
		Rabbit: RabbitConfig{
			URL:      getEnv("RABBIT_URL", ""),
			Exchange: getEnv("RABBIT_EXCHANGE", "notifications"),
			Queue:    getEnv("RABBIT_QUEUE", "notifications"),
		},
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", "certificates"),
			PublicURL:       getEnv("R2_PUBLIC_URL", ""),
			Region:          getEnv("R2_REGION", "auto"),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
		},
	}

	return config, nil
}

// parseDatabaseConfig parses DATABASE_URL when present, otherwise falls back
// to the individual DB_* variables
func parseDatabaseConfig() DatabaseConfig {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "event_registration"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		return dbConfig
	}

	dbConfig.URL = databaseURL

	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return dbConfig
	}

	if parsed.Hostname() != "" {
		dbConfig.Host = parsed.Hostname()
	}
	if parsed.Port() != "" {
		if port, err := strconv.Atoi(parsed.Port()); err == nil {
			dbConfig.Port = port
		}
	}
	if parsed.User != nil {
		dbConfig.User = parsed.User.Username()
		if password, ok := parsed.User.Password(); ok {
			dbConfig.Password = password
		}
	}
	if name := strings.TrimPrefix(parsed.Path, "/"); name != "" {
		dbConfig.DBName = name
	}
	if sslmode := parsed.Query().Get("sslmode"); sslmode != "" {
		dbConfig.SSLMode = sslmode
	}

	return dbConfig
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
