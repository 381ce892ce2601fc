package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	BlogName string
	BaseURL  string

	// DataDir is the local storage root used when S3Bucket is empty.
	DataDir string

	// DBDriver selects the SQL backend ("postgres" or "sqlite3"). Posts are
	// kept as documents in blob storage when it is empty.
	DBDriver    string
	DatabaseURL string

	S3Bucket   string
	AWSRegion  string
	S3Endpoint string

	RabbitMQURL string

	APIKey            string
	AdminUsername     string
	AdminPasswordHash string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Default().Warn("loading .env failed", "error", err)
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		BlogName:          getEnv("BLOG_NAME", "miniblog"),
		BaseURL:           getEnv("BASE_URL", ""),
		DataDir:           getEnv("DATA_DIR", "data"),
		DBDriver:          getEnv("DB_DRIVER", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		APIKey:            getEnv("API_KEY", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
