package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string
	APIPrefix   string
	LogLevel    string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddress string

	// File storage directories
	UploadDir string
	ImageDir  string

	// Retention configuration
	RetentionMinutes       int
	CleanupIntervalSeconds int
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	AppConfig = Config{
		ServerPort:             getEnv("PORT", "8080"),
		Environment:            getEnv("ENV", "development"),
		APIPrefix:              getEnv("API_PREFIX", "/api/v1"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "pdfuser"),
		DBPassword:             getEnv("DB_PASSWORD", "pdfpassword"),
		DBName:                 getEnv("DB_NAME", "pdfdb"),
		RedisAddress:           getEnv("REDIS_ADDRESS", "localhost:6379"),
		UploadDir:              getEnv("UPLOAD_DIR", filepath.Join("uploads", "pdfs")),
		ImageDir:               getEnv("IMAGE_DIR", filepath.Join("uploads", "images")),
		RetentionMinutes:       getEnvInt("FILE_RETENTION_MINUTES", 10),
		CleanupIntervalSeconds: getEnvInt("CLEANUP_INTERVAL_SECONDS", 60),
	}
}

// InitDirectories creates the upload and image directories
func InitDirectories() error {
	if err := os.MkdirAll(AppConfig.UploadDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(AppConfig.ImageDir, 0o755)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
