package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddress string

	// JWT configuration
	JWTSecret string

	// AI completion service (optional, static stubs when empty)
	CompleterAddress string

	// Collaboration tuning
	SessionTTL      time.Duration
	CleanupInterval time.Duration

	FrontendAddress string
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

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "collab-editor-dev-secret"
		log.Println("JWT_SECRET not set, using development secret")
	}

	AppConfig = Config{
		ServerPort:       getEnv("PORT", "8080"),
		Environment:      getEnv("ENV", "development"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "collab_editor"),
		RedisAddress:     getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:        jwtSecret,
		CompleterAddress: getEnv("COMPLETER_ADDRESS", ""),
		SessionTTL:       getDurationEnv("SESSION_TTL_HOURS", 24) * time.Hour,
		CleanupInterval:  getDurationEnv("CLEANUP_INTERVAL_MINUTES", 5) * time.Minute,
		FrontendAddress:  getEnv("FRONTEND_ADDRESS", "https://production-frontend.com"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDurationEnv reads an integer environment variable as a unitless duration
func getDurationEnv(key string, defaultValue int64) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultValue)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Duration(defaultValue)
	}
	return time.Duration(n)
}
