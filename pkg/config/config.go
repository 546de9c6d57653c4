package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string
	FirebaseAPIKey  string

	ServiceAccountJSON string
	ServiceAccountPath string

	StorageProvider string // "gcs" or "cloudinary"
	StorageBucket   string
	CloudinaryURL   string
	MaxUploadMB     int64

	RepairCron        string
	SendRatePerMinute int64
	AllowedOrigins    string
}

func Load() (*Config, error) {
	// A missing .env is fine in deployed environments.
	_ = godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAPIKey:     getEnv("FIREBASE_API_KEY", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-adminsdk.json"),
		StorageProvider:    getEnv("STORAGE_PROVIDER", "gcs"),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		CloudinaryURL:      getEnv("CLOUDINARY_URL", ""),
		MaxUploadMB:        getEnvAsInt64("MAX_UPLOAD_MB", 5),
		RepairCron:         getEnv("REPAIR_CRON", "@every 30m"),
		SendRatePerMinute:  getEnvAsInt64("SEND_RATE_PER_MINUTE", 30),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
