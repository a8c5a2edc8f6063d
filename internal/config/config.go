package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration loaded from the environment.
type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	TokenExpiry    time.Duration
	FrontendOrigin string
	UploadDir      string
}

// LoadConfig reads configuration from a .env file (if present) and the
// environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on environment variables")
	}

	expiry := 24 * time.Hour
	if raw := os.Getenv("TOKEN_EXPIRY"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logrus.WithError(err).Warnf("Invalid TOKEN_EXPIRY %q, using default", raw)
		} else {
			expiry = parsed
		}
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         getEnv("DB_NAME", "spacebook"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenExpiry:    expiry,
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
