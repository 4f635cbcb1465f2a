package util

import (
	"os"
	"strconv"
	"time"

	"github.com/docgraph/docgraph/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	return value
}

func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	returnValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("Invalid integer in environment, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}

	return returnValue
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	returnValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warn("Invalid number in environment, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}

	return returnValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	if value == "true" || value == "false" {
		return value == "true"
	}

	return defaultValue
}

// GetEnvDuration accepts Go durations ("90s") and plain seconds ("90").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	logger.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", defaultValue)
	return defaultValue
}
