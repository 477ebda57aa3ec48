package util

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/seekwell/atlas/pkg/logger"
)

// LoadEnv reads a .env file into the process environment if one exists.
// Missing files are fine; the system environment is used as-is.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}
}

// GetEnv returns the value of an environment variable, or "" when unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvString returns the value of an environment variable, falling back
// to defaultValue when unset. An explicitly empty value is returned as-is.
func GetEnvString(key string, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// GetEnvNumeric parses an environment variable as a number, falling back
// to defaultValue when unset or unparseable.
func GetEnvNumeric(key string, defaultValue int) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return float64(defaultValue)
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return float64(defaultValue)
	}
	return parsed
}

// GetEnvBool parses an environment variable as a boolean ("true", "1",
// "false", ...), falling back to defaultValue when unset or unparseable.
func GetEnvBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
