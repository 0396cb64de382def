// Package config loads server configuration from the environment.
// A .env file is honored when present; real environment variables win.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Port     int
	DBPath   string
	LogLevel string
}

// Load reads the configuration. Missing values fall back to defaults that
// suit local development.
func Load() *ServerConfig {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %s", err)
	}

	return &ServerConfig{
		Port:     getEnvAsInt("PORT", 8080),
		DBPath:   getEnv("DB_PATH", "timetrack.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}
