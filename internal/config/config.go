package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr    string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	StoreTimeout  time.Duration

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
}

// Load reads configuration from a .env file when present and the
// environment otherwise.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	return Config{
		ServerAddr:       GetEnv("SERVER_ADDR", "0.0.0.0:8080"),
		RedisAddr:        GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    GetEnv("REDIS_PASSWORD", ""),
		JWTSecret:        GetEnv("JWT_SECRET", ""),
		StoreTimeout:     GetDurationEnv("STORE_TIMEOUT", 5*time.Second),
		PostgresHost:     GetEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     GetEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     GetEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: GetEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       GetEnv("POSTGRES_DB", "pollingx"),
	}
}

func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

func GetEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func GetDurationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration in environment, using fallback", "key", key, "value", val)
		return fallback
	}
	return d
}
