package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	DBDriver             string // sqlite or mysql
	DBDSN                string
	RedisURL             string // empty disables the analytics cache
	PaymentWebhookSecret string
	ServerPort           string
	CacheTTLSeconds      int
}

// Load reads configuration from the environment, with a .env file as an
// optional overlay for local development.
func Load() *Config {
	godotenv.Load()

	return &Config{
		DBDriver:             getEnv("DB_DRIVER", "sqlite"),
		DBDSN:                getEnv("DB_DSN", "pos.db"),
		RedisURL:             getEnv("REDIS_URL", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		ServerPort:           getEnv("PORT", "8080"),
		CacheTTLSeconds:      getEnvAsInt("CACHE_TTL_SECONDS", 30),
	}
}

// OpenDB connects to the configured database. sqlite is the default for
// development and tests; mysql for deployments.
func (c *Config) OpenDB() (*gorm.DB, error) {
	switch c.DBDriver {
	case "sqlite":
		return gorm.Open(sqlite.Open(c.DBDSN), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(c.DBDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
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
