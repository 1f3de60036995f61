package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server ServerConfig
	DB     DatabaseConfig
	Redis  RedisConfig
	Pool   PoolConfig
	App    AppConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PoolConfig tunes short-code generation and the pre-generated code pool.
// All values are static for the process lifetime.
type PoolConfig struct {
	Alphabet             string
	CodeLength           int
	MinPoolSize          int
	MaxPoolSize          int
	EntryTTLSeconds      int
	MaxGenerationRetries int
	// ReservedPrefixes extends the built-in set (api, admin, www, app).
	ReservedPrefixes []string
}

type AppConfig struct {
	Env string
}

const defaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "minilink"),
			Password: getEnv("DB_PASSWORD", "minilink"),
			DBName:   getEnv("DB_NAME", "minilink"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Pool: PoolConfig{
			Alphabet:             getEnv("CODE_ALPHABET", defaultAlphabet),
			CodeLength:           getEnvAsInt("CODE_LENGTH", 7),
			MinPoolSize:          getEnvAsInt("POOL_MIN_SIZE", 100),
			MaxPoolSize:          getEnvAsInt("POOL_MAX_SIZE", 1000),
			EntryTTLSeconds:      getEnvAsInt("POOL_ENTRY_TTL_SECONDS", 86400),
			MaxGenerationRetries: getEnvAsInt("MAX_GENERATION_RETRIES", 5),
			ReservedPrefixes:     getEnvAsList("RESERVED_PREFIXES"),
		},
		App: AppConfig{
			Env: getEnv("APP_ENV", "development"),
		},
	}
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
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

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
