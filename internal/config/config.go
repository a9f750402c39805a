package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Restaurant struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	// DBMaxOpenConns bounds the pool; every open transaction pins one connection.
	DBMaxOpenConns int
	AppPort        string
	AppEnv     string

	StorageDriver  string
	JWTSecret      string
	RequestTimeout time.Duration

	RedisAddr      string
	IdempotencyTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	Restaurant Restaurant
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 25),
		AppPort:        getEnv("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "pos-events"),

		Restaurant: Restaurant{
			Name:    getEnv("RESTAURANT_NAME", "Restaurant Name"),
			Address: getEnv("RESTAURANT_ADDRESS", "123 Restaurant Street"),
			Phone:   getEnv("RESTAURANT_PHONE", "(123) 456-7890"),
			Email:   getEnv("RESTAURANT_EMAIL", "info@restaurant.com"),
		},
	}

	if cfg.StorageDriver == StoragePostgres && cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
