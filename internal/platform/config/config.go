package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    slog.Level
	Registry    RegistryConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RegistryConfig configures the DBS registry client.
type RegistryConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// DegradedAsNotFound reproduces the legacy behaviour where an unreachable
	// registry is indistinguishable from "no certificate on file".
	DegradedAsNotFound bool
	CacheTTL           time.Duration
}

// DatabaseConfig configures the Postgres household store. Empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the shared registry lookup cache. Empty URL selects the in-memory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the household event producer. Empty Brokers disables publishing.
type KafkaConfig struct {
	Brokers         string
	EventsTopic     string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// RegistryCacheTTL bounds how long a registry answer is reused across requests.
var RegistryCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:        getEnv("CHILDMINDER_ADDR", ":8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLevel(os.Getenv("LOG_LEVEL")),
		Registry: RegistryConfig{
			BaseURL:            getEnv("DBS_REGISTRY_URL", "http://localhost:8081"),
			APIKey:             os.Getenv("DBS_REGISTRY_API_KEY"),
			Timeout:            getDuration("DBS_REGISTRY_TIMEOUT", 5*time.Second),
			DegradedAsNotFound: getBool("DBS_DEGRADED_AS_NOT_FOUND", false),
			CacheTTL:           getDuration("DBS_LOOKUP_CACHE_TTL", RegistryCacheTTL),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			EventsTopic:     getEnv("KAFKA_EVENTS_TOPIC", "childminder.household.events"),
			Acks:            getEnv("KAFKA_ACKS", "all"),
			Retries:         getInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: getDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
