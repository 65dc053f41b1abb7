package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort      string
	DatabaseURL   string
	DBPoolSize    int
	RedisURL      string
	RedisPoolSize int
	CacheTTL      int // seconds
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaParts    int
	JWTSecret     string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	SMTPFrom      string
	BaseURL       string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			HTTPPort:      getEnv("HTTP_PORT", "8080"),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			DBPoolSize:    getIntEnv("DB_POOL_SIZE", 50),
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 100),
			CacheTTL:      getIntEnv("CACHE_TTL_SEC", 300),
			KafkaBrokers:  getSliceEnv("KAFKA_BROKERS", ""),
			KafkaTopic:    getEnv("KAFKA_TODO_TOPIC", "todo-events"),
			KafkaParts:    getIntEnv("KAFKA_PARTITIONS", 4),
			JWTSecret:     os.Getenv("JWT_SECRET"),
			SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:      getIntEnv("SMTP_PORT", 587),
			SMTPUser:      os.Getenv("SMTP_USER"),
			SMTPPass:      os.Getenv("SMTP_PASS"),
			SMTPFrom:      getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
			BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		}
	})
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key, defaultVal string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
