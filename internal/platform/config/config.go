// Package config builds runtime configuration from the environment so main
// stays lean. A .env file in the working directory is loaded first when
// present; real environment variables win over it.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AdminCredential is one entry of the fixed admin credential table.
// PasswordHash is a bcrypt hash; plaintext passwords never appear in config.
type AdminCredential struct {
	Email        string
	PasswordHash string
	Name         string
}

// Config captures everything the server needs at startup.
type Config struct {
	Addr          string
	JWTSigningKey string
	SessionTTL    time.Duration

	// Access codes gate the two login roles.
	StudentAccessCode string
	AdminAccessCode   string
	AdminCredentials  []AdminCredential

	// Moderation thresholds. Auto-delete defaults to 10 reports; deployments
	// that want a laxer policy raise it through the env var.
	ReportedThreshold int
	DeleteThreshold   int

	PostgresURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	MediaUploadURL string
	MediaMaxBytes  int64
}

// RedisConfig configures the optional session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional notification event mirror.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:              envOr("CAMPUSVOICE_ADDR", ":8080"),
		JWTSigningKey:     envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:        envDuration("SESSION_TTL", 30*24*time.Hour),
		StudentAccessCode: envOr("STUDENT_ACCESS_CODE", "CAMPUS2024"),
		AdminAccessCode:   envOr("ADMIN_ACCESS_CODE", "ADMIN2024"),
		ReportedThreshold: envInt("MODERATION_REPORTED_THRESHOLD", 3),
		DeleteThreshold:   envInt("MODERATION_DELETE_THRESHOLD", 10),
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_NOTIFICATIONS_TOPIC", "campusvoice.notifications"),
		},
		MediaUploadURL: os.Getenv("MEDIA_UPLOAD_URL"),
		MediaMaxBytes:  int64(envInt("MEDIA_MAX_BYTES", 10<<20)),
	}

	// ADMIN_CREDENTIALS is a semicolon-separated list of email:bcrypt:name
	// triples. Name may contain colons so split only twice.
	for _, entry := range strings.Split(os.Getenv("ADMIN_CREDENTIALS"), ";") {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		cred := AdminCredential{Email: parts[0], PasswordHash: parts[1]}
		if len(parts) == 3 {
			cred.Name = parts[2]
		}
		cfg.AdminCredentials = append(cfg.AdminCredentials, cred)
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
