package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret string
	AccessTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimit       int
	RateLimitWindow time.Duration

	SweepInterval time.Duration

	CORSOrigins []string

	OTLPEndpoint string

	MaxBodyBytes int64
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)

	return Config{
		Env:   env,
		Port:  port,
		DBURL: buildDBURL(),

		JWTSecret: getEnv("JWT_SECRET_KEY", "dev-only-secret"),
		AccessTTL: getEnvDuration("JWT_ACCESS_TTL", time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		SweepInterval: getEnvDuration("REVOCATION_SWEEP_INTERVAL", 15*time.Minute),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "fintrack")
	pass := getEnv("DB_PASSWORD", "fintrack")
	name := getEnv("DB_NAME", "fintrack")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")

	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
