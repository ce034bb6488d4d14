package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthHMACSecret  string
	EnableGuestAuth bool
	AdminUser       string
	AdminPassHash   string // bcrypt

	GeneratorURL     string
	GeneratorAPIKey  string
	GeneratorModel   string
	GeneratorTimeout time.Duration

	ExamDuration time.Duration

	CORSOrigins []string

	ExplainRateRPS   float64
	ExplainRateBurst int
}

func FromEnv() Config {
	return Config{
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthHMACSecret:  envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		EnableGuestAuth: envBool("ENABLE_GUEST_AUTH", true),
		AdminUser:       envOr("ADMIN_USER", "admin"),
		AdminPassHash:   envOr("ADMIN_PASS_HASH", ""),

		GeneratorURL:     envOr("GENERATOR_URL", ""),
		GeneratorAPIKey:  envOr("GENERATOR_API_KEY", ""),
		GeneratorModel:   envOr("GENERATOR_MODEL", "gpt-5"),
		GeneratorTimeout: envDuration("GENERATOR_TIMEOUT", 300*time.Second),

		ExamDuration: time.Duration(envInt("EXAM_DURATION_MIN", 90)) * time.Minute,

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		ExplainRateRPS:   envFloat("EXPLAIN_RATE_RPS", 0.5),
		ExplainRateBurst: envInt("EXPLAIN_RATE_BURST", 3),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return d
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
