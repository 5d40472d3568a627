package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minProductionSecretLen = 32

// Config holds application configuration.
type Config struct {
	Port                 string
	Env                  string
	CORSAllowOrigin      []string
	DatabaseURL          string
	AutoMigrate          bool
	JWTSecret            string
	JWTTTL               time.Duration
	LogLevel             string
	RateLimitRPS         float64
	RateLimitBurst       int
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURL    string
	UIRedirectURL        string
	AWSRegion            string
	UploadsBucket        string
	UploadsPrefix        string
	UploadsPublicBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Variables
	// already present in the environment win.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		AutoMigrate:          getBool("DB_AUTO_MIGRATE", false),
		JWTSecret:            strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:               getDuration("JWT_TTL", 24*time.Hour),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		RateLimitRPS:         getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:       getInt("RATE_LIMIT_BURST", 20),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:    getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:        getEnv("UI_REDIRECT_URL", ""),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		UploadsBucket:        getEnv("UPLOADS_S3_BUCKET", ""),
		UploadsPrefix:        getEnv("UPLOADS_S3_PREFIX", "resumes/"),
		UploadsPublicBaseURL: getEnv("UPLOADS_PUBLIC_BASE_URL", ""),
	}
}

// Validate fails fast on configuration the process cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if !c.IsDevLike() && len(c.JWTSecret) < minProductionSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside dev", minProductionSecretLen))
	}
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
