package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// SessionSecret signs the session cookie JWT. Must be set (and not the dev default) when Env is "prod".
	SessionSecret string

	// SessionTTL is the session cookie lifetime (default 24h). Set via SESSION_TTL_HOURS.
	SessionTTL time.Duration

	// Env is "dev" (default) or "prod".
	Env string

	// WorkDir is the artifact workspace for uploaded and encoded files.
	WorkDir string

	// FeedbackFile is the JSON file holding submitted feedback records.
	FeedbackFile string

	// MaxUploadBytes limits multipart upload bodies (default 16 MiB).
	MaxUploadBytes int64

	// ArtifactTTL is how long an idle artifact slot survives before the
	// purge job removes it (default 24h). Set via ARTIFACT_TTL_HOURS.
	ArtifactTTL time.Duration

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS.
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent.
	CORSAllowedOrigins []string
}

const devSessionSecret = "dev-session-secret"

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "encryptoo"),
		DBUser: getEnv("DB_USER", "encryptoo"),
		DBPass: getEnv("DB_PASS", "encryptoo"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		SessionSecret: getEnv("SESSION_SECRET", devSessionSecret),
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		Env:           getEnv("ENV", "dev"),

		WorkDir:      getEnv("WORK_DIR", "./work/artifacts"),
		FeedbackFile: getEnv("FEEDBACK_FILE", "./work/feedback.json"),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 16)) << 20,
		ArtifactTTL:    time.Duration(getEnvInt("ARTIFACT_TTL_HOURS", 24)) * time.Hour,

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// Validate rejects configurations that must not reach production,
// in particular the default session secret when Env is "prod".
func (c Config) Validate() error {
	if c.Env == "prod" && (c.SessionSecret == "" || c.SessionSecret == devSessionSecret) {
		return fmt.Errorf("SESSION_SECRET must be set to a non-default value when ENV=prod")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// DatabaseURL returns a postgres DSN suitable for golang-migrate.
func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
