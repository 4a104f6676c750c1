package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string `validate:"required_if=Env production"`

	ObjectStoreType string `validate:"oneof=local s3"`
	LocalStoreDir   string
	AWSRegion       string `validate:"required_if=ObjectStoreType s3"`
	S3Bucket        string `validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider  string `validate:"oneof=gemini openai stub"`
	LLMModel     string
	GeminiAPIKey string
	OpenAIAPIKey string
	PromptDir    string

	GoogleServiceAccountFile string
	GoogleDriveFolderID      string

	EmailFrom string
	EmailCC   []string

	JWTSecret string
	LogFile   string
	LogLevel  string
	RunTTL    time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Missing files are fine; real deployments inject the environment directly.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		LLMProvider:  normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:     getEnv("LLM_MODEL", ""),
		GeminiAPIKey: firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		PromptDir:    getEnv("PROMPT_DIR", ""),

		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleDriveFolderID:      getEnv("GOOGLE_DRIVE_FEEDBACK_FOLDER_ID", ""),

		EmailFrom: getEnv("EMAIL_FROM", "feedback@localhost"),
		EmailCC:   splitAndTrim(getEnv("EMAIL_CC", "")),

		JWTSecret: getEnv("JWT_SECRET", ""),
		LogFile:   getEnv("LOG_FILE", ""),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RunTTL:    getDuration("RUN_TTL", time.Hour),
	}
}

// Validate checks the cross-field requirements of a loaded configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.LLMProvider == "gemini" && c.GeminiAPIKey == "" && c.Env == "production" {
		return fmt.Errorf("invalid config: GEMINI_API_KEY is required in production")
	}
	if c.LLMProvider == "openai" && c.OpenAIAPIKey == "" && c.Env == "production" {
		return fmt.Errorf("invalid config: OPENAI_API_KEY is required in production")
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "stub", "fake":
		return "stub"
	default:
		return "gemini"
	}
}
