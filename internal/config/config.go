package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string

	// Auth. When JWKSURL is empty the auth middleware runs in pass-through
	// mode (local development and the chat CLI).
	JWKSURL string

	// Object store
	StorageBucket string
	GCPProjectID  string

	// Completion providers
	OpenAIAPIKey    string
	AnthropicAPIKey string
	DefaultModel    string

	// StrictProjectLock controls how fileIds are resolved when a projectId is
	// supplied with a chat request. Strict mode rejects documents that belong
	// to a different project; lenient mode (the default) only excludes them
	// from the prompt and reports them in the `missing` list.
	StrictProjectLock bool

	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		JWKSURL: getEnv("AUTH_JWKS_URL", ""),

		StorageBucket: getEnv("STORAGE_BUCKET", ""),
		GCPProjectID:  getEnv("GCP_PROJECT_ID", ""),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		DefaultModel:    getEnv("DEFAULT_MODEL", "gpt-4o-mini"),

		StrictProjectLock: getEnvBool("STRICT_PROJECT_LOCK", false),

		// Debug defaults to true outside of prod
		Debug: getEnvBool("DEBUG", env != "prod"),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
