package config

import (
	"fmt"
	"os"
)

type Config struct {
	// Gemini image generation API
	GeminiAPIKey     string
	GeminiAPIBaseURL string
	GeminiModel      string

	// Remote settings/gallery store
	StoreBaseURL string

	// Supabase storage (generated image hosting)
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseStorageBucket  string

	// Admin session tokens
	AdminJWTSecret string

	// Camera
	CameraStreamURL string

	// Local kiosk state
	LocalDBPath string

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiAPIBaseURL: getEnv("GEMINI_API_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),

		StoreBaseURL: getEnv("STORE_BASE_URL", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "kiosk-gallery"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CameraStreamURL: getEnv("CAMERA_STREAM_URL", "http://127.0.0.1:8081/stream"),

		LocalDBPath: getEnv("LOCAL_DB_PATH", "kiosk.db"),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate does not require GEMINI_API_KEY: a kiosk without the credential
// still boots so the admin screen stays reachable, and the generation
// adapter reports the missing credential on first use.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
