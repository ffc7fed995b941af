package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"studyhub/internal/chunker"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL    string
	LLMModelName  string
	LLMAPIKey     string
	LLMMaxRetries int
	DBPath        string
	APIPort       string
	LogLevel      slog.Level
	LogFormat     string
	Chunking      chunker.Options
	MaxFileSize   int64
	DocumentLimit int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:   getEnv("LLM_BASE_URL", "https://api.openai.com/v1/"),
		LLMModelName: getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		DBPath:       getEnv("DB_PATH", "./data/studyhub.db"),
		APIPort:      getEnv("API_PORT", "9000"),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	if cfg.LLMMaxRetries, err = getInt("LLM_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.LLMMaxRetries < 0 {
		return nil, fmt.Errorf("LLM_MAX_RETRIES must not be negative")
	}

	if cfg.Chunking.ChunkSize, err = getInt("CHUNK_SIZE", chunker.DefaultChunkSize); err != nil {
		return nil, err
	}
	if cfg.Chunking.Overlap, err = getInt("CHUNK_OVERLAP", chunker.DefaultOverlap); err != nil {
		return nil, err
	}
	if err := cfg.Chunking.Validate(); err != nil {
		return nil, fmt.Errorf("CHUNK_SIZE/CHUNK_OVERLAP: %w", err)
	}

	maxFileSize, err := getInt("MAX_FILE_SIZE", 10<<20)
	if err != nil {
		return nil, err
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be greater than 0")
	}
	cfg.MaxFileSize = int64(maxFileSize)

	if cfg.DocumentLimit, err = getInt("DOCUMENT_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.DocumentLimit <= 0 {
		return nil, fmt.Errorf("DOCUMENT_LIMIT must be greater than 0")
	}

	// Create the data directory for the database file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt parses an integer environment variable or returns a default value.
func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
