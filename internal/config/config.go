package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	DatabaseURL string

	// Redis (optional; enables the shared rate-limit store)
	RedisURL string

	// Analysis backend (narrative enrichment)
	AnalysisAPIKey  string
	AnalysisBaseURL string

	// Resilient call layer
	CallMaxRetries    int
	CallBaseDelay     time.Duration
	CallPerTryTimeout time.Duration

	// Match lifecycle policy
	CooldownWindow   time.Duration
	BatchPairDelay   time.Duration
	CoveredThreshold int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists (development only)
	loadEnvFile(".env")

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		AnalysisAPIKey:    getEnv("ANALYSIS_API_KEY", ""),
		AnalysisBaseURL:   getEnv("ANALYSIS_BASE_URL", "https://api.matchnarrative.dev"),
		CallMaxRetries:    getEnvInt("CALL_MAX_RETRIES", 3),
		CallBaseDelay:     time.Duration(getEnvInt("CALL_BASE_DELAY_MS", 500)) * time.Millisecond,
		CallPerTryTimeout: time.Duration(getEnvInt("CALL_TIMEOUT_SECONDS", 30)) * time.Second,
		CooldownWindow:    time.Duration(getEnvInt("MATCH_COOLDOWN_HOURS", 24)) * time.Hour,
		BatchPairDelay:    time.Duration(getEnvInt("BATCH_PAIR_DELAY_MS", 150)) * time.Millisecond,
		CoveredThreshold:  getEnvInt("BATCH_COVERED_THRESHOLD", 25),
		AllowedOrigins: []string{
			"http://localhost:5173",
			"https://app.talenthub.io",
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// loadEnvFile reads a .env file and sets environment variables.
// Silently skips if the file doesn't exist (production uses real env vars).
func loadEnvFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on first = sign
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't overwrite existing env vars (real env takes precedence)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
