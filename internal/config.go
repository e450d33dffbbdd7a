package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// ActorToken binds one bearer token to the actor it authenticates.
// Tokens are issued out of band; the service only consumes them.
type ActorToken struct {
	Token string
	Actor domain.Actor
}

// SeedStore is one store loaded into the in-memory repository when no
// database is configured.
type SeedStore struct {
	ID      string
	Name    string
	Address string
}

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Database. Empty means in-memory repositories (development and tests).
	DatabaseUrl string

	// Storage Configuration
	StorageProvider string // "local" or "s3"

	// Local Storage (development)
	LocalStoragePath string // Base directory for photo objects
	LocalStorageURL  string // Base URL for accessing local files

	// S3 Storage (production)
	S3Endpoint        string // Custom endpoint for S3-compatible providers
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3PublicURL       string // Optional custom domain URL

	// Actor directory, parsed from ACTOR_TOKENS
	ActorTokens []ActorToken

	// Stores seeded into the in-memory repository, parsed from SEED_STORES
	SeedStores []SeedStore

	// Status gauge refresh interval
	StatusWorkerInterval time.Duration

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Shared maintenance inbox receiving workflow notices.
	// Empty disables email delivery entirely.
	NotifyEmail string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	// API rate limiting per client IP. Zero max disables the limiter.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Optional: in-memory repositories when unset
		DatabaseUrl: os.Getenv("DATABASE_URL"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// S3 configuration (production only)
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "ap-southeast-1"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3BucketName:      getEnv("S3_BUCKET_NAME", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),

		StatusWorkerInterval: getEnvDuration("STATUS_WORKER_INTERVAL", 30*time.Second),

		// Email (Mailhog defaults for development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@rawatoko.id"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Rawatoko"),
		NotifyEmail:  getEnv("NOTIFY_EMAIL", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Rate limiting
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 120),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	tokens, err := parseActorTokens(getEnv("ACTOR_TOKENS", ""))
	if err != nil {
		return nil, err
	}
	cfg.ActorTokens = tokens

	stores, err := parseSeedStores(getEnv("SEED_STORES", ""))
	if err != nil {
		return nil, err
	}
	cfg.SeedStores = stores

	// Validate storage configuration
	if cfg.StorageProvider == "s3" {
		if cfg.S3AccessKeyID == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 's3'")
		}
		if cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 's3'")
		}
		if cfg.S3BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME is required when STORAGE_PROVIDER is 's3'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 's3', got: %s", cfg.StorageProvider)
	}

	return cfg, nil
}

// parseActorTokens parses the ACTOR_TOKENS environment variable. The format
// is comma-separated entries of "token|actor-uuid|name|role" with an
// optional fifth branch field, e.g.:
//
//	tok-budi|8a6f...|Budi|field_reporter,tok-sari|41c2...|Sari|approver|JKT-01
func parseActorTokens(raw string) ([]ActorToken, error) {
	if raw == "" {
		return nil, nil
	}

	var tokens []ActorToken
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fields := strings.Split(entry, "|")
		if len(fields) < 4 || len(fields) > 5 {
			return nil, fmt.Errorf("ACTOR_TOKENS entry %q must have 4 or 5 fields (token|id|name|role|branch)", entry)
		}

		id, err := uuid.Parse(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("ACTOR_TOKENS entry %q has invalid actor ID: %w", entry, err)
		}
		role := domain.Role(strings.TrimSpace(fields[3]))
		if !role.IsValid() {
			return nil, fmt.Errorf("ACTOR_TOKENS entry %q has unknown role %q", entry, fields[3])
		}

		actor := domain.Actor{
			ID:   id,
			Name: strings.TrimSpace(fields[2]),
			Role: role,
		}
		if len(fields) == 5 {
			actor.BranchID = strings.TrimSpace(fields[4])
		}
		tokens = append(tokens, ActorToken{
			Token: strings.TrimSpace(fields[0]),
			Actor: actor,
		})
	}
	return tokens, nil
}

// parseSeedStores parses the SEED_STORES environment variable. The format is
// comma-separated entries of "id|name|address", e.g.:
//
//	T001|Toko Merdeka|Jl. Merdeka 1,T002|Toko Pahlawan|Jl. Pahlawan 7
func parseSeedStores(raw string) ([]SeedStore, error) {
	if raw == "" {
		return nil, nil
	}

	var stores []SeedStore
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fields := strings.Split(entry, "|")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("SEED_STORES entry %q must have 2 or 3 fields (id|name|address)", entry)
		}

		store := SeedStore{
			ID:   strings.TrimSpace(fields[0]),
			Name: strings.TrimSpace(fields[1]),
		}
		if len(fields) == 3 {
			store.Address = strings.TrimSpace(fields[2])
		}
		if store.ID == "" || store.Name == "" {
			return nil, fmt.Errorf("SEED_STORES entry %q needs both an ID and a name", entry)
		}
		stores = append(stores, store)
	}
	return stores, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
