package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// TokenStoreFile persists the session in a local JSON file
	TokenStoreFile = "file"
	// TokenStoreMemory keeps the session for the lifetime of the process
	TokenStoreMemory = "memory"
	// TokenStoreRedis persists the session in Redis
	TokenStoreRedis = "redis"

	// RefreshPolicyKeep keeps the last known profile when a refresh fails
	RefreshPolicyKeep = "keep"
	// RefreshPolicyClear clears the cached profile when a refresh fails
	RefreshPolicyClear = "clear"
)

// Config holds application configuration.
// Values come from defaults, then an optional YAML file, then the environment.
type Config struct {
	// Session client
	APIBaseURL           string        `yaml:"api_url"`
	AuthURL              string        `yaml:"auth_url"`
	AuthClientID         string        `yaml:"auth_client_id"`
	AuthClientSecret     string        `yaml:"auth_client_secret"`
	AuthIssuer           string        `yaml:"auth_issuer"`
	JWKSURL              string        `yaml:"jwks_url"`
	TokenStore           string        `yaml:"token_store"`
	TokenFile            string        `yaml:"token_file"`
	ProfileTimeout       time.Duration `yaml:"profile_timeout"`
	ExpiryTimeout        time.Duration `yaml:"expiry_timeout"`
	RefreshFailurePolicy string        `yaml:"refresh_failure_policy"`
	EntryRoute           string        `yaml:"entry_route"`
	CLIDebugMode         bool          `yaml:"debug"`

	// Shared infrastructure
	RedisURL         string `yaml:"redis_url"`
	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int    `yaml:"rabbitmq_prefetch"`
	RedisTokenKey    string `yaml:"redis_token_key"`
	// RefreshTokenTTL bounds how long a stored session outlives its last save
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`

	// Invite worker
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	DLQRetention  time.Duration `yaml:"dlq_retention"`
	DLQGCInterval time.Duration `yaml:"dlq_gc_interval"`

	// Invite service
	ServerPort      string `yaml:"server_port"`
	FrontendURL     string `yaml:"frontend_url"`
	ResendAPIKey    string `yaml:"resend_api_key"`
	InviteFromEmail string `yaml:"invite_from_email"`
	InviteFromName  string `yaml:"invite_from_name"`
	InviteMockMode  bool   `yaml:"invite_mock_mode"`
	InviteAppURL    string `yaml:"invite_app_url"`
	RateLimit       string `yaml:"rate_limit"`
	EnableHSTS      bool   `yaml:"enable_hsts"`
	ServerDebugMode bool   `yaml:"server_debug"`
	WorkerDebugMode bool   `yaml:"worker_debug"`
	OTELEnabled     bool   `yaml:"otel_enabled"`
	OTELEndpoint    string `yaml:"otel_endpoint"`
}

// lookupFunc resolves an environment variable; os.Getenv in production
type lookupFunc func(string) string

// Load loads configuration from .env, the file named by FRIDGE_CONFIG_FILE and the environment
func Load() (*Config, error) {
	return LoadWithFile(os.Getenv("FRIDGE_CONFIG_FILE"))
}

// LoadWithFile loads configuration using the given YAML file (may be empty)
func LoadWithFile(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var fileData []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		fileData = data
	}

	return load(os.Getenv, fileData)
}

func load(env lookupFunc, fileData []byte) (*Config, error) {
	cfg := defaults()

	if len(fileData) > 0 {
		if err := yaml.Unmarshal(fileData, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.APIBaseURL = strings.TrimRight(getEnv(env, "FRIDGE_API_URL", cfg.APIBaseURL), "/")
	cfg.AuthURL = strings.TrimRight(getEnv(env, "FRIDGE_AUTH_URL", cfg.AuthURL), "/")
	cfg.AuthClientID = getEnv(env, "FRIDGE_AUTH_CLIENT_ID", cfg.AuthClientID)
	cfg.AuthClientSecret = getEnv(env, "FRIDGE_AUTH_CLIENT_SECRET", cfg.AuthClientSecret)
	cfg.AuthIssuer = getEnv(env, "FRIDGE_AUTH_ISSUER", cfg.AuthIssuer)
	cfg.JWKSURL = getEnv(env, "FRIDGE_JWKS_URL", cfg.JWKSURL)
	cfg.TokenStore = strings.ToLower(getEnv(env, "FRIDGE_TOKEN_STORE", cfg.TokenStore))
	cfg.TokenFile = getEnv(env, "FRIDGE_TOKEN_FILE", cfg.TokenFile)
	cfg.ProfileTimeout = getEnvDuration(env, "FRIDGE_PROFILE_TIMEOUT", cfg.ProfileTimeout)
	cfg.ExpiryTimeout = getEnvDuration(env, "FRIDGE_EXPIRY_TIMEOUT", cfg.ExpiryTimeout)
	cfg.RefreshFailurePolicy = strings.ToLower(getEnv(env, "FRIDGE_REFRESH_FAILURE_POLICY", cfg.RefreshFailurePolicy))
	cfg.EntryRoute = getEnv(env, "FRIDGE_ENTRY_ROUTE", cfg.EntryRoute)
	cfg.CLIDebugMode = getEnvBool(env, "CLI_DEBUG_MODE", cfg.CLIDebugMode)

	cfg.RedisURL = getEnv(env, "REDIS_URL", cfg.RedisURL)
	cfg.RabbitMQURL = getEnv(env, "RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQPrefetch = getEnvInt(env, "RABBITMQ_PREFETCH", cfg.RabbitMQPrefetch)
	cfg.RedisTokenKey = getEnv(env, "FRIDGE_REDIS_TOKEN_KEY", cfg.RedisTokenKey)
	cfg.RefreshTokenTTL = getEnvDuration(env, "FRIDGE_REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)

	cfg.RetryBackoff = getEnvDuration(env, "INVITE_RETRY_BACKOFF", cfg.RetryBackoff)
	cfg.DLQRetention = getEnvDuration(env, "INVITE_DLQ_RETENTION", cfg.DLQRetention)
	cfg.DLQGCInterval = getEnvDuration(env, "INVITE_DLQ_GC_INTERVAL", cfg.DLQGCInterval)

	cfg.ServerPort = getEnv(env, "SERVER_PORT", cfg.ServerPort)
	cfg.FrontendURL = getEnv(env, "FRONTEND_URL", cfg.FrontendURL)
	cfg.ResendAPIKey = getEnv(env, "RESEND_API_KEY", cfg.ResendAPIKey)
	cfg.InviteFromEmail = getEnv(env, "INVITE_FROM_EMAIL", cfg.InviteFromEmail)
	cfg.InviteFromName = getEnv(env, "INVITE_FROM_NAME", cfg.InviteFromName)
	cfg.InviteMockMode = getEnvBool(env, "INVITE_MOCK_MODE", cfg.InviteMockMode)
	cfg.InviteAppURL = getEnv(env, "INVITE_APP_URL", cfg.InviteAppURL)
	cfg.RateLimit = getEnv(env, "RATE_LIMIT", cfg.RateLimit)
	cfg.EnableHSTS = getEnvBool(env, "ENABLE_HSTS", cfg.EnableHSTS)
	cfg.ServerDebugMode = getEnvBool(env, "SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.WorkerDebugMode = getEnvBool(env, "WORKER_DEBUG_MODE", cfg.WorkerDebugMode)
	cfg.OTELEnabled = getEnvBool(env, "OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv(env, "OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		APIBaseURL:           "http://localhost:8000",
		AuthURL:              "http://localhost:9999",
		TokenStore:           TokenStoreFile,
		TokenFile:            defaultTokenFile(),
		ProfileTimeout:       10 * time.Second,
		ExpiryTimeout:        5 * time.Second,
		RefreshFailurePolicy: RefreshPolicyKeep,
		EntryRoute:           "/",
		RabbitMQPrefetch:     1,
		RedisTokenKey:        "fridgectl:session",
		RefreshTokenTTL:      30 * 24 * time.Hour,
		RetryBackoff:         30 * time.Second,
		DLQRetention:         7 * 24 * time.Hour,
		DLQGCInterval:        time.Hour,
		ServerPort:           "8080",
		FrontendURL:          "http://localhost:8081",
		InviteFromName:       "Shared Fridge",
		InviteMockMode:       true,
		InviteAppURL:         "http://localhost:8081",
		RateLimit:            "5-S",
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".fridgectl-session.json"
	}
	return filepath.Join(dir, "fridgectl", "session.json")
}

// ValidateClient checks the settings needed by the session client
func (c *Config) ValidateClient() error {
	if err := validateHTTPURL("FRIDGE_API_URL", c.APIBaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("FRIDGE_AUTH_URL", c.AuthURL); err != nil {
		return err
	}

	switch c.TokenStore {
	case TokenStoreFile:
		if c.TokenFile == "" {
			return fmt.Errorf("FRIDGE_TOKEN_FILE is required for the file token store")
		}
	case TokenStoreMemory:
	case TokenStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis token store")
		}
		if c.RefreshTokenTTL <= 0 {
			return fmt.Errorf("FRIDGE_REFRESH_TOKEN_TTL must be positive for the redis token store")
		}
	default:
		return fmt.Errorf("invalid FRIDGE_TOKEN_STORE %q (must be 'file', 'memory' or 'redis')", c.TokenStore)
	}

	switch c.RefreshFailurePolicy {
	case RefreshPolicyKeep, RefreshPolicyClear:
	default:
		return fmt.Errorf("invalid FRIDGE_REFRESH_FAILURE_POLICY %q (must be 'keep' or 'clear')", c.RefreshFailurePolicy)
	}

	return nil
}

// ValidateServer checks the settings needed by the invite service
func (c *Config) ValidateServer() error {
	if !c.InviteMockMode {
		if c.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required unless INVITE_MOCK_MODE is enabled")
		}
		if c.InviteFromEmail == "" {
			return fmt.Errorf("INVITE_FROM_EMAIL is required unless INVITE_MOCK_MODE is enabled")
		}
	}
	if c.RabbitMQPrefetch < 1 {
		return fmt.Errorf("RABBITMQ_PREFETCH must be at least 1")
	}
	return nil
}

// ValidateWorker checks the settings needed by the invite worker
func (c *Config) ValidateWorker() error {
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for the invite worker")
	}
	if c.DLQGCInterval <= 0 {
		return fmt.Errorf("INVITE_DLQ_GC_INTERVAL must be positive")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("INVITE_RETRY_BACKOFF must not be negative")
	}
	return c.ValidateServer()
}

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https", name)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host", name)
	}
	return nil
}

func getEnv(env lookupFunc, key, defaultValue string) string {
	if value := env(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(env lookupFunc, key string, defaultValue bool) bool {
	if value := env(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(env lookupFunc, key string, defaultValue int) int {
	if value := env(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(env lookupFunc, key string, defaultValue time.Duration) time.Duration {
	if value := env(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
