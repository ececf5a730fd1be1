package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress               string
	DatabaseURI              string
	APIBaseURL               string
	APITimeout               time.Duration
	APIRateLimit             float64
	APIBurst                 int
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	TokenSecret              string
	TokenStrategy            string
	SessionTTL               time.Duration
	MaxImageBytes            int64
	UploadDir                string
	CompensationPolicy       string
	CompensationPollInterval time.Duration
	CompensationBatch        int
	CompensationBackoff      time.Duration
	MaxCompensationAttempts  int
	WorkerPoolSize           int
	FlowIdleTTL              time.Duration
	ShutdownTimeout          time.Duration
	CORSOrigins              []string
	LogLevel                 string
}

const (
	TokenStrategyHMAC = "hmac"
	TokenStrategyJWT  = "jwt"

	PolicyConfirm       = "confirm"
	PolicyFireAndForget = "fire-and-forget"
)

const (
	defaultRunAddress               = ":8080"
	defaultAPITimeout               = 10 * time.Second
	defaultAPIRateLimit             = 20.0
	defaultAPIBurst                 = 10
	defaultRedisAddr                = "localhost:6379"
	defaultTokenSecret              = "change-me-in-production"
	defaultTokenStrategy            = TokenStrategyHMAC
	defaultSessionTTL               = 12 * time.Hour
	defaultMaxImageBytes            = 5 << 20
	defaultCompensationPolicy       = PolicyConfirm
	defaultCompensationPollInterval = 5 * time.Second
	defaultCompensationBatch        = 16
	defaultCompensationBackoff      = 10 * time.Second
	defaultMaxCompensationAttempts  = 5
	defaultWorkerPoolSize           = 4
	defaultFlowIdleTTL              = 30 * time.Minute
	defaultShutdownTimeout          = 10 * time.Second
	defaultLogLevel                 = "info"
	defaultEnvFile                  = ".env"
)

// Load parses configuration from an optional .env file, flags and environment variables.
func Load() (*Config, error) {
	if err := loadDotEnv(getString(os.LookupEnv, "ENV_FILE", defaultEnvFile)); err != nil {
		return nil, err
	}
	return load(os.Args[1:], os.LookupEnv)
}

// loadDotEnv populates missing environment variables from path; a missing file is ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:               getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:              getString(lookup, "DATABASE_URI", ""),
		APIBaseURL:               getString(lookup, "API_BASE_URL", ""),
		APITimeout:               getDuration(lookup, "API_TIMEOUT", defaultAPITimeout),
		APIRateLimit:             getFloat(lookup, "API_RATE_LIMIT", defaultAPIRateLimit),
		APIBurst:                 getInt(lookup, "API_BURST", defaultAPIBurst),
		RedisAddr:                getString(lookup, "REDIS_ADDR", defaultRedisAddr),
		RedisPassword:            getString(lookup, "REDIS_PASSWORD", ""),
		RedisDB:                  getInt(lookup, "REDIS_DB", 0),
		TokenSecret:              getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		TokenStrategy:            getString(lookup, "TOKEN_STRATEGY", defaultTokenStrategy),
		SessionTTL:               getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		MaxImageBytes:            int64(getInt(lookup, "MAX_IMAGE_BYTES", defaultMaxImageBytes)),
		UploadDir:                getString(lookup, "UPLOAD_DIR", filepath.Join(os.TempDir(), "movewise-uploads")),
		CompensationPolicy:       getString(lookup, "COMPENSATION_POLICY", defaultCompensationPolicy),
		CompensationPollInterval: getDuration(lookup, "COMPENSATION_POLL_INTERVAL", defaultCompensationPollInterval),
		CompensationBatch:        getInt(lookup, "COMPENSATION_BATCH", defaultCompensationBatch),
		CompensationBackoff:      getDuration(lookup, "COMPENSATION_BACKOFF", defaultCompensationBackoff),
		MaxCompensationAttempts:  getInt(lookup, "MAX_COMPENSATION_ATTEMPTS", defaultMaxCompensationAttempts),
		WorkerPoolSize:           getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		FlowIdleTTL:              getDuration(lookup, "FLOW_IDLE_TTL", defaultFlowIdleTTL),
		ShutdownTimeout:          getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:                 getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	flags := flag.NewFlagSet("movewise", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.CompensationPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		flowIdleTTLStr     = cfg.FlowIdleTTL.String()
		sessionTTLStr      = cfg.SessionTTL.String()
		corsOrigins        = getString(lookup, "CORS_ALLOWED_ORIGINS", "*")
	)

	flags.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	flags.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	flags.StringVar(&cfg.APIBaseURL, "r", cfg.APIBaseURL, "Remote API base URL")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for sessions")
	flags.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing session tokens")
	flags.StringVar(&cfg.TokenStrategy, "token-strategy", cfg.TokenStrategy, "Session token format: hmac or jwt")
	flags.StringVar(&cfg.CompensationPolicy, "compensation-policy", cfg.CompensationPolicy, "Abandoned order policy: confirm or fire-and-forget")
	flags.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent compensation workers")
	flags.IntVar(&cfg.CompensationBatch, "poll-batch", cfg.CompensationBatch, "Maximum compensations per polling batch")
	flags.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between compensation polls")
	flags.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	flags.StringVar(&flowIdleTTLStr, "flow-ttl", flowIdleTTLStr, "Idle time after which a flow is abandoned")
	flags.StringVar(&sessionTTLStr, "session-ttl", sessionTTLStr, "Session lifetime")
	flags.StringVar(&corsOrigins, "cors-origins", corsOrigins, "Comma separated list of allowed origins")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.CompensationPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.FlowIdleTTL, err = time.ParseDuration(flowIdleTTLStr); err != nil {
		return nil, fmt.Errorf("invalid flow ttl: %w", err)
	}

	if cfg.SessionTTL, err = time.ParseDuration(sessionTTLStr); err != nil {
		return nil, fmt.Errorf("invalid session ttl: %w", err)
	}

	cfg.CORSOrigins = splitList(corsOrigins)

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.CompensationBatch <= 0 {
		cfg.CompensationBatch = defaultCompensationBatch
	}

	if cfg.CompensationPollInterval <= 0 {
		cfg.CompensationPollInterval = defaultCompensationPollInterval
	}

	if cfg.CompensationBackoff <= 0 {
		cfg.CompensationBackoff = defaultCompensationBackoff
	}

	if cfg.MaxCompensationAttempts <= 0 {
		cfg.MaxCompensationAttempts = defaultMaxCompensationAttempts
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.FlowIdleTTL <= 0 {
		cfg.FlowIdleTTL = defaultFlowIdleTTL
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.APITimeout <= 0 {
		cfg.APITimeout = defaultAPITimeout
	}

	if cfg.APIBurst <= 0 {
		cfg.APIBurst = defaultAPIBurst
	}

	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}

	switch cfg.TokenStrategy {
	case TokenStrategyHMAC, TokenStrategyJWT:
	default:
		return nil, fmt.Errorf("unknown token strategy %q", cfg.TokenStrategy)
	}

	switch cfg.CompensationPolicy {
	case PolicyConfirm, PolicyFireAndForget:
	default:
		return nil, fmt.Errorf("unknown compensation policy %q", cfg.CompensationPolicy)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("remote API base URL must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
