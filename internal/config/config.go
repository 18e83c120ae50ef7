package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kickpool/kickpool-go/internal/platform/logging"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config stores runtime configuration for the client.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	APIBaseURL    string
	APITimeout    time.Duration
	APIMaxRetries int

	CircuitEnabled        bool
	CircuitFailureCount   int
	CircuitOpenTimeout    time.Duration
	CircuitHalfOpenMaxReq int

	CacheTTL         time.Duration
	LiveCallFloor    time.Duration
	LivePollInterval time.Duration

	TokenDir string

	WatchedLeagues []string

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	apiTimeout, err := time.ParseDuration(getEnv("KICKPOOL_API_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_API_TIMEOUT: %w", err)
	}
	if apiTimeout <= 0 {
		return Config{}, fmt.Errorf("KICKPOOL_API_TIMEOUT must be > 0")
	}

	apiMaxRetries, err := getEnvAsInt("KICKPOOL_API_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_API_MAX_RETRIES: %w", err)
	}
	if apiMaxRetries < 0 {
		return Config{}, fmt.Errorf("KICKPOOL_API_MAX_RETRIES must be >= 0")
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("KICKPOOL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := getEnvAsInt("KICKPOOL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailureCount < 1 {
		return Config{}, fmt.Errorf("KICKPOOL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := time.ParseDuration(getEnv("KICKPOOL_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if circuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("KICKPOOL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	circuitHalfOpenMaxReq, err := getEnvAsInt("KICKPOOL_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("KICKPOOL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cacheTTL, err := time.ParseDuration(getEnv("KICKPOOL_CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("KICKPOOL_CACHE_TTL must be > 0")
	}

	liveCallFloor, err := time.ParseDuration(getEnv("KICKPOOL_LIVE_CALL_FLOOR", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_LIVE_CALL_FLOOR: %w", err)
	}
	if liveCallFloor < 0 {
		return Config{}, fmt.Errorf("KICKPOOL_LIVE_CALL_FLOOR must be >= 0")
	}

	livePollInterval, err := time.ParseDuration(getEnv("KICKPOOL_LIVE_POLL_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KICKPOOL_LIVE_POLL_INTERVAL: %w", err)
	}
	if livePollInterval <= 0 {
		return Config{}, fmt.Errorf("KICKPOOL_LIVE_POLL_INTERVAL must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofAddr == "" {
		pprofAddr = ":6060"
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                appEnv,
		ServiceName:           getEnv("APP_SERVICE_NAME", "kickpool"),
		ServiceVersion:        getEnv("APP_SERVICE_VERSION", "dev"),
		APIBaseURL:            strings.TrimRight(getEnv("KICKPOOL_API_BASE_URL", "https://api.kickpool.app/v1"), "/"),
		APITimeout:            apiTimeout,
		APIMaxRetries:         apiMaxRetries,
		CircuitEnabled:        circuitEnabled,
		CircuitFailureCount:   circuitFailureCount,
		CircuitOpenTimeout:    circuitOpenTimeout,
		CircuitHalfOpenMaxReq: circuitHalfOpenMaxReq,
		CacheTTL:              cacheTTL,
		LiveCallFloor:         liveCallFloor,
		LivePollInterval:      livePollInterval,
		TokenDir:              strings.TrimSpace(getEnv("KICKPOOL_TOKEN_DIR", "")),
		WatchedLeagues:        splitCSV(getEnv("KICKPOOL_WATCHED_LEAGUES", "Premier League")),
		PprofEnabled:          pprofEnabled,
		PprofAddr:             pprofAddr,
		UptraceEnabled:        uptraceEnabled,
		UptraceDSN:            uptraceDSN,
		PyroscopeEnabled:      pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServerAddress,
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:    pyroscopeUploadRate,
		LogLevel:               logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("KICKPOOL_API_BASE_URL cannot be empty")
	}
	if len(cfg.WatchedLeagues) == 0 {
		return Config{}, fmt.Errorf("KICKPOOL_WATCHED_LEAGUES cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	env := strings.ToLower(strings.TrimSpace(v))
	switch env {
	case EnvDev, EnvProd:
		return env, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q, expected %q or %q", v, EnvDev, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
