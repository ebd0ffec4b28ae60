package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"netxlate/internal/core"
	"netxlate/internal/util"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Port             string
	GinMode          string
	DebugFile        string
	Credential       string
	DefaultModel     string
	ModelsConfigPath string
	CatalogPath      string
	ClientAPIKeys    []string
	CORSAllowOrigin  string
	RateLimit        int
	RedisURL         string
	StatsFile        string
	UpdateRepo       string
	MaxSessions      int

	HTTPClientSettings HTTPClientSettings
}

// HTTPClientSettings HTTP client configuration
type HTTPClientSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	RequestTimeout      time.Duration
}

// DefaultHTTPClientSettings default HTTP client settings
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:        core.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: core.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     core.HTTPMaxConnsPerHost,
		IdleConnTimeout:     core.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: core.HTTPTLSHandshakeTimeout,
		RequestTimeout:      core.HTTPRequestTimeout,
	}
}

// NewClient builds a pooled HTTP client from the settings.
func (s HTTPClientSettings) NewClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          s.MaxIdleConns,
		MaxIdleConnsPerHost:   s.MaxIdleConnsPerHost,
		MaxConnsPerHost:       s.MaxConnsPerHost,
		IdleConnTimeout:       s.IdleConnTimeout,
		TLSHandshakeTimeout:   s.TLSHandshakeTimeout,
		ExpectContinueTimeout: core.HTTPExpectContinueTimeout,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: core.HTTPResponseHeaderTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   s.RequestTimeout,
	}
}

// LoadDotEnv loads .env files into the environment. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// Load reads the configuration from the process environment.
func Load(logger core.Logger) (Config, error) {
	return FromLookup(os.Getenv, logger)
}

// FromLookup reads the configuration through getenv.
// Invalid numeric values are logged and replaced by their defaults.
func FromLookup(getenv func(string) string, logger core.Logger) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:               get("PORT", core.DefaultPort),
		GinMode:            get("GIN_MODE", core.DefaultGinMode),
		DebugFile:          get("DEBUG_FILE", ""),
		Credential:         get("GEMINI_API_KEY", ""),
		DefaultModel:       get("DEFAULT_MODEL", ""),
		ModelsConfigPath:   get("MODELS_CONFIG_PATH", core.DefaultModelsConfigPath),
		CatalogPath:        get("CATALOG_PATH", ""),
		ClientAPIKeys:      util.ParseEnvList(getenv("CLIENT_API_KEYS")),
		CORSAllowOrigin:    get("CORS_ALLOW_ORIGIN", "*"),
		RedisURL:           get("REDIS_URL", ""),
		StatsFile:          get("STATS_FILE", core.StatsFilePath),
		UpdateRepo:         get("UPDATE_REPO", core.DefaultUpdateRepo),
		HTTPClientSettings: DefaultHTTPClientSettings(),
	}

	var ok bool
	if cfg.RateLimit, ok = util.ParsePositiveInt(getenv("RATE_LIMIT"), core.DefaultRateLimit); !ok {
		logger.Warn("Invalid RATE_LIMIT value '%s', using default %d", getenv("RATE_LIMIT"), core.DefaultRateLimit)
	}
	if cfg.MaxSessions, ok = util.ParsePositiveInt(getenv("MAX_SESSIONS"), core.DefaultMaxSessions); !ok {
		logger.Warn("Invalid MAX_SESSIONS value '%s', using default %d", getenv("MAX_SESSIONS"), core.DefaultMaxSessions)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.Credential == "" {
		logger.Warn("GEMINI_API_KEY is not set; backend calls will fail with a model configuration error")
	}
	if len(cfg.ClientAPIKeys) == 0 {
		logger.Warn("CLIENT_API_KEYS is empty, the API is open to any caller")
	} else {
		logger.Info("Loaded %d client API keys", len(cfg.ClientAPIKeys))
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	owner, name, found := strings.Cut(c.UpdateRepo, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		errs = append(errs, fmt.Errorf("UPDATE_REPO must be owner/name, got %q", c.UpdateRepo))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode))
	}
	if strings.ContainsAny(c.Port, " :/") {
		errs = append(errs, fmt.Errorf("PORT must be a bare port number, got %q", c.Port))
	}
	return errors.Join(errs...)
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.GinMode == "debug"
}
