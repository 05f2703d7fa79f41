// Package config loads phrasebook settings from the environment.
//
// Environment Variables:
// Provider:
// - PHRASEBOOK_PROVIDER: deepl or openai (default: deepl)
// - DEEPL_AUTH_KEY: DeepL API key (required for deepl)
// - DEEPL_API_URL: DeepL endpoint (default: chosen from the key)
// - DEEPL_TIMEOUT: DeepL request timeout (default: 30s)
// - OPENAI_API_KEY: OpenAI API key (required for openai)
// - OPENAI_MODEL: Chat model (default: gpt-4o-mini)
// - OPENAI_BASE_URL: Custom OpenAI-compatible endpoint (optional)
//
// Translation:
// - PHRASEBOOK_SOURCE_LANG: Source language (default: EN)
// - PHRASEBOOK_TARGET_LANG: Target language (default: JA)
// - PHRASEBOOK_RPM: Provider requests per minute, 0 for unlimited (default: 0)
// - PHRASEBOOK_WORKERS: Concurrent commands and document phrases (default: 4)
// - PHRASEBOOK_DEDUP: Share provider calls for identical concurrent misses (default: false)
// - PHRASEBOOK_DETECT: Minimum confidence for skipping phrases already in the target language, 0 disables (default: 0)
//
// Cache:
// - PHRASEBOOK_CACHE: memory or redis (default: memory)
// - REDIS_URL: Redis URL (default: redis://localhost:6379/0)
// - PHRASEBOOK_REDIS_PREFIX: Key prefix (default: phrasebook:)
//
// Storage:
// - PHRASEBOOK_STORE: file or sqlite (default: file)
// - PHRASEBOOK_STORE_DIR: Root directory for the file store (default: none)
// - PHRASEBOOK_STORE_DB: SQLite database path (default: phrasebook.db)
//
// Process:
// - PHRASEBOOK_LOG_LEVEL: debug, info, warn or error (default: info)
// - PHRASEBOOK_ADDR: Listen address for serve (default: 127.0.0.1:8787)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZaguanLabs/phrasebook"
	"github.com/joho/godotenv"
)

// Provider names.
const (
	ProviderDeepL  = "deepl"
	ProviderOpenAI = "openai"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds all phrasebook configuration.
type Config struct {
	Provider  string          `json:"provider"`
	DeepL     DeepLConfig     `json:"deepl"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Translate TranslateConfig `json:"translate"`
	Cache     CacheConfig     `json:"cache"`
	Store     StoreConfig     `json:"store"`
	LogLevel  string          `json:"log_level"`
	Addr      string          `json:"addr"`

	// StoreOnly skips the provider credential check for commands that only
	// touch the document store.
	StoreOnly bool `json:"-"`
}

// DeepLConfig holds the DeepL provider settings.
type DeepLConfig struct {
	AuthKey string        `json:"-"`
	APIURL  string        `json:"api_url"`
	Timeout time.Duration `json:"timeout"`
}

// OpenAIConfig holds the OpenAI provider settings.
type OpenAIConfig struct {
	APIKey  string `json:"-"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// TranslateConfig holds the fixed language pair and translator tuning.
type TranslateConfig struct {
	SourceLang        string  `json:"source_lang"`
	TargetLang        string  `json:"target_lang"`
	RequestsPerMinute int     `json:"requests_per_minute"`
	Workers           int     `json:"workers"`
	Dedup             bool    `json:"dedup"`
	DetectConfidence  float64 `json:"detect_confidence"`
}

// CacheConfig selects the phrase cache backend.
type CacheConfig struct {
	Backend     string `json:"backend"`
	RedisURL    string `json:"redis_url"`
	RedisPrefix string `json:"redis_prefix"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend string `json:"backend"`
	Dir     string `json:"dir"`
	DBPath  string `json:"db_path"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// WithProvider overrides the provider name.
func WithProvider(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.Provider = name
		}
	}
}

// WithLanguages overrides the language pair. Empty values are ignored.
func WithLanguages(source, target string) Option {
	return func(c *Config) {
		if source != "" {
			c.Translate.SourceLang = source
		}
		if target != "" {
			c.Translate.TargetLang = target
		}
	}
}

// WithLogLevel overrides the log level.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		if level != "" {
			c.LogLevel = level
		}
	}
}

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		if addr != "" {
			c.Addr = addr
		}
	}
}

// WithStoreOnly marks the configuration as serving document storage only,
// so a missing provider credential is not an error.
func WithStoreOnly() Option {
	return func(c *Config) {
		c.StoreOnly = true
	}
}

// NewFromEnv creates a Config from a .env file (if present), the environment
// and options, in increasing precedence. The result is validated.
func NewFromEnv(opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{
		Provider: strings.ToLower(getEnvString("PHRASEBOOK_PROVIDER", ProviderDeepL)),
		DeepL: DeepLConfig{
			AuthKey: getEnvString("DEEPL_AUTH_KEY", ""),
			APIURL:  getEnvString("DEEPL_API_URL", ""),
			Timeout: getEnvDuration("DEEPL_TIMEOUT", 30*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnvString("OPENAI_API_KEY", ""),
			Model:   getEnvString("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnvString("OPENAI_BASE_URL", ""),
		},
		Translate: TranslateConfig{
			SourceLang:        getEnvString("PHRASEBOOK_SOURCE_LANG", "EN"),
			TargetLang:        getEnvString("PHRASEBOOK_TARGET_LANG", "JA"),
			RequestsPerMinute: getEnvInt("PHRASEBOOK_RPM", 0),
			Workers:           getEnvInt("PHRASEBOOK_WORKERS", 4),
			Dedup:             getEnvBool("PHRASEBOOK_DEDUP", false),
			DetectConfidence:  getEnvFloat("PHRASEBOOK_DETECT", 0),
		},
		Cache: CacheConfig{
			Backend:     strings.ToLower(getEnvString("PHRASEBOOK_CACHE", CacheMemory)),
			RedisURL:    getEnvString("REDIS_URL", "redis://localhost:6379/0"),
			RedisPrefix: getEnvString("PHRASEBOOK_REDIS_PREFIX", "phrasebook:"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnvString("PHRASEBOOK_STORE", StoreFile)),
			Dir:     getEnvString("PHRASEBOOK_STORE_DIR", ""),
			DBPath:  getEnvString("PHRASEBOOK_STORE_DB", "phrasebook.db"),
		},
		LogLevel: getEnvString("PHRASEBOOK_LOG_LEVEL", "info"),
		Addr:     getEnvString("PHRASEBOOK_ADDR", "127.0.0.1:8787"),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ValidateCredentials reports a *phrasebook.MissingCredentialError when the
// selected provider has no key.
func (c *Config) ValidateCredentials() error {
	switch c.Provider {
	case ProviderDeepL:
		if strings.TrimSpace(c.DeepL.AuthKey) == "" {
			return &phrasebook.MissingCredentialError{Provider: ProviderDeepL, EnvVar: "DEEPL_AUTH_KEY"}
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			return &phrasebook.MissingCredentialError{Provider: ProviderOpenAI, EnvVar: "OPENAI_API_KEY"}
		}
	}
	return nil
}

// Validate checks the configuration and normalizes language codes to the
// provider's form. Unless StoreOnly is set, a missing credential is reported
// as a *phrasebook.MissingCredentialError.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderDeepL, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if !c.StoreOnly {
		if err := c.ValidateCredentials(); err != nil {
			return err
		}
	}

	source, err := phrasebook.SourceCode(c.Translate.SourceLang)
	if err != nil {
		return fmt.Errorf("PHRASEBOOK_SOURCE_LANG: %w", err)
	}
	target, err := phrasebook.TargetCode(c.Translate.TargetLang)
	if err != nil {
		return fmt.Errorf("PHRASEBOOK_TARGET_LANG: %w", err)
	}
	c.Translate.SourceLang = source
	c.Translate.TargetLang = target

	if c.Translate.Workers <= 0 {
		return fmt.Errorf("PHRASEBOOK_WORKERS must be positive, got %d", c.Translate.Workers)
	}
	if c.Translate.RequestsPerMinute < 0 {
		return fmt.Errorf("PHRASEBOOK_RPM must not be negative, got %d", c.Translate.RequestsPerMinute)
	}
	if c.Translate.DetectConfidence < 0 || c.Translate.DetectConfidence > 1 {
		return fmt.Errorf("PHRASEBOOK_DETECT must be between 0 and 1, got %g", c.Translate.DetectConfidence)
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or whole seconds ("45").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
