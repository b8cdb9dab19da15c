package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	// Backend selects the record store: "sqlite" (default) or "postgres".
	Backend string `json:"backend,omitempty"`

	// PostgresDSN is the connection string used when Backend is "postgres".
	PostgresDSN string `json:"postgres_dsn,omitempty"`

	// CacheTTLSeconds is the search cache lifetime. A negative value disables the cache.
	CacheTTLSeconds int `json:"cache_ttl_seconds,omitempty"`

	// CacheMaxEntries bounds the number of cached result pages.
	CacheMaxEntries int `json:"cache_max_entries,omitempty"`

	// PageSize is the default number of results per page.
	PageSize int `json:"page_size,omitempty"`

	// UseCaptionFilter makes regex search match captions as well as file names.
	UseCaptionFilter bool `json:"use_caption_filter,omitempty"`

	// DisableFuzzy turns off the typo-correction search stage.
	DisableFuzzy bool `json:"disable_fuzzy,omitempty"`

	// DistinctNamesLimit caps how many file names typo correction scans.
	DistinctNamesLimit int `json:"distinct_names_limit,omitempty"`

	// PageTokenTTLSeconds is how long a pagination callback stays valid.
	PageTokenTTLSeconds int `json:"page_token_ttl_seconds,omitempty"`

	// PageTokenMax bounds the number of live pagination sessions.
	PageTokenMax int `json:"page_token_max,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use the driver default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes disables every tool of the named types ("file", "catalog").
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// AdminIDs may page through any user's search results.
	AdminIDs []int64 `json:"admin_ids,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is text or json.
	LogFormat string `json:"log_format,omitempty"`

	// HTTPAddr is the listen address for `eightflix serve`.
	HTTPAddr string `json:"http_addr,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend:             BackendSQLite,
		CacheTTLSeconds:     30,
		CacheMaxEntries:     1000,
		PageSize:            10,
		DistinctNamesLimit:  5000,
		PageTokenTTLSeconds: 3600,
		PageTokenMax:        10000,
		LogLevel:            "info",
		LogFormat:           "text",
		HTTPAddr:            "127.0.0.1:8080",
	}
}

// CacheTTL returns the search cache lifetime; zero means disabled.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// PageTokenTTL returns how long pagination callbacks stay valid.
func (c *Config) PageTokenTTL() time.Duration {
	if c.PageTokenTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.PageTokenTTLSeconds) * time.Second
}

// Load loads configuration from baseDir/config.json, applies EIGHTFLIX_*
// environment overrides and validates the result.
// Returns the defaults if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path merged over the defaults.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		Backend:             pickString(overlay.Backend, base.Backend),
		PostgresDSN:         pickString(overlay.PostgresDSN, base.PostgresDSN),
		CacheTTLSeconds:     pickInt(overlay.CacheTTLSeconds, base.CacheTTLSeconds),
		CacheMaxEntries:     pickInt(overlay.CacheMaxEntries, base.CacheMaxEntries),
		PageSize:            pickInt(overlay.PageSize, base.PageSize),
		DistinctNamesLimit:  pickInt(overlay.DistinctNamesLimit, base.DistinctNamesLimit),
		PageTokenTTLSeconds: pickInt(overlay.PageTokenTTLSeconds, base.PageTokenTTLSeconds),
		PageTokenMax:        pickInt(overlay.PageTokenMax, base.PageTokenMax),
		DBMaxOpenConns:      pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:      pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		LogLevel:            pickString(overlay.LogLevel, base.LogLevel),
		LogFormat:           pickString(overlay.LogFormat, base.LogFormat),
		HTTPAddr:            pickString(overlay.HTTPAddr, base.HTTPAddr),
	}

	// Booleans: overlay wins if true, else base
	result.UseCaptionFilter = base.UseCaptionFilter || overlay.UseCaptionFilter
	result.DisableFuzzy = base.DisableFuzzy || overlay.DisableFuzzy

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)
	result.AdminIDs = mergeIDs(base.AdminIDs, overlay.AdminIDs)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// mergeIDs combines two id lists, dropping duplicates.
func mergeIDs(a, b []int64) []int64 {
	seen := make(map[int64]bool)
	var result []int64
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				result = append(result, id)
			}
		}
	}
	return result
}

// applyEnv overrides cfg from EIGHTFLIX_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var problems []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be an integer, got: %s", key, v))
			return
		}
		*dst = n
	}

	str("EIGHTFLIX_BACKEND", &cfg.Backend)
	str("EIGHTFLIX_POSTGRES_DSN", &cfg.PostgresDSN)
	str("EIGHTFLIX_LOG_LEVEL", &cfg.LogLevel)
	str("EIGHTFLIX_LOG_FORMAT", &cfg.LogFormat)
	str("EIGHTFLIX_HTTP_ADDR", &cfg.HTTPAddr)
	num("EIGHTFLIX_CACHE_TTL_SECONDS", &cfg.CacheTTLSeconds)
	num("EIGHTFLIX_CACHE_MAX_ENTRIES", &cfg.CacheMaxEntries)
	num("EIGHTFLIX_PAGE_SIZE", &cfg.PageSize)

	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be a boolean, got: %s", key, v))
			return
		}
		*dst = b
	}

	boolean("EIGHTFLIX_USE_CAPTION_FILTER", &cfg.UseCaptionFilter)
	boolean("EIGHTFLIX_DISABLE_FUZZY", &cfg.DisableFuzzy)

	if v, ok := lookup("EIGHTFLIX_ADMIN_IDS"); ok && strings.TrimSpace(v) != "" {
		var ids []int64
		for _, field := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
			if err != nil {
				problems = append(problems, fmt.Sprintf("EIGHTFLIX_ADMIN_IDS must be comma-separated integers, got: %s", v))
				ids = nil
				break
			}
			ids = append(ids, id)
		}
		if ids != nil {
			cfg.AdminIDs = ids
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("environment overrides invalid:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Backend {
	case BackendSQLite:
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			problems = append(problems, "postgres_dsn is required when backend is postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("backend must be one of: sqlite, postgres, got: %s", c.Backend))
	}

	if c.CacheMaxEntries <= 0 {
		problems = append(problems, fmt.Sprintf("cache_max_entries must be positive, got: %d", c.CacheMaxEntries))
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		problems = append(problems, fmt.Sprintf("page_size must be between 1 and 100, got: %d", c.PageSize))
	}
	if c.DistinctNamesLimit < 0 {
		problems = append(problems, fmt.Sprintf("distinct_names_limit must not be negative, got: %d", c.DistinctNamesLimit))
	}
	if c.PageTokenMax < 0 {
		problems = append(problems, fmt.Sprintf("page_token_max must not be negative, got: %d", c.PageTokenMax))
	}

	for _, id := range c.AdminIDs {
		if id <= 0 {
			problems = append(problems, fmt.Sprintf("admin_ids must be positive user ids, got: %d", id))
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		problems = append(problems, fmt.Sprintf("log_level must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("log_format must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
