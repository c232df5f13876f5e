// Package config loads iMangarr configuration from command-line flags, environment
// variables and a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Supported library backends.
const (
	BackendJSON   = "json"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backends lists every valid LIBRARY_BACKEND value.
var Backends = []string{BackendJSON, BackendBadger, BackendSQLite, BackendMemory}

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
	Catalog CatalogConfig
	Search  SearchConfig
	Covers  CoverConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects where settings and the library live.
type StorageConfig struct {
	DataPath string
	Backend  string
	// WatchFiles reloads the library when its document changes on disk (json backend).
	WatchFiles bool
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	AdvertiseMDNS bool
	CORSOrigins   []string
}

// CatalogConfig configures the AniList client.
type CatalogConfig struct {
	URL               string
	Timeout           time.Duration
	RequestsPerMinute int
}

// SearchConfig configures the search orchestration.
type SearchConfig struct {
	MinQueryLength int
	// RateLimitPerMinute bounds inbound searches per client IP.
	RateLimitPerMinute int
}

// CoverConfig configures the local cover cache.
type CoverConfig struct {
	Enabled  bool
	MaxWidth int
}

// LoadConfig parses the process flags and loads configuration with precedence:
// flags, environment variables, .env file, defaults.
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load registers iMangarr flags on fs, parses args and builds the configuration.
// A nil args slice skips flag parsing, leaving environment and defaults.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	f := flags{
		"env":              fs.String("env", "", "Environment (development, staging, production)"),
		"log-level":        fs.String("log-level", "", "Log level (debug, info, warn, error)"),
		"data-path":        fs.String("data-path", "", "Directory holding settings, library and cover cache"),
		"library-backend":  fs.String("library-backend", "", "Storage backend (json, badger, sqlite, memory)"),
		"watch":            fs.String("watch", "", "Reload the library when its file changes (default: true)"),
		"server-name":      fs.String("server-name", "", "Name advertised on the network"),
		"port":             fs.String("port", "", "Server port (default: 8080)"),
		"read-timeout":     fs.String("read-timeout", "", "HTTP read timeout (default: 15s)"),
		"write-timeout":    fs.String("write-timeout", "", "HTTP write timeout (default: 30s)"),
		"idle-timeout":     fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)"),
		"advertise-mdns":   fs.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)"),
		"cors-origins":     fs.String("cors-origins", "", "Comma separated origins allowed to call /api/v1"),
		"catalog-url":      fs.String("catalog-url", "", "AniList GraphQL endpoint"),
		"catalog-timeout":  fs.String("catalog-timeout", "", "Catalog request timeout (default: 10s)"),
		"min-query-length": fs.String("min-query-length", "", "Minimum search length (default: 3)"),
		"cover-cache":      fs.String("cover-cache", "", "Cache cover images locally (default: true)"),
	}
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if args != nil {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	// A missing .env file is normal.
	_ = loadEnvFile(*envFile)

	var r resolver
	cfg := &Config{
		App:    AppConfig{Environment: r.str(f["env"], "ENV", "development")},
		Logger: LoggerConfig{Level: r.str(f["log-level"], "LOG_LEVEL", "info")},
		Storage: StorageConfig{
			DataPath:   r.str(f["data-path"], "DATA_PATH", ""),
			Backend:    strings.ToLower(r.str(f["library-backend"], "LIBRARY_BACKEND", BackendJSON)),
			WatchFiles: r.boolean(f["watch"], "WATCH_DATA_FILES", true),
		},
		Server: ServerConfig{
			Name:          r.str(f["server-name"], "SERVER_NAME", "iMangarr"),
			Port:          r.str(f["port"], "SERVER_PORT", "8080"),
			ReadTimeout:   r.duration(f["read-timeout"], "SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  r.duration(f["write-timeout"], "SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:   r.duration(f["idle-timeout"], "SERVER_IDLE_TIMEOUT", 60*time.Second),
			AdvertiseMDNS: r.boolean(f["advertise-mdns"], "ADVERTISE_MDNS", true),
			CORSOrigins: splitList(r.str(f["cors-origins"], "CORS_ALLOWED_ORIGINS",
				"http://localhost:5173,http://127.0.0.1:5173")),
		},
		Catalog: CatalogConfig{
			URL:               r.str(f["catalog-url"], "CATALOG_URL", "https://graphql.anilist.co"),
			Timeout:           r.duration(f["catalog-timeout"], "CATALOG_TIMEOUT", 10*time.Second),
			RequestsPerMinute: r.integer(nil, "CATALOG_REQUESTS_PER_MINUTE", 90),
		},
		Search: SearchConfig{
			MinQueryLength:     r.integer(f["min-query-length"], "SEARCH_MIN_QUERY_LENGTH", 3),
			RateLimitPerMinute: r.integer(nil, "SEARCH_RATE_LIMIT_PER_MINUTE", 60),
		},
		Covers: CoverConfig{
			Enabled:  r.boolean(f["cover-cache"], "COVER_CACHE_ENABLED", true),
			MaxWidth: r.integer(nil, "COVER_MAX_WIDTH", 460),
		},
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logger.Level)) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if !slices.Contains(Backends, c.Storage.Backend) {
		return fmt.Errorf("invalid library backend: %s (must be one of %s)", c.Storage.Backend, strings.Join(Backends, ", "))
	}

	switch {
	case c.Storage.DataPath == "":
		return errors.New("data path cannot be empty after expansion")
	case c.Search.MinQueryLength < 1:
		return fmt.Errorf("minimum query length must be at least 1, got %d", c.Search.MinQueryLength)
	case c.Catalog.Timeout <= 0:
		return errors.New("catalog timeout must be positive")
	case c.Catalog.URL == "":
		return errors.New("catalog URL is required")
	}
	return nil
}

// CoversPath is where cached cover images are written.
func (c *Config) CoversPath() string {
	return filepath.Join(c.Storage.DataPath, "covers")
}

// expandDataPath resolves ~ and relative paths. Empty means ~/iMangarr/data.
func (c *Config) expandDataPath() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("find home directory: %w", err)
	}

	path := c.Storage.DataPath
	switch {
	case path == "":
		path = filepath.Join(home, "iMangarr", "data")
	case path == "~":
		path = home
	case strings.HasPrefix(path, "~/"):
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("make %s absolute: %w", path, err)
	}
	c.Storage.DataPath = abs
	return nil
}

// flags maps flag names to their parsed values.
type flags map[string]*string

// resolver reads one setting at a time: flag value, then environment, then
// default. Parse failures are collected instead of silently defaulted.
type resolver struct {
	errs []error
}

func (r *resolver) raw(flagValue *string, envKey string) string {
	if flagValue != nil && *flagValue != "" {
		return *flagValue
	}
	return strings.TrimSpace(os.Getenv(envKey))
}

func (r *resolver) str(flagValue *string, envKey, def string) string {
	if v := r.raw(flagValue, envKey); v != "" {
		return v
	}
	return def
}

// boolean accepts true/1/yes/on and false/0/no/off in any case.
func (r *resolver) boolean(flagValue *string, envKey string, def bool) bool {
	v := strings.ToLower(r.raw(flagValue, envKey))
	switch v {
	case "":
		return def
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	r.errs = append(r.errs, fmt.Errorf("invalid %s %q: want true or false", envKey, v))
	return def
}

func (r *resolver) integer(flagValue *string, envKey string, def int) int {
	v := r.raw(flagValue, envKey)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", envKey, v, err))
		return def
	}
	return n
}

func (r *resolver) duration(flagValue *string, envKey string, def time.Duration) time.Duration {
	v := r.raw(flagValue, envKey)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", envKey, v, err))
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile copies KEY=value lines from a .env file into the environment.
// Variables that are already set keep their value. Blank lines and lines
// starting with # are skipped; values may be wrapped in single or double quotes.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path) //#nosec G304 -- operator-supplied path
	if err != nil {
		return err
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", i+1, line)
		}
		key = strings.TrimSpace(key)
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, strings.Trim(strings.TrimSpace(value), `"'`)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
