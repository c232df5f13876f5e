package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{DataPath: "/data", Backend: BackendJSON},
		Catalog: CatalogConfig{URL: "https://graphql.anilist.co", Timeout: 10 * time.Second},
		Search:  SearchConfig{MinQueryLength: 3},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "staging env", mutate: func(c *Config) { c.App.Environment = "staging" }},
		{name: "production env", mutate: func(c *Config) { c.App.Environment = "production" }},
		{name: "empty env", mutate: func(c *Config) { c.App.Environment = "" }, wantErr: "ENV is required"},
		{name: "unknown env", mutate: func(c *Config) { c.App.Environment = "test" }, wantErr: "invalid environment"},
		{name: "env is case sensitive", mutate: func(c *Config) { c.App.Environment = "PRODUCTION" }, wantErr: "invalid environment"},
		{name: "upper log level", mutate: func(c *Config) { c.Logger.Level = "DEBUG" }},
		{name: "bad log level", mutate: func(c *Config) { c.Logger.Level = "trace" }, wantErr: "invalid log level"},
		{name: "badger backend", mutate: func(c *Config) { c.Storage.Backend = BackendBadger }},
		{name: "sqlite backend", mutate: func(c *Config) { c.Storage.Backend = BackendSQLite }},
		{name: "memory backend", mutate: func(c *Config) { c.Storage.Backend = BackendMemory }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "postgres" }, wantErr: "invalid library backend"},
		{name: "empty data path", mutate: func(c *Config) { c.Storage.DataPath = "" }, wantErr: "data path cannot be empty"},
		{name: "min query zero", mutate: func(c *Config) { c.Search.MinQueryLength = 0 }, wantErr: "minimum query length"},
		{name: "min query two", mutate: func(c *Config) { c.Search.MinQueryLength = 2 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Catalog.Timeout = 0 }, wantErr: "catalog timeout"},
		{name: "empty catalog url", mutate: func(c *Config) { c.Catalog.URL = "" }, wantErr: "catalog URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH", "LIBRARY_BACKEND", "SERVER_PORT", "CATALOG_URL",
		"CATALOG_TIMEOUT", "SEARCH_MIN_QUERY_LENGTH", "COVER_CACHE_ENABLED", "ADVERTISE_MDNS",
		"CORS_ALLOWED_ORIGINS", "WATCH_DATA_FILES",
	} {
		t.Setenv(key, "")
	}
	dataDir := t.TempDir()

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-data-path", dataDir,
		"-env-file", filepath.Join(dataDir, "missing.env"),
	})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, dataDir, cfg.Storage.DataPath)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.WatchFiles)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "https://graphql.anilist.co", cfg.Catalog.URL)
	assert.Equal(t, 90, cfg.Catalog.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Search.MinQueryLength)
	assert.True(t, cfg.Covers.Enabled)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, filepath.Join(dataDir, "covers"), cfg.CoversPath())
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("LIBRARY_BACKEND", "sqlite")
	t.Setenv("SEARCH_MIN_QUERY_LENGTH", "2")
	t.Setenv("CATALOG_TIMEOUT", "5s")
	dataDir := t.TempDir()

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-data-path", dataDir,
		"-library-backend", "badger",
		"-env-file", filepath.Join(dataDir, "missing.env"),
	})
	require.NoError(t, err)

	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("CATALOG_TIMEOUT", "soon")
	dataDir := t.TempDir()

	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-data-path", dataDir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_TIMEOUT")
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty uses default", input: "", want: filepath.Join(homeDir, "iMangarr", "data")},
		{name: "tilde", input: "~/manga", want: filepath.Join(homeDir, "manga")},
		{name: "absolute", input: "/srv/imangarr", want: "/srv/imangarr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Storage: StorageConfig{DataPath: tt.input}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.want, cfg.Storage.DataPath)
		})
	}

	cfg := &Config{Storage: StorageConfig{DataPath: "relative/data"}}
	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Storage.DataPath))
}

func TestResolver(t *testing.T) {
	t.Setenv("IMANGARR_TEST_KEY", "env-value")
	t.Setenv("IMANGARR_BOOL", "YES")
	t.Setenv("IMANGARR_INT", " 42 ")
	flagValue, empty := "flag-value", ""

	var r resolver
	assert.Equal(t, "flag-value", r.str(&flagValue, "IMANGARR_TEST_KEY", "default"))
	assert.Equal(t, "env-value", r.str(&empty, "IMANGARR_TEST_KEY", "default"))
	assert.Equal(t, "default", r.str(nil, "IMANGARR_MISSING_KEY", "default"))

	off := "off"
	assert.True(t, r.boolean(nil, "IMANGARR_BOOL", false))
	assert.False(t, r.boolean(&off, "IMANGARR_BOOL", true))
	assert.True(t, r.boolean(nil, "IMANGARR_UNSET_BOOL", true))
	assert.Equal(t, 42, r.integer(nil, "IMANGARR_INT", 1))
	assert.Equal(t, 7*time.Second, r.duration(nil, "IMANGARR_UNSET_DURATION", 7*time.Second))
	assert.Empty(t, r.errs)
}

func TestResolver_CollectsParseErrors(t *testing.T) {
	t.Setenv("IMANGARR_BAD_INT", "many")
	t.Setenv("IMANGARR_BAD_BOOL", "maybe")

	var r resolver
	assert.Equal(t, 1, r.integer(nil, "IMANGARR_BAD_INT", 1))
	assert.True(t, r.boolean(nil, "IMANGARR_BAD_BOOL", true))
	require.Len(t, r.errs, 2)
	assert.Contains(t, r.errs[0].Error(), "IMANGARR_BAD_INT")
	assert.Contains(t, r.errs[1].Error(), "IMANGARR_BAD_BOOL")
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("SEARCH_MIN_QUERY_LENGTH", "three")
	dataDir := t.TempDir()

	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-data-path", dataDir,
		"-env-file", filepath.Join(dataDir, "missing.env"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_MIN_QUERY_LENGTH")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# iMangarr
IMANGARR_A=staging

IMANGARR_B="quoted value"
  IMANGARR_C  =  'single'
IMANGARR_KEEP=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("IMANGARR_A", "")
	t.Setenv("IMANGARR_B", "")
	t.Setenv("IMANGARR_C", "")
	t.Setenv("IMANGARR_KEEP", "from-env")

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("IMANGARR_A"))
	assert.Equal(t, "quoted value", os.Getenv("IMANGARR_B"))
	assert.Equal(t, "single", os.Getenv("IMANGARR_C"))
	assert.Equal(t, "from-env", os.Getenv("IMANGARR_KEEP"))
}

func TestLoadEnvFile_Errors(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GOOD=1\nNO EQUALS HERE\n"), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format at line 2")

	assert.Error(t, loadEnvFile("/nonexistent/.env"))
}
