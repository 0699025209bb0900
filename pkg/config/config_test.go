package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.twitter.com", cfg.Twitter.APIBaseURL)
	assert.Equal(t, 100, cfg.Collect.PageSize)
	assert.Equal(t, time.Second, cfg.Collect.PageDelay)
	assert.Equal(t, 2*time.Second, cfg.Collect.ScrollDelay)
	assert.Equal(t, 50, cfg.Collect.MaxScrolls)
	assert.Equal(t, "both", cfg.Output.Formats)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Browser.Headless)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TWITTER_BEARER_TOKEN", "bearer-abc")
	t.Setenv("TWITTER_CLIENT_ID", "client-id")
	t.Setenv("BROWSERBASE_API_KEY", "bb-key")
	t.Setenv("XFOLLOWERS_REQUESTS_PER_MINUTE", "30")
	t.Setenv("XFOLLOWERS_PAGE_DELAY", "500ms")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "bearer-abc", cfg.Twitter.BearerToken)
	assert.Equal(t, "client-id", cfg.Twitter.ClientID)
	assert.Equal(t, "bb-key", cfg.Browser.AutomationAPIKey)
	assert.Equal(t, 30, cfg.Collect.RequestsPerMinute)
	assert.Equal(t, 500*time.Millisecond, cfg.Collect.PageDelay)
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("XFOLLOWERS_REQUESTS_PER_MINUTE", "not-a-number")
	t.Setenv("XFOLLOWERS_PAGE_DELAY", "later")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 60, cfg.Collect.RequestsPerMinute)
	assert.Equal(t, time.Second, cfg.Collect.PageDelay)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
twitter:
  bearer_token: file-token
collect:
  page_size: 50
  max_scrolls: 25
output:
  directory: /tmp/results
  formats: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file-token", cfg.Twitter.BearerToken)
	assert.Equal(t, 50, cfg.Collect.PageSize)
	assert.Equal(t, 25, cfg.Collect.MaxScrolls)
	assert.Equal(t, "/tmp/results", cfg.Output.Directory)
	assert.Equal(t, "json", cfg.Output.Formats)
}

func TestLoadFromFileMissingPathIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "zero page size",
			mutate: func(c *Config) { c.Collect.PageSize = 0 },
			want:   "page size",
		},
		{
			name:   "negative page delay",
			mutate: func(c *Config) { c.Collect.PageDelay = -time.Second },
			want:   "page delay",
		},
		{
			name:   "zero max scrolls",
			mutate: func(c *Config) { c.Collect.MaxScrolls = 0 },
			want:   "max scrolls",
		},
		{
			name:   "bad limiter strategy",
			mutate: func(c *Config) { c.Collect.LimiterStrategy = "firehose" },
			want:   "limiter strategy",
		},
		{
			name:   "empty output directory",
			mutate: func(c *Config) { c.Output.Directory = "" },
			want:   "output directory",
		},
		{
			name:   "bad formats",
			mutate: func(c *Config) { c.Output.Formats = "xml" },
			want:   "formats",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "loud" },
			want:   "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAPI(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateAPI()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bearer token")
	assert.Contains(t, err.Error(), "client ID")

	cfg.Twitter.BearerToken = "b"
	cfg.Twitter.ClientID = "id"
	cfg.Twitter.ClientSecret = "secret"
	assert.NoError(t, cfg.ValidateAPI())
}

func TestValidateBrowser(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateBrowser()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login credentials")
	assert.Contains(t, err.Error(), "automation API key")

	cfg.Twitter.Username = "me"
	cfg.Twitter.Password = "pw"
	cfg.Browser.Local = true
	assert.NoError(t, cfg.ValidateBrowser(), "local driver needs no automation keys")

	cfg.Browser.Local = false
	cfg.Browser.AutomationAPIKey = "k"
	cfg.Browser.AutomationProjectID = "p"
	cfg.Browser.ModelAPIKey = "m"
	assert.NoError(t, cfg.ValidateBrowser())
}

func TestMergeFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeFlags(map[string]interface{}{
		"output":      "/data/out",
		"formats":     "text",
		"page-delay":  2 * time.Second,
		"max-scrolls": 10,
		"local":       true,
		"log-level":   "debug",
	})

	assert.Equal(t, "/data/out", cfg.Output.Directory)
	assert.Equal(t, "text", cfg.Output.Formats)
	assert.Equal(t, 2*time.Second, cfg.Collect.PageDelay)
	assert.Equal(t, 10, cfg.Collect.MaxScrolls)
	assert.True(t, cfg.Browser.Local)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Twitter.BearerToken = "saved-token"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "saved-token", loaded.Twitter.BearerToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
