package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the follower fetcher.
type Config struct {
	// Twitter API and login credentials
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Browser automation service settings (scrape variant)
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Collection loop settings
	Collect CollectConfig `yaml:"collect" json:"collect"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds Twitter credentials. Every field is optional; which
// ones are required depends on the active variant.
type TwitterConfig struct {
	BearerToken  string `yaml:"bearer_token" json:"bearer_token"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	APIBaseURL   string `yaml:"api_base_url" json:"api_base_url"`
}

// BrowserConfig holds settings for the rendered-page variant.
type BrowserConfig struct {
	AutomationAPIKey    string `yaml:"automation_api_key" json:"automation_api_key"`
	AutomationProjectID string `yaml:"automation_project_id" json:"automation_project_id"`
	AutomationBaseURL   string `yaml:"automation_base_url" json:"automation_base_url"`
	ModelAPIKey         string `yaml:"model_api_key" json:"model_api_key"`
	ModelName           string `yaml:"model_name" json:"model_name"`
	Local               bool   `yaml:"local" json:"local"`
	Headless            bool   `yaml:"headless" json:"headless"`
}

// CollectConfig holds pipeline loop settings.
type CollectConfig struct {
	PageSize          int           `yaml:"page_size" json:"page_size"`
	PageDelay         time.Duration `yaml:"page_delay" json:"page_delay"`
	ScrollDelay       time.Duration `yaml:"scroll_delay" json:"scroll_delay"`
	MaxScrolls        int           `yaml:"max_scrolls" json:"max_scrolls"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	LimiterStrategy   string        `yaml:"limiter_strategy" json:"limiter_strategy"`
}

// OutputConfig holds result file settings.
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Formats   string `yaml:"formats" json:"formats"`
	TopN      int    `yaml:"top_n" json:"top_n"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			APIBaseURL: "https://api.twitter.com",
		},
		Browser: BrowserConfig{
			AutomationBaseURL: "https://api.stagehand.browserbase.com/v1",
			ModelName:         "gpt-4o-mini",
			Headless:          true,
		},
		Collect: CollectConfig{
			PageSize:          100,
			PageDelay:         time.Second,
			ScrollDelay:       2 * time.Second,
			MaxScrolls:        50,
			RequestsPerMinute: 60,
			LimiterStrategy:   "bucket",
		},
		Output: OutputConfig{
			Directory: ".",
			Formats:   "both",
			TopN:      20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides configuration from environment variables. Credential
// names match the .env conventions of the original scripts so existing env
// files keep working.
func (c *Config) LoadFromEnv() error {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("TWITTER_BEARER_TOKEN", &c.Twitter.BearerToken)
	envStr("TWITTER_CLIENT_ID", &c.Twitter.ClientID)
	envStr("TWITTER_CLIENT_SECRET", &c.Twitter.ClientSecret)
	envStr("TWITTER_USERNAME", &c.Twitter.Username)
	envStr("TWITTER_PASSWORD", &c.Twitter.Password)

	envStr("BROWSERBASE_API_KEY", &c.Browser.AutomationAPIKey)
	envStr("BROWSERBASE_PROJECT_ID", &c.Browser.AutomationProjectID)
	envStr("MODEL_API_KEY", &c.Browser.ModelAPIKey)
	envStr("XFOLLOWERS_MODEL_NAME", &c.Browser.ModelName)

	envStr("XFOLLOWERS_OUTPUT_DIR", &c.Output.Directory)
	envStr("XFOLLOWERS_FORMATS", &c.Output.Formats)
	envStr("XFOLLOWERS_LOG_LEVEL", &c.Logging.Level)
	envStr("XFOLLOWERS_LOG_FILE", &c.Logging.File)

	if rpm := os.Getenv("XFOLLOWERS_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.Collect.RequestsPerMinute = val
		}
	}
	if d := os.Getenv("XFOLLOWERS_PAGE_DELAY"); d != "" {
		if val, err := time.ParseDuration(d); err == nil && val >= 0 {
			c.Collect.PageDelay = val
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations and is not an error when nothing is found.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches standard locations in order of precedence.
func (c *Config) findConfigFile() string {
	locations := []string{
		".xfollowers.yaml",
		".xfollowers.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "xfollowers", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".xfollowers.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks settings shared by both variants.
func (c *Config) Validate() error {
	var errs []error

	if c.Collect.PageSize <= 0 || c.Collect.PageSize > 1000 {
		errs = append(errs, errors.New("page size must be between 1 and 1000"))
	}
	if c.Collect.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}
	if c.Collect.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max scrolls must be positive"))
	}
	if c.Collect.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if s := strings.ToLower(c.Collect.LimiterStrategy); s != "bucket" && s != "window" {
		errs = append(errs, errors.New("limiter strategy must be bucket or window"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch strings.ToLower(c.Output.Formats) {
	case "text", "json", "both":
	default:
		errs = append(errs, errors.New("output formats must be text, json or both"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateAPI checks the credentials required by the paginated API variant.
func (c *Config) ValidateAPI() error {
	var errs []error

	if c.Twitter.BearerToken == "" {
		errs = append(errs, errors.New("bearer token is required (TWITTER_BEARER_TOKEN)"))
	}
	if c.Twitter.ClientID == "" || c.Twitter.ClientSecret == "" {
		errs = append(errs, errors.New("client ID and secret are required for the authorization exchange (TWITTER_CLIENT_ID, TWITTER_CLIENT_SECRET)"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateBrowser checks the credentials required by the rendered-page
// variant. The local driver needs only the login pair.
func (c *Config) ValidateBrowser() error {
	var errs []error

	if c.Twitter.Username == "" || c.Twitter.Password == "" {
		errs = append(errs, errors.New("login credentials are required (TWITTER_USERNAME, TWITTER_PASSWORD)"))
	}
	if !c.Browser.Local {
		if c.Browser.AutomationAPIKey == "" {
			errs = append(errs, errors.New("automation API key is required (BROWSERBASE_API_KEY)"))
		}
		if c.Browser.AutomationProjectID == "" {
			errs = append(errs, errors.New("automation project ID is required (BROWSERBASE_PROJECT_ID)"))
		}
		if c.Browser.ModelAPIKey == "" {
			errs = append(errs, errors.New("model API key is required (MODEL_API_KEY)"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFlags merges command line flag values into the configuration.
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if dir, ok := flags["output"].(string); ok && dir != "" {
		c.Output.Directory = dir
	}
	if formats, ok := flags["formats"].(string); ok && formats != "" {
		c.Output.Formats = formats
	}
	if delay, ok := flags["page-delay"].(time.Duration); ok && delay >= 0 {
		c.Collect.PageDelay = delay
	}
	if scrolls, ok := flags["max-scrolls"].(int); ok && scrolls > 0 {
		c.Collect.MaxScrolls = scrolls
	}
	if local, ok := flags["local"].(bool); ok && local {
		c.Browser.Local = true
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Load builds the configuration from all sources in precedence order:
// flags > environment (including .env files) > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xfollowers.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
