package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xfollowers/pkg/config"
	"xfollowers/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the xfollowers configuration file.

Configuration is read from (in order of precedence): command line flags,
environment variables, the config file, built-in defaults. The config file
is looked up at .xfollowers.yaml in the current directory and at
~/.config/xfollowers/config.yaml.`,
}

// configInitCmd writes an example config file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Run:   runConfigInit,
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

// configValidateCmd checks the configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# xfollowers configuration

twitter:
  # API credentials for 'xfollowers fetch'. Prefer 'xfollowers auth login'
  # or environment variables over putting secrets in this file.
  # bearer_token: ""
  # client_id: ""
  # client_secret: ""

  # Site login used to sign in during 'xfollowers scrape'.
  # username: ""
  # password: ""

browser:
  # Hosted automation service for 'xfollowers scrape'. Set local: true to
  # drive a Chrome on this machine instead.
  local: false
  headless: true
  # automation_api_key: ""
  # automation_project_id: ""
  # model_api_key: ""
  model_name: gpt-4o-mini

collect:
  page_size: 100
  page_delay: 1s
  scroll_delay: 2s
  max_scrolls: 50
  requests_per_minute: 60
  limiter_strategy: bucket

output:
  directory: output
  formats: both
  top_n: 20

logging:
  level: info
  # file: xfollowers.log
`

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			ui.PrintError("Cannot determine home directory", err.Error())
			os.Exit(1)
		}
		path = filepath.Join(home, ".config", "xfollowers", "config.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Config file already exists", path)
		fmt.Println("\nRemove it first, or pass --config with a different path.")
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		ui.PrintError("Failed to create config directory", err.Error())
		os.Exit(1)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to write config file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Created " + path)
	fmt.Println("\nEdit the file, then check it with:")
	fmt.Println("  xfollowers config validate")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Never print secrets.
	cfg.Twitter.BearerToken = redact(cfg.Twitter.BearerToken)
	cfg.Twitter.ClientSecret = redact(cfg.Twitter.ClientSecret)
	cfg.Twitter.Password = redact(cfg.Twitter.Password)
	cfg.Browser.AutomationAPIKey = redact(cfg.Browser.AutomationAPIKey)
	cfg.Browser.ModelAPIKey = redact(cfg.Browser.ModelAPIKey)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration invalid", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")

	if err := cfg.ValidateAPI(); err != nil {
		ui.PrintWarning("fetch not usable yet", err.Error())
	} else {
		ui.PrintInfo("fetch", "API credentials present")
	}
	if err := cfg.ValidateBrowser(); err != nil {
		ui.PrintWarning("scrape not usable yet", err.Error())
	} else {
		ui.PrintInfo("scrape", "browser automation configured")
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
