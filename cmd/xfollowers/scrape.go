package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"xfollowers/pkg/browser"
	"xfollowers/pkg/collector"
	"xfollowers/pkg/config"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/ui"
)

const browserCapWarn = 1000

var (
	// scrape command flags
	scrapeMax     int
	scrapeFormat  string
	scrapeOutput  string
	scrapeScrolls int
	scrapeLocal   bool
	scrapeAccount string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [handle]",
	Short: "Collect followers by driving a real browser",
	Long: `Collect the followers of an account by opening its followers page in a
browser, scrolling through the list and reading the rendered profiles.
No API tier is required.

By default the page is driven through a hosted automation service
(BROWSERBASE_API_KEY, BROWSERBASE_PROJECT_ID and MODEL_API_KEY). With
--local a Chrome instance on this machine is driven instead and no
service credentials are needed.

Site login credentials, when stored or configured, are used to sign in
first; many followers lists are only visible to logged-in users.`,
	Example: `  # Hosted browser
  xfollowers scrape someone

  # Local Chrome, at most 200 followers
  xfollowers scrape someone --local --max 200`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&scrapeMax, "max", "m", 0, "maximum followers to collect (0 = all)")
	scrapeCmd.Flags().StringVarP(&scrapeFormat, "format", "f", "", "output format: text, json or both")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "output directory for result files")
	scrapeCmd.Flags().IntVar(&scrapeScrolls, "max-scrolls", 0, "scroll limit before giving up (default 50)")
	scrapeCmd.Flags().BoolVar(&scrapeLocal, "local", false, "drive a local Chrome instead of the hosted service")
	scrapeCmd.Flags().StringVarP(&scrapeAccount, "account", "a", "", "use specific stored account")
}

func runScrape(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit(map[string]interface{}{
		"output":      scrapeOutput,
		"formats":     scrapeFormat,
		"max-scrolls": scrapeScrolls,
		"local":       scrapeLocal,
		"log-level":   logLevel,
	})

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("browser collection starting")

	applyStoredAccount(cfg, scrapeAccount)

	if err := cfg.ValidateBrowser(); err != nil {
		ui.PrintError("Missing automation credentials", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompter := ui.NewPrompter()
	handle, maxFollowers, formats := collectRunParameters(prompter, args, scrapeMax, scrapeFormat, browserCapWarn)

	session, err := openSession(ctx, cfg, log)
	if err != nil {
		ui.PrintError("Failed to start browser session", err.Error())
		os.Exit(1)
	}
	defer func() {
		// ctx is already cancelled after an interrupt; close with a fresh one.
		if err := session.Close(context.Background()); err != nil {
			log.WithError(err).Warn("failed to close browser session")
		}
	}()

	if cfg.Twitter.Username != "" && cfg.Twitter.Password != "" {
		ui.PrintInfo("Logging in", "@"+cfg.Twitter.Username)
		if err := browser.Login(ctx, session, cfg.Twitter.Username, cfg.Twitter.Password); err != nil {
			ui.PrintError("Login failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Logged in")
	} else {
		ui.PrintWarning("No site login configured; the followers list may be hidden")
	}

	ui.PrintInfo("Subject", "@"+handle)
	ui.PrintHighlight("Scrolling through followers...")

	src, err := browser.NewScrollSource(ctx, session, handle, cfg.Collect.MaxScrolls)
	if err != nil {
		exitOnFatal(err, handle)
	}

	coll := collector.New(src, collector.Options{
		Max:        maxFollowers,
		CycleDelay: cfg.Collect.ScrollDelay,
		OnProgress: func(total int) {
			ui.PrintInfo("Progress", fmt.Sprintf("%d unique followers", total))
		},
		Logger: log,
	})

	rs, stopErr := coll.Collect(ctx, handle)

	if stopErr != nil {
		if rs.Total() == 0 {
			ui.PrintError("Page unreadable", stopErr.Error())
			os.Exit(1)
		}
		ui.PrintWarning("Collection stopped early", stopErr.Error())
		ui.PrintWarning(fmt.Sprintf("Keeping the %d followers collected so far", rs.Total()))
	}

	finishRun(cfg, rs, formats)
}

// openSession starts either a hosted automation session or a local Chrome,
// depending on configuration.
func openSession(ctx context.Context, cfg *config.Config, log logger.Logger) (browser.Session, error) {
	if cfg.Browser.Local {
		ui.PrintInfo("Browser", "local Chrome")
		return browser.NewLocalSession(cfg.Browser.Headless, log)
	}

	ui.PrintInfo("Browser", "hosted automation service")
	return browser.NewRemoteSession(ctx, browser.RemoteConfig{
		BaseURL:     cfg.Browser.AutomationBaseURL,
		APIKey:      cfg.Browser.AutomationAPIKey,
		ProjectID:   cfg.Browser.AutomationProjectID,
		ModelAPIKey: cfg.Browser.ModelAPIKey,
		ModelName:   cfg.Browser.ModelName,
	}, log)
}
