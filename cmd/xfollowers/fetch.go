package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xfollowers/pkg/auth"
	"xfollowers/pkg/checkpoint"
	"xfollowers/pkg/collector"
	"xfollowers/pkg/config"
	apperrors "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ratelimit"
	"xfollowers/pkg/report"
	"xfollowers/pkg/twitter"
	"xfollowers/pkg/ui"
)

var (
	// fetch command flags
	fetchMax     int
	fetchFormat  string
	fetchOutput  string
	fetchDelay   time.Duration
	fetchAccount string
	resumeFetch  bool
	forceRestart bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [handle]",
	Short: "Collect followers through the X API",
	Long: `Collect the followers of an account through the X API v2, rank them by
follower count, and write the result as text and JSON files.

The followers endpoint requires a user access token with the follows.read
scope, obtained through the OAuth authorization flow, and an elevated API
access tier. Credentials come from stored accounts ('xfollowers auth login'),
environment variables (TWITTER_BEARER_TOKEN, TWITTER_CLIENT_ID,
TWITTER_CLIENT_SECRET) or the config file.

Anything not given on the command line is asked interactively. Interrupting
a run with Ctrl-C keeps what was collected so far and writes a checkpoint
the next run can resume from.`,
	Example: `  # Interactive
  xfollowers fetch

  # Collect up to 500 followers of @someone, JSON only
  xfollowers fetch someone --max 500 --format json

  # Resume an interrupted collection
  xfollowers fetch someone --resume`,
	Args: cobra.MaximumNArgs(1),
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchMax, "max", "m", 0, "maximum followers to collect (0 = all)")
	fetchCmd.Flags().StringVarP(&fetchFormat, "format", "f", "", "output format: text, json or both")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output directory for result files")
	fetchCmd.Flags().DurationVar(&fetchDelay, "delay", 0, "pause between API pages (default 1s)")
	fetchCmd.Flags().StringVarP(&fetchAccount, "account", "a", "", "use specific stored account")
	fetchCmd.Flags().BoolVar(&resumeFetch, "resume", false, "resume from last checkpoint")
	fetchCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "ignore an existing checkpoint and start over")
}

func runFetch(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit(map[string]interface{}{
		"output":     fetchOutput,
		"formats":    fetchFormat,
		"page-delay": fetchDelay,
		"log-level":  logLevel,
	})

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("follower collection starting")

	applyStoredAccount(cfg, fetchAccount)

	if err := cfg.ValidateAPI(); err != nil {
		ui.PrintError("Missing API credentials", err.Error())
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  xfollowers auth login")
		fmt.Println("\nOr export them:")
		fmt.Println("  export TWITTER_BEARER_TOKEN=...")
		fmt.Println("  export TWITTER_CLIENT_ID=...")
		fmt.Println("  export TWITTER_CLIENT_SECRET=...")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompter := ui.NewPrompter()
	handle, maxFollowers, formats := collectRunParameters(prompter, args, fetchMax, fetchFormat, 0)

	limiter := ratelimit.New(cfg.Collect.LimiterStrategy, cfg.Collect.RequestsPerMinute)
	client := twitter.NewClient(cfg.Twitter.BearerToken, limiter, log)
	client.SetBaseURL(cfg.Twitter.APIBaseURL)
	client.SetPageSize(cfg.Collect.PageSize)

	if err := ensureUserToken(ctx, cfg, client); err != nil {
		ui.PrintError("Authorization failed", err.Error())
		os.Exit(1)
	}

	// Checkpoint handling
	cpManager, err := checkpoint.NewManager(handle)
	if err != nil {
		log.WithError(err).Warn("checkpoints unavailable, continuing without")
	}

	var seed []models.Follower
	var sourceOpts []twitter.SourceOption
	var cp *checkpoint.Checkpoint

	if cpManager != nil && forceRestart {
		_ = cpManager.Delete()
	}
	if cpManager != nil && cpManager.Exists() {
		resume := resumeFetch
		if !resume {
			if info, err := cpManager.Info(); err == nil && info != nil {
				ui.PrintInfo("Found checkpoint", fmt.Sprintf("%v followers collected, last updated %v ago",
					info["collected"], info["age"].(time.Duration).Round(time.Second)))
			}
			resume, _ = prompter.Confirm("Resume the interrupted collection?")
		}
		if resume {
			cp, err = cpManager.Load()
			if err != nil {
				ui.PrintWarning("Checkpoint unreadable, starting over", err.Error())
			} else if cp != nil {
				seed = cp.Collected
				sourceOpts = append(sourceOpts, twitter.WithCursor(cp.Cursor))
			}
		} else {
			_ = cpManager.Delete()
		}
	}

	ui.PrintInfo("Subject", "@"+handle)
	ui.PrintHighlight("Collecting followers...")

	src, err := twitter.NewPageSource(ctx, client, handle, sourceOpts...)
	if err != nil {
		exitOnFatal(err, handle)
	}

	pages := 0
	coll := collector.New(src, collector.Options{
		Max:        maxFollowers,
		CycleDelay: cfg.Collect.PageDelay,
		Seed:       seed,
		OnProgress: func(total int) {
			pages++
			ui.PrintInfo("Progress", fmt.Sprintf("%d unique followers", total))
		},
		Logger: log,
	})

	rs, stopErr := coll.Collect(ctx, handle)

	if stopErr != nil {
		if rs.Total() == 0 {
			ui.PrintError("Source unreachable", stopErr.Error())
			os.Exit(1)
		}

		saveCheckpoint(cpManager, cp, handle, src, pages, rs.Followers)
		ui.PrintWarning("Collection stopped early", stopErr.Error())
		ui.PrintWarning(fmt.Sprintf("Keeping the %d followers collected so far", rs.Total()))
	} else if cpManager != nil {
		_ = cpManager.Delete()
	}

	finishRun(cfg, rs, formats)
}

// collectRunParameters fills in handle, cap and format from args, flags and
// interactive prompts. capWarn, when positive, warns above that cap instead
// of the prompter's default.
func collectRunParameters(prompter *ui.Prompter, args []string, maxFlag int, formatFlag string, capWarn int) (string, int, []report.Format) {
	var handle string
	if len(args) > 0 {
		handle = twitter.SanitizeHandle(args[0])
	}
	for handle == "" || !twitter.IsValidHandle(handle) {
		if handle != "" {
			ui.PrintWarning("Invalid handle", handle)
		}
		h, err := prompter.Handle()
		if err != nil {
			ui.PrintError("Failed to read handle", err.Error())
			os.Exit(1)
		}
		handle = twitter.SanitizeHandle(h)
	}

	maxFollowers := maxFlag
	if maxFollowers <= 0 {
		n, err := prompter.MaxFollowers()
		if err != nil {
			ui.PrintError("Failed to read cap", err.Error())
			os.Exit(1)
		}
		maxFollowers = n
	}
	if capWarn > 0 && maxFollowers > capWarn {
		ui.PrintWarning(fmt.Sprintf("Collecting more than %d followers through the browser is slow", capWarn))
	}

	formatStr := formatFlag
	if formatStr == "" {
		f, err := prompter.OutputFormat()
		if err != nil {
			ui.PrintError("Failed to read format", err.Error())
			os.Exit(1)
		}
		formatStr = f
	}
	formats, err := report.ParseFormats(formatStr)
	if err != nil {
		ui.PrintError("Invalid format", err.Error())
		os.Exit(1)
	}

	return handle, maxFollowers, formats
}

// applyStoredAccount overlays stored credentials onto the config, preferring
// a named account, then whatever the credential manager considers default.
// Config values already present win.
func applyStoredAccount(cfg *config.Config, accountName string) {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'xfollowers auth list' to see stored accounts")
			os.Exit(1)
		}
	} else {
		account, _ = manager.RetrieveDefault()
	}
	if account == nil {
		return
	}

	if cfg.Twitter.BearerToken == "" {
		cfg.Twitter.BearerToken = account.BearerToken
	}
	if cfg.Twitter.ClientID == "" {
		cfg.Twitter.ClientID = account.ClientID
	}
	if cfg.Twitter.ClientSecret == "" {
		cfg.Twitter.ClientSecret = account.ClientSecret
	}
	if cfg.Twitter.Username == "" {
		cfg.Twitter.Username = account.Username
	}
	if cfg.Twitter.Password == "" {
		cfg.Twitter.Password = account.Password
	}

	if account.Label != "" {
		ui.PrintInfo("Using account", account.Label)
	}
}

// ensureUserToken obtains a user access token through the authorization flow
// when app credentials for it are configured. Without them the client keeps
// using the bearer token alone.
func ensureUserToken(ctx context.Context, cfg *config.Config, client *twitter.Client) error {
	if cfg.Twitter.ClientID == "" {
		return nil
	}

	authorizer := auth.NewAuthorizer(cfg.Twitter.ClientID, cfg.Twitter.ClientSecret)
	token, err := authorizer.Authorize(ctx)
	if err != nil {
		return err
	}

	client.SetAccessToken(token.AccessToken)
	ui.PrintSuccess("Authorized with user context")
	return nil
}

// exitOnFatal reports a fatal lookup or auth error with guidance and exits.
func exitOnFatal(err error, handle string) {
	e, ok := apperrors.As(err)
	if !ok {
		ui.PrintError("Collection failed", err.Error())
		os.Exit(1)
	}

	switch e.Reason {
	case apperrors.ReasonNotFound:
		ui.PrintError("User not found", "@"+handle)
	case apperrors.ReasonUnauthorized:
		ui.PrintError("Authentication rejected", e.Message)
		fmt.Println("\nCheck your bearer token, or run 'xfollowers auth login' again.")
	case apperrors.ReasonTierInsufficient:
		ui.PrintError("API access tier too low", e.Message)
		fmt.Println("\nFollower data is only available on elevated API tiers.")
		fmt.Println("The browser variant works without one:")
		fmt.Printf("  xfollowers scrape %s\n", handle)
	default:
		ui.PrintError("Collection failed", e.Message)
	}
	os.Exit(1)
}

// saveCheckpoint persists the partial state of an interrupted collection.
func saveCheckpoint(mgr *checkpoint.Manager, cp *checkpoint.Checkpoint, handle string, src *twitter.PageSource, pages int, collected []models.Follower) {
	if mgr == nil {
		return
	}
	if cp == nil {
		var err error
		cp, err = mgr.Create(handle, src.UserID())
		if err != nil {
			ui.PrintWarning("Could not save checkpoint", err.Error())
			return
		}
	}
	if err := mgr.Update(cp, src.Cursor(), cp.Pages+pages, collected); err != nil {
		ui.PrintWarning("Could not save checkpoint", err.Error())
		return
	}
	fmt.Println("\nRun the same command with --resume to pick up where this left off.")
}

// finishRun previews and writes a ranked result set. Partial results count
// as success.
func finishRun(cfg *config.Config, rs *models.ResultSet, formats []report.Format) {
	if rs.Total() == 0 {
		ui.PrintInfo("Result", fmt.Sprintf("no followers found for @%s", rs.Subject))
		return
	}

	ui.PrintPreview(rs, cfg.Output.TopN)

	writer, err := report.NewWriter(cfg.Output.Directory, nil)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err.Error())
		os.Exit(1)
	}

	paths, err := writer.Write(rs, formats)
	if err != nil {
		ui.PrintError("Failed to write results", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Collected %d followers of @%s", rs.Total(), rs.Subject))
	for _, path := range paths {
		ui.PrintInfo("Wrote", path)
	}
}

// loadConfigOrExit loads configuration, filtering empty flag values.
func loadConfigOrExit(flags map[string]interface{}) *config.Config {
	for key, value := range flags {
		switch v := value.(type) {
		case string:
			if v == "" {
				delete(flags, key)
			}
		case time.Duration:
			if v <= 0 {
				delete(flags, key)
			}
		case int:
			if v <= 0 {
				delete(flags, key)
			}
		}
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		if strings.Contains(err.Error(), "validation") {
			fmt.Println("\nRun 'xfollowers config validate' for details.")
		}
		os.Exit(1)
	}
	return cfg
}
