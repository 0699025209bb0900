package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xfollowers/pkg/auth"
	"xfollowers/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
	Long: `Manage Twitter credentials for the fetch and scrape commands.

Credentials are stored in the system keyring when one is available, and in
an encrypted file under your config directory otherwise. Multiple accounts
can be stored under different labels.`,
}

// authLoginCmd stores a new account
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials for an account",
	Long: `Interactively store API and site credentials under a label.

All fields are optional, but at least a bearer token (for the fetch
command) or a site username and password (for logging in during scrape)
must be given.`,
	Run: runAuthLogin,
}

// authListCmd lists stored accounts
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Run:   runAuthList,
}

// authRemoveCmd removes stored accounts
var authRemoveCmd = &cobra.Command{
	Use:   "remove [label]",
	Short: "Remove a stored account",
	Long: `Remove the account stored under the given label, or every stored
account with --all.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthRemove,
}

// authGuideCmd prints the credential walkthrough
var authGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to obtain API credentials",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowCredentialGuide()
	},
}

var removeAll bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
	authCmd.AddCommand(authGuideCmd)

	authRemoveCmd.Flags().BoolVar(&removeAll, "all", false, "remove every stored account")
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Credential storage unavailable", err.Error())
		os.Exit(1)
	}

	prompter := ui.NewPrompter()
	auth.ShowQuickCredentialGuide()

	label := promptLine(prompter, "Label for this account [default]: ")
	if label == "" {
		label = "default"
	}

	if existing, err := manager.Retrieve(label); err == nil && existing != nil {
		ok, _ := prompter.Confirm(fmt.Sprintf("An account named %q already exists. Overwrite it?", label))
		if !ok {
			ui.PrintInfo("Cancelled", "existing account kept")
			return
		}
	}

	account := &auth.Account{Label: label}

	fmt.Println("\nAPI credentials (for 'xfollowers fetch'; leave blank to skip):")
	account.BearerToken, err = prompter.Password("Bearer token")
	exitOnInputError(err)
	account.ClientID = promptLine(prompter, "OAuth client ID: ")
	if account.ClientID != "" {
		account.ClientSecret, err = prompter.Password("OAuth client secret")
		exitOnInputError(err)
	}

	fmt.Println("\nSite login (for signing in during 'xfollowers scrape'; leave blank to skip):")
	account.Username = strings.TrimPrefix(promptLine(prompter, "Username: @"), "@")
	if account.Username != "" {
		account.Password, err = prompter.Password("Password")
		exitOnInputError(err)
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Stored account %q", label))
	printAccount(auth.SanitizeAccount(account))
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Credential storage unavailable", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("Accounts", "none stored yet; run 'xfollowers auth login'")
		return
	}

	for _, account := range accounts {
		fmt.Printf("\n%s\n", account.Label)
		printAccount(auth.SanitizeAccount(account))
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Credential storage unavailable", err.Error())
		os.Exit(1)
	}

	prompter := ui.NewPrompter()

	if removeAll {
		ok, _ := prompter.Confirm("Remove ALL stored accounts?")
		if !ok {
			ui.PrintInfo("Cancelled", "nothing removed")
			return
		}
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove accounts", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Removed all stored accounts")
		return
	}

	if len(args) == 0 {
		ui.PrintError("Missing label", "usage: xfollowers auth remove <label>")
		os.Exit(1)
	}

	label := args[0]
	if err := manager.Delete(label); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Removed account %q", label))
}

// printAccount renders a sanitized account, skipping empty fields.
func printAccount(account *auth.Account) {
	show := func(name, value string) {
		if value != "" {
			fmt.Printf("  %-14s %s\n", name+":", value)
		}
	}
	show("Bearer token", account.BearerToken)
	show("Client ID", account.ClientID)
	show("Client secret", account.ClientSecret)
	show("Username", account.Username)
	show("Password", account.Password)
	if !account.LastModified.IsZero() {
		fmt.Printf("  %-14s %s\n", "Updated:", account.LastModified.Format("2006-01-02 15:04"))
	}
}

// promptLine asks a free-form question; empty answers are allowed.
func promptLine(prompter *ui.Prompter, question string) string {
	answer, err := prompter.Ask(question)
	exitOnInputError(err)
	return answer
}

func exitOnInputError(err error) {
	if err != nil {
		ui.PrintError("Failed to read input", err.Error())
		os.Exit(1)
	}
}
