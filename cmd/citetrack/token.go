package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/config"
	"github.com/mcalpine/citetrack/internal/store"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the stored ADS API token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store an ADS API token in the local database",
	Long: `Store an ADS API token in the local database.

The token is read from https://ui.adsabs.harvard.edu/user/settings/token.
The ` + config.EnvToken + ` environment variable and the global config file
take precedence over the stored token.`,
	Args: cobra.ExactArgs(1),
	Run:  runTokenSet,
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which token would be used, masked",
	Args:  cobra.NoArgs,
	Run:   runTokenShow,
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenShowCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenSet(cmd *cobra.Command, args []string) {
	token := strings.TrimSpace(args[0])
	if token == "" {
		exitWithErrorf(ExitError, "token must be non-empty")
	}

	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	err = db.WithTx(func(tx *store.Tx) error {
		return tx.SetToken(token, time.Now())
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		fmt.Println("Token stored.")
		return
	}
	_ = outputJSON(map[string]string{"status": "stored"})
}

func runTokenShow(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	source := "database"
	token, err := resolveToken(db)
	if err != nil {
		exitWithError(err, ExitError)
	}
	if config.Token() != "" {
		source = "environment/config"
	}
	if token == "" {
		exitWithErrorf(ExitConfigError, "no token configured")
	}

	if humanOutput {
		fmt.Printf("%s (from %s)\n", maskToken(token), source)
		return
	}
	_ = outputJSON(map[string]string{"token": maskToken(token), "source": source})
}
