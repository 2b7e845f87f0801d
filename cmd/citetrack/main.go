// Package main provides the citetrack CLI entry point.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verboseOutput enables debug logging
var verboseOutput bool

func main() {
	config.LoadDotenv()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citetrack",
	Short: "Track citations to your papers via the ADS API",
	Long: `citetrack keeps a local snapshot of the publications and citations of
the authors you track, and reconciles it against fresh NASA ADS query
results on demand.

All commands output JSON by default for easy scripting; pass --human
for readable tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseOutput {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verboseOutput, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Version = Version
}
