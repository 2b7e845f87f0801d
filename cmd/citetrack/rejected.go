package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/store"
)

var rejectedCmd = &cobra.Command{
	Use:   "rejected",
	Short: "Manage deep-check rejections",
}

var rejectedAuthorID int64

var rejectedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers rejected during deep checks",
	Args:  cobra.NoArgs,
	Run:   runRejectedList,
}

var rejectedClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget rejections so deep checks offer those papers again",
	Args:  cobra.NoArgs,
	Run:   runRejectedClear,
}

func init() {
	rejectedCmd.PersistentFlags().Int64Var(&rejectedAuthorID, "author-id", 0, "Scope to a single author")
	rejectedCmd.AddCommand(rejectedListCmd)
	rejectedCmd.AddCommand(rejectedClearCmd)
	rootCmd.AddCommand(rejectedCmd)
}

// RejectedResponse is one rejection in JSON output.
type RejectedResponse struct {
	AuthorID int64  `json:"author_id"`
	Bibcode  string `json:"bibcode"`
	Rejected string `json:"rejected_date"`
}

func runRejectedList(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var rejected []store.RejectedPaper
	err = db.WithTx(func(tx *store.Tx) error {
		var err error
		rejected, err = tx.ListRejected(rejectedAuthorID)
		return err
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		if len(rejected) == 0 {
			fmt.Println("No rejected papers.")
			return
		}
		for _, r := range rejected {
			fmt.Printf("%s (author %d, rejected %s)\n", r.Bibcode, r.AuthorID, r.RejectedDate.Format("2006-01-02"))
		}
		return
	}
	responses := make([]RejectedResponse, len(rejected))
	for i, r := range rejected {
		responses[i] = RejectedResponse{
			AuthorID: r.AuthorID,
			Bibcode:  r.Bibcode,
			Rejected: r.RejectedDate.Format("2006-01-02"),
		}
	}
	_ = outputJSON(responses)
}

func runRejectedClear(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var cleared int
	err = db.WithTx(func(tx *store.Tx) error {
		var err error
		cleared, err = tx.ClearRejected(rejectedAuthorID)
		return err
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		fmt.Printf("Cleared %d rejection(s).\n", cleared)
		return
	}
	_ = outputJSON(map[string]any{"status": "cleared", "count": cleared})
}
