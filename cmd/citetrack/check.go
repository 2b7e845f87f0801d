package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/tracker"
)

var (
	checkAuthorID       int64
	checkDeep           bool
	checkMaxRows        int
	checkNonInteractive bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reconcile the local snapshot against fresh ADS results",
	Long: `Query ADS for each tracked author, fold new publications and citations
into the local snapshot, and report what changed.

With --deep, also run a widened any-author query and review hits that the
first-author query misses. Deep-check decisions are remembered: rejected
papers are never offered again.

Examples:
  citetrack check
  citetrack check --author-id 1 --deep
  citetrack check --non-interactive`,
	Args: cobra.NoArgs,
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().Int64Var(&checkAuthorID, "author-id", 0, "Check a single author")
	checkCmd.Flags().BoolVar(&checkDeep, "deep", false, "Also run the any-author deep check")
	checkCmd.Flags().IntVar(&checkMaxRows, "max-rows", 0, "Maximum rows per ADS query")
	checkCmd.Flags().BoolVar(&checkNonInteractive, "non-interactive", false, "Never prompt; keep unmatched local entries and defer deep-check decisions")
	rootCmd.AddCommand(checkCmd)
}

// CheckSummary is the JSON output of a check run.
type CheckSummary struct {
	Authors []AuthorCheckSummary `json:"authors"`
}

// AuthorCheckSummary summarises one author's reconciliation.
type AuthorCheckSummary struct {
	AuthorID       int64    `json:"author_id"`
	Author         string   `json:"author"`
	NewPubs        int      `json:"new_publications"`
	UpdatedPubs    int      `json:"updated_publications"`
	RemovedPubs    int      `json:"removed_publications"`
	NewCitations   int      `json:"new_citations"`
	DeepCandidates int      `json:"deep_candidates,omitempty"`
	DeepAccepted   int      `json:"deep_accepted,omitempty"`
	DeepRejected   int      `json:"deep_rejected,omitempty"`
	Skipped        []string `json:"skipped_publications,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	client, err := newClient(db)
	if err != nil {
		exitWithError(err, ExitConfigError)
	}

	var prompter tracker.Prompter = &tracker.TerminalPrompter{In: os.Stdin, Out: os.Stderr}
	if checkNonInteractive {
		prompter = tracker.NonInteractivePrompter{}
	}

	// Progress goes to stderr in JSON mode so stdout stays parseable.
	var progress io.Writer = os.Stdout
	if !humanOutput {
		progress = os.Stderr
	}

	tr := tracker.New(db, client,
		tracker.WithPrompter(prompter),
		tracker.WithMaxRows(maxRowsOrDefault(checkMaxRows)),
		tracker.WithOutput(progress),
	)

	results, err := tr.CheckAll(context.Background(), checkAuthorID, checkDeep)
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		printCheckHuman(results)
		return
	}
	_ = outputJSON(buildCheckSummary(results))
}

func buildCheckSummary(results []tracker.AuthorResult) CheckSummary {
	summary := CheckSummary{Authors: []AuthorCheckSummary{}}
	for _, res := range results {
		s := AuthorCheckSummary{
			AuthorID:    res.Author.ID,
			Author:      res.Author.Name(),
			NewPubs:     len(res.Publications.New),
			UpdatedPubs: len(res.Publications.Updated),
			RemovedPubs: len(res.Publications.Removed),
			Skipped:     res.SkippedPublications,
		}
		for _, delta := range res.Citations {
			s.NewCitations += len(delta.New)
		}
		if res.Deep != nil {
			s.DeepCandidates = res.Deep.Candidates
			s.DeepAccepted = len(res.Deep.Accepted)
			s.DeepRejected = len(res.Deep.Rejected)
		}
		if res.Err != nil {
			s.Error = res.Err.Error()
		}
		summary.Authors = append(summary.Authors, s)
	}
	return summary
}

func printCheckHuman(results []tracker.AuthorResult) {
	for _, res := range results {
		fmt.Printf("\n%s:\n", res.Author.Name())
		if res.Err != nil {
			fmt.Printf("  check failed: %v\n", res.Err)
			continue
		}
		if !res.HasChanges() {
			fmt.Println("  No changes.")
			continue
		}
		for _, p := range res.Publications.New {
			fmt.Printf("  New publication: %s (%s)\n", truncateString(p.Title, ReportTitleMaxLen), p.Bibcode)
		}
		for _, p := range res.Publications.Updated {
			fmt.Printf("  Updated publication: %s (%s)\n", truncateString(p.Title, ReportTitleMaxLen), p.Bibcode)
		}
		for _, p := range res.Publications.Removed {
			fmt.Printf("  Removed publication: %s (%s)\n", truncateString(p.Title, ReportTitleMaxLen), p.Bibcode)
		}
		for _, delta := range res.Citations {
			if len(delta.New) == 0 && !verboseOutput {
				continue
			}
			if len(delta.New) > 0 {
				fmt.Printf("  %d new citation(s) to %s:\n", len(delta.New), truncateString(delta.Publication.Title, ReportTitleMaxLen))
				for _, c := range delta.New {
					fmt.Printf("    %s - %s\n", c.Bibcode, truncateString(c.Title, ReportTitleMaxLen))
				}
				if delta.Total > len(delta.New) {
					fmt.Printf("    (%d total citations on record at ADS)\n", delta.Total)
				}
			}
			if verboseOutput && len(delta.Updated) > 0 {
				fmt.Printf("  %d updated citation(s) to %s:\n", len(delta.Updated), truncateString(delta.Publication.Title, ReportTitleMaxLen))
				for _, c := range delta.Updated {
					fmt.Printf("    %s - %s\n", c.Bibcode, truncateString(c.Title, ReportTitleMaxLen))
				}
			}
		}
		if res.Deep != nil {
			fmt.Printf("  Deep check: %d candidate(s), %d accepted, %d rejected\n",
				res.Deep.Candidates, len(res.Deep.Accepted), len(res.Deep.Rejected))
		}
		for _, bibcode := range res.SkippedPublications {
			fmt.Printf("  Skipped citation refresh for %s (query failed)\n", bibcode)
		}
	}
}
