package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/ads"
)

var referencesRows int

var referencesCmd = &cobra.Command{
	Use:   "references <bibcode>",
	Short: "List the papers a given paper cites",
	Long: `Query ADS for the reference list of a paper (backward exploration).
Does not touch the local snapshot.

Examples:
  citetrack references 2020ApJ...100..1D
  citetrack references 2020ApJ...100..1D --human`,
	Args: cobra.ExactArgs(1),
	Run:  runReferences,
}

func init() {
	referencesCmd.Flags().IntVar(&referencesRows, "max-rows", 50, "Maximum number of results")
	rootCmd.AddCommand(referencesCmd)
}

// ReferencesResponse is the JSON output of a references lookup.
type ReferencesResponse struct {
	Bibcode    string        `json:"bibcode"`
	NumFound   int           `json:"num_found"`
	References []PaperResult `json:"references"`
}

func runReferences(cmd *cobra.Command, args []string) {
	bibcode := args[0]

	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	client, err := newClient(db)
	if err != nil {
		exitWithError(err, ExitConfigError)
	}

	result, err := client.References(context.Background(), bibcode, ads.DefaultPublicationFields, referencesRows)
	if err != nil {
		exitWithError(err, ExitAPIError)
	}

	refs := make([]PaperResult, len(result.Papers))
	for i, p := range result.Papers {
		refs[i] = PaperResult{
			Bibcode:       p.Bibcode,
			Title:         p.Title,
			Authors:       p.AuthorsString(),
			PubDate:       p.PubDate,
			CitationCount: p.CitationCount,
		}
	}

	if !humanOutput {
		_ = outputJSON(ReferencesResponse{Bibcode: bibcode, NumFound: result.NumFound, References: refs})
		return
	}

	if result.NumFound == 0 {
		fmt.Printf("No references found for %s\n", bibcode)
		return
	}
	fmt.Printf("References of %s (%d found)\n\n", bibcode, result.NumFound)
	for i, p := range refs {
		fmt.Printf("%d. %s\n", i+1, truncateString(p.Title, SearchTitleMaxLen))
		fmt.Printf("   %s (%s)\n", formatAuthorsShort(p.Authors, 3), p.PubDate)
		fmt.Printf("   %s | Citations: %d\n\n", p.Bibcode, p.CitationCount)
	}
}
