package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/ads"
)

var (
	searchORCID     string
	searchFirstOnly bool
	searchRows      int
	searchSort      string
	searchFormat    string
)

var searchCmd = &cobra.Command{
	Use:   "search <forename> <surname>",
	Short: "Run a one-off ADS author search",
	Long: `Query ADS for an author's papers without touching the local snapshot.
Useful for checking how a name resolves before tracking it.

Examples:
  citetrack search Jane Doe
  citetrack search Jane Doe --orcid 0000-0002-1825-0097 --first-author-only
  citetrack search Jane Doe --format csv > papers.csv`,
	Args: cobra.ExactArgs(2),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchORCID, "orcid", "", "Author's ORCID identifier")
	searchCmd.Flags().BoolVar(&searchFirstOnly, "first-author-only", false, "Restrict to first-author papers")
	searchCmd.Flags().IntVar(&searchRows, "max-rows", 50, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchSort, "sort", "pubdate desc", "Sort order passed to ADS (e.g. \"citation_count desc\")")
	searchCmd.Flags().StringVar(&searchFormat, "format", "", "Output format: table, json, or csv")
	rootCmd.AddCommand(searchCmd)
}

// SearchResponse is the JSON output of a one-off search.
type SearchResponse struct {
	Query    string        `json:"query"`
	NumFound int           `json:"num_found"`
	Papers   []PaperResult `json:"papers"`
}

// PaperResult is one search hit.
type PaperResult struct {
	Bibcode       string `json:"bibcode"`
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	PubDate       string `json:"pubdate"`
	CitationCount int    `json:"citation_count"`
}

func runSearch(cmd *cobra.Command, args []string) {
	format := searchFormat
	if format == "" {
		if humanOutput {
			format = "table"
		} else {
			format = "json"
		}
	}
	switch format {
	case "table", "json", "csv":
	default:
		exitWithErrorf(ExitError, "invalid format %q (valid: table, json, csv)", format)
	}

	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	client, err := newClient(db)
	if err != nil {
		exitWithError(err, ExitConfigError)
	}

	query := ads.AuthorQuery(args[0], args[1], searchORCID, searchFirstOnly)
	result, err := client.Search(context.Background(), query, ads.DefaultPublicationFields, searchRows, searchSort)
	if err != nil {
		exitWithError(err, ExitAPIError)
	}

	papers := make([]PaperResult, len(result.Papers))
	for i, p := range result.Papers {
		papers[i] = PaperResult{
			Bibcode:       p.Bibcode,
			Title:         p.Title,
			Authors:       p.AuthorsString(),
			PubDate:       p.PubDate,
			CitationCount: p.CitationCount,
		}
	}

	switch format {
	case "json":
		_ = outputJSON(SearchResponse{Query: query, NumFound: result.NumFound, Papers: papers})
	case "csv":
		w := csv.NewWriter(os.Stdout)
		_ = w.Write([]string{"bibcode", "title", "authors", "pubdate", "citation_count"})
		for _, p := range papers {
			_ = w.Write([]string{p.Bibcode, p.Title, p.Authors, p.PubDate, strconv.Itoa(p.CitationCount)})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			exitWithErrorf(ExitError, "writing CSV: %v", err)
		}
	case "table":
		if result.NumFound == 0 {
			fmt.Println("No papers found")
			return
		}
		fmt.Printf("Found %d papers\n\n", result.NumFound)
		for i, p := range papers {
			fmt.Printf("%d. %s\n", i+1, truncateString(p.Title, SearchTitleMaxLen))
			fmt.Printf("   %s (%s)\n", formatAuthorsShort(p.Authors, 3), p.PubDate)
			fmt.Printf("   %s | Citations: %d\n\n", p.Bibcode, p.CitationCount)
		}
	}
}
