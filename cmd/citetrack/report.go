package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/metrics"
	"github.com/mcalpine/citetrack/internal/store"
)

const recentWindowDays = 90

var (
	reportAuthorID    int64
	reportShowIgnored bool
	reportExtrapolate bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report tracked publications and citation metrics",
	Long: `Render the snapshot as a per-author citation report: each publication
with its citation count, citations per year, recent citing papers, and the
author's position on the paper, plus summary metrics including the h-index.

The report reads only the local snapshot. Run 'citetrack check' first for
fresh numbers.`,
	Args: cobra.NoArgs,
	Run:  runReport,
}

func init() {
	reportCmd.Flags().Int64Var(&reportAuthorID, "author-id", 0, "Report on a single author")
	reportCmd.Flags().BoolVar(&reportShowIgnored, "show-ignored", false, "Include ignored publications")
	reportCmd.Flags().BoolVar(&reportExtrapolate, "extrapolate", false, "Extrapolate citations/year for very recent papers")
	rootCmd.AddCommand(reportCmd)
}

// PublicationReport is one publication row in the report.
type PublicationReport struct {
	ID             int64   `json:"id"`
	Bibcode        string  `json:"bibcode"`
	Title          string  `json:"title"`
	PubDate        string  `json:"pubdate"`
	CitationCount  int     `json:"citation_count"`
	RecentCount    int     `json:"recent_citations"`
	PerYear        float64 `json:"citations_per_year"`
	Extrapolated   bool    `json:"extrapolated,omitempty"`
	AuthorPosition int     `json:"author_position,omitempty"`
	Link           string  `json:"link"`
	Ignored        bool    `json:"ignored,omitempty"`
	IgnoreReason   string  `json:"ignore_reason,omitempty"`
}

// AuthorReport is one author's section of the report.
type AuthorReport struct {
	AuthorID       int64               `json:"author_id"`
	Author         string              `json:"author"`
	Publications   []PublicationReport `json:"publications"`
	TotalCitations int                 `json:"total_citations"`
	AvgCitations   float64             `json:"avg_citations"`
	HIndex         int                 `json:"h_index"`
}

func runReport(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var reports []AuthorReport
	now := time.Now()
	err = db.WithTx(func(tx *store.Tx) error {
		var authors []store.Author
		if reportAuthorID != 0 {
			a, err := tx.GetAuthor(reportAuthorID)
			if err != nil {
				return err
			}
			authors = []store.Author{*a}
		} else {
			var err error
			if authors, err = tx.ListAuthors(); err != nil {
				return err
			}
		}

		for _, author := range authors {
			report, err := buildAuthorReport(tx, author, now)
			if err != nil {
				return err
			}
			reports = append(reports, report)
		}
		return nil
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		printReportHuman(reports)
		return
	}
	if reports == nil {
		reports = []AuthorReport{}
	}
	_ = outputJSON(reports)
}

func buildAuthorReport(tx *store.Tx, author store.Author, now time.Time) (AuthorReport, error) {
	report := AuthorReport{AuthorID: author.ID, Author: author.Name()}

	pubs, err := tx.ListPublications(author.ID, reportShowIgnored)
	if err != nil {
		return report, err
	}

	var counts []int
	for _, pub := range pubs {
		cites, err := tx.ListCitations(pub.ID)
		if err != nil {
			return report, err
		}
		dates := make([]string, len(cites))
		for i, c := range cites {
			dates[i] = c.PubDate
		}

		perYear, extrapolated, _ := metrics.CitationsPerYear(pub.PubDate, pub.CitationCount, now, reportExtrapolate)
		report.Publications = append(report.Publications, PublicationReport{
			ID:             pub.ID,
			Bibcode:        pub.Bibcode,
			Title:          pub.Title,
			PubDate:        pub.PubDate,
			CitationCount:  pub.CitationCount,
			RecentCount:    metrics.RecentCount(dates, recentWindowDays, now),
			PerYear:        perYear,
			Extrapolated:   extrapolated,
			AuthorPosition: authorPosition(pub.Authors, author.Surname),
			Link:           ads.AbstractLink(pub.Bibcode),
			Ignored:        pub.Ignored,
			IgnoreReason:   pub.IgnoreReason,
		})
		if !pub.Ignored {
			counts = append(counts, pub.CitationCount)
		}
	}

	report.TotalCitations = metrics.Total(counts)
	report.AvgCitations = metrics.Average(counts)
	report.HIndex = metrics.HIndex(counts)
	return report, nil
}

// authorPosition finds the 1-based index of the author's surname in the
// stored author list, or 0 when it cannot be determined. Case-insensitive:
// ADS capitalization is not always consistent with the tracked name.
func authorPosition(authors, surname string) int {
	for i, name := range strings.Split(authors, "; ") {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(surname)+",") || strings.EqualFold(name, surname) {
			return i + 1
		}
	}
	return 0
}

func printReportHuman(reports []AuthorReport) {
	for _, report := range reports {
		fmt.Printf("\n%s\n%s\n", report.Author, strings.Repeat("=", len(report.Author)))
		if len(report.Publications) == 0 {
			fmt.Println("No publications tracked. Run 'citetrack check'.")
			continue
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "POS\tTITLE\tDATE\tCITES\tLAST 90D\tCITES/YR")
		for _, p := range report.Publications {
			pos := "-"
			if p.AuthorPosition > 0 {
				pos = fmt.Sprintf("%d", p.AuthorPosition)
			}
			perYear := fmt.Sprintf("%.1f", p.PerYear)
			if p.Extrapolated {
				perYear += "*"
			}
			title := truncateString(p.Title, ReportTitleMaxLen)
			if p.Ignored {
				title += " (ignored)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				pos, title, p.PubDate, p.CitationCount, p.RecentCount, perYear)
		}
		w.Flush()

		fmt.Printf("\nPublications: %d  Total citations: %d  Average: %.1f  h-index: %d\n",
			len(report.Publications), report.TotalCitations, report.AvgCitations, report.HIndex)
	}
}
