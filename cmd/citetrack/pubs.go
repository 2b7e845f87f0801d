package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/pdf"
	"github.com/mcalpine/citetrack/internal/store"
)

var pubsCmd = &cobra.Command{
	Use:   "pubs",
	Short: "Manage tracked publications",
}

var (
	pubsAuthorID     int64
	pubsIgnoreReason string
)

var pubsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked publications",
	Args:  cobra.NoArgs,
	Run:   runPubsList,
}

var pubsIgnoreCmd = &cobra.Command{
	Use:   "ignore <bibcode>",
	Short: "Exclude a publication from checks and reports",
	Long: `Exclude a publication from future checks and reports. The entry and its
citations stay in the database and can be restored with 'pubs unignore'.`,
	Args: cobra.ExactArgs(1),
	Run:  runPubsIgnore,
}

var pubsUnignoreCmd = &cobra.Command{
	Use:   "unignore <bibcode>",
	Short: "Restore an ignored publication",
	Args:  cobra.ExactArgs(1),
	Run:   runPubsUnignore,
}

var pubsListIgnoredCmd = &cobra.Command{
	Use:   "list-ignored",
	Short: "List ignored publications",
	Args:  cobra.NoArgs,
	Run:   runPubsListIgnored,
}

var pubsAddPDFCmd = &cobra.Command{
	Use:   "add-pdf <file.pdf>",
	Short: "Track the publication matching a PDF's DOI or arXiv id",
	Long: `Scan a PDF's front matter for a DOI or arXiv identifier, look the paper
up in ADS, and add it to an author's tracked publications. Papers added
this way are exempt from removal prompts, like deep-check accepts.

Examples:
  citetrack pubs add-pdf paper.pdf --author-id 1`,
	Args: cobra.ExactArgs(1),
	Run:  runPubsAddPDF,
}

func init() {
	pubsCmd.PersistentFlags().Int64Var(&pubsAuthorID, "author-id", 0, "Scope to a single author")
	pubsIgnoreCmd.Flags().StringVar(&pubsIgnoreReason, "reason", "", "Why the publication is ignored")
	pubsCmd.AddCommand(pubsListCmd)
	pubsCmd.AddCommand(pubsIgnoreCmd)
	pubsCmd.AddCommand(pubsUnignoreCmd)
	pubsCmd.AddCommand(pubsListIgnoredCmd)
	pubsCmd.AddCommand(pubsAddPDFCmd)
	rootCmd.AddCommand(pubsCmd)
}

// findPublication resolves a bibcode to a publication, scoped to
// --author-id when given, otherwise across all tracked authors.
func findPublication(tx *store.Tx, bibcode string) (*store.Publication, error) {
	if pubsAuthorID != 0 {
		return tx.GetPublicationByBibcode(bibcode, pubsAuthorID)
	}

	authors, err := tx.ListAuthors()
	if err != nil {
		return nil, err
	}
	var found *store.Publication
	for _, a := range authors {
		p, err := tx.GetPublicationByBibcode(bibcode, a.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if found != nil {
			return nil, fmt.Errorf("bibcode %s is tracked for multiple authors, pass --author-id", bibcode)
		}
		found = p
	}
	if found == nil {
		return nil, fmt.Errorf("publication %s: %w", bibcode, store.ErrNotFound)
	}
	return found, nil
}

// PublicationResponse is one publication in JSON output.
type PublicationResponse struct {
	ID            int64  `json:"id"`
	AuthorID      int64  `json:"author_id"`
	Bibcode       string `json:"bibcode"`
	Title         string `json:"title"`
	PubDate       string `json:"pubdate"`
	CitationCount int    `json:"citation_count"`
	Ignored       bool   `json:"ignored,omitempty"`
	IgnoreReason  string `json:"ignore_reason,omitempty"`
}

func pubResponse(p store.Publication) PublicationResponse {
	return PublicationResponse{
		ID: p.ID, AuthorID: p.AuthorID, Bibcode: p.Bibcode, Title: p.Title,
		PubDate: p.PubDate, CitationCount: p.CitationCount,
		Ignored: p.Ignored, IgnoreReason: p.IgnoreReason,
	}
}

func printPubsHuman(pubs []store.Publication, emptyMsg string) {
	if len(pubs) == 0 {
		fmt.Println(emptyMsg)
		return
	}
	for _, p := range pubs {
		fmt.Printf("%s  %s (%s, %d citations)", p.Bibcode, truncateString(p.Title, ListTitleMaxLen), p.PubDate, p.CitationCount)
		if p.IgnoreReason != "" {
			fmt.Printf(" [%s]", p.IgnoreReason)
		}
		fmt.Println()
	}
}

func runPubsList(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var pubs []store.Publication
	err = db.WithTx(func(tx *store.Tx) error {
		authors, err := tx.ListAuthors()
		if err != nil {
			return err
		}
		for _, a := range authors {
			if pubsAuthorID != 0 && a.ID != pubsAuthorID {
				continue
			}
			batch, err := tx.ListPublications(a.ID, false)
			if err != nil {
				return err
			}
			pubs = append(pubs, batch...)
		}
		return nil
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		printPubsHuman(pubs, "No publications tracked.")
		return
	}
	responses := make([]PublicationResponse, len(pubs))
	for i, p := range pubs {
		responses[i] = pubResponse(p)
	}
	_ = outputJSON(responses)
}

func runPubsIgnore(cmd *cobra.Command, args []string) {
	setIgnored(args[0], true, pubsIgnoreReason)
}

func runPubsUnignore(cmd *cobra.Command, args []string) {
	setIgnored(args[0], false, "")
}

func setIgnored(bibcode string, ignored bool, reason string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var pub *store.Publication
	err = db.WithTx(func(tx *store.Tx) error {
		var err error
		if pub, err = findPublication(tx, bibcode); err != nil {
			return err
		}
		return tx.SetIgnored(pub.ID, ignored, reason)
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	status := "ignored"
	if !ignored {
		status = "restored"
	}
	if humanOutput {
		fmt.Printf("%s %s: %s\n", pub.Bibcode, status, truncateString(pub.Title, ListTitleMaxLen))
		return
	}
	_ = outputJSON(map[string]any{"status": status, "bibcode": pub.Bibcode, "id": pub.ID})
}

func runPubsListIgnored(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var pubs []store.Publication
	err = db.WithTx(func(tx *store.Tx) error {
		var err error
		pubs, err = tx.ListIgnored(pubsAuthorID)
		return err
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		printPubsHuman(pubs, "No ignored publications.")
		return
	}
	responses := make([]PublicationResponse, len(pubs))
	for i, p := range pubs {
		responses[i] = pubResponse(p)
	}
	_ = outputJSON(responses)
}

func runPubsAddPDF(cmd *cobra.Command, args []string) {
	if pubsAuthorID == 0 {
		exitWithErrorf(ExitError, "--author-id is required")
	}

	ids, err := pdf.Extract(args[0])
	if err != nil {
		exitWithErrorf(ExitError, "reading PDF: %v", err)
	}
	query := ids.Query()
	if query == "" {
		exitWithErrorf(ExitError, "no DOI or arXiv identifier found in %s", args[0])
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

	result, err := client.Search(context.Background(), query, ads.DefaultPublicationFields, 1, "")
	if err != nil {
		exitWithError(err, ExitAPIError)
	}
	if len(result.Papers) == 0 {
		exitWithErrorf(ExitNotFound, "no ADS record matches %s", query)
	}
	paper := result.Papers[0]

	var pub *store.Publication
	err = db.WithTx(func(tx *store.Tx) error {
		if _, err := tx.GetAuthor(pubsAuthorID); err != nil {
			return err
		}
		id, err := tx.UpsertPublication(&store.Publication{
			AuthorID:      pubsAuthorID,
			Bibcode:       paper.Bibcode,
			Title:         paper.Title,
			PubDate:       paper.PubDate,
			Authors:       paper.AuthorsString(),
			CitationCount: paper.CitationCount,
			LastUpdated:   time.Now(),
			Deep:          true,
		})
		if err != nil {
			return err
		}
		pub, err = tx.GetPublication(id)
		return err
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		fmt.Printf("Tracking %s (%s). Run 'citetrack check' to fetch its citations.\n",
			truncateString(pub.Title, ListTitleMaxLen), pub.Bibcode)
		return
	}
	_ = outputJSON(pubResponse(*pub))
}
