package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcalpine/citetrack/internal/store"
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Manage tracked authors",
}

var authorAddORCID string

var authorAddCmd = &cobra.Command{
	Use:   "add <forename> <surname>",
	Short: "Start tracking an author",
	Long: `Start tracking an author. The name must match its form in ADS records.

Examples:
  citetrack author add Jane Doe
  citetrack author add Jane Doe --orcid 0000-0002-1825-0097`,
	Args: cobra.ExactArgs(2),
	Run:  runAuthorAdd,
}

var authorRemoveForce bool

var authorRemoveCmd = &cobra.Command{
	Use:   "remove <author-id>",
	Short: "Stop tracking an author",
	Long: `Stop tracking an author and delete every publication and citation
recorded for them.`,
	Args: cobra.ExactArgs(1),
	Run:  runAuthorRemove,
}

var authorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked authors",
	Args:  cobra.NoArgs,
	Run:   runAuthorList,
}

func init() {
	authorAddCmd.Flags().StringVar(&authorAddORCID, "orcid", "", "Author's ORCID identifier")
	authorRemoveCmd.Flags().BoolVarP(&authorRemoveForce, "force", "f", false, "Skip the confirmation prompt")
	authorCmd.AddCommand(authorAddCmd)
	authorCmd.AddCommand(authorRemoveCmd)
	authorCmd.AddCommand(authorListCmd)
	rootCmd.AddCommand(authorCmd)
}

// AuthorResponse is one author in JSON output.
type AuthorResponse struct {
	ID           int64  `json:"id"`
	Forename     string `json:"forename"`
	Surname      string `json:"surname"`
	ORCID        string `json:"orcid,omitempty"`
	Publications int    `json:"publications"`
	Created      bool   `json:"created,omitempty"`
}

func runAuthorAdd(cmd *cobra.Command, args []string) {
	forename, surname := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	if forename == "" || surname == "" {
		exitWithErrorf(ExitError, "forename and surname must be non-empty")
	}

	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var id int64
	var created bool
	err = db.WithTx(func(tx *store.Tx) error {
		var err error
		id, created, err = tx.UpsertAuthor(forename, surname, authorAddORCID)
		return err
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		if created {
			fmt.Printf("Now tracking %s %s (id %d)\n", forename, surname, id)
		} else {
			fmt.Printf("%s %s is already tracked (id %d)\n", forename, surname, id)
		}
		return
	}
	_ = outputJSON(AuthorResponse{ID: id, Forename: forename, Surname: surname, ORCID: authorAddORCID, Created: created})
}

func runAuthorRemove(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitWithErrorf(ExitError, "invalid author id %q", args[0])
	}

	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var author *store.Author
	var pubs int
	err = db.WithTx(func(tx *store.Tx) error {
		var err error
		if author, err = tx.GetAuthor(id); err != nil {
			return err
		}
		pubs, err = tx.CountPublications(id)
		return err
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if !authorRemoveForce {
		fmt.Printf("Remove %s and the %d publication(s) tracked for them? [y/N] ", author.Name(), pubs)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
		default:
			fmt.Println("Aborted.")
			return
		}
	}

	err = db.WithTx(func(tx *store.Tx) error {
		return tx.DeleteAuthor(id)
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		fmt.Printf("Removed %s.\n", author.Name())
		return
	}
	_ = outputJSON(map[string]any{"status": "removed", "id": id})
}

func runAuthorList(cmd *cobra.Command, args []string) {
	db, err := openStore()
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	defer db.Close()

	var responses []AuthorResponse
	err = db.WithTx(func(tx *store.Tx) error {
		authors, err := tx.ListAuthors()
		if err != nil {
			return err
		}
		for _, a := range authors {
			pubs, err := tx.CountPublications(a.ID)
			if err != nil {
				return err
			}
			responses = append(responses, AuthorResponse{
				ID: a.ID, Forename: a.Forename, Surname: a.Surname, ORCID: a.ORCID, Publications: pubs,
			})
		}
		return nil
	})
	if err != nil {
		exitWithError(err, ExitError)
	}

	if humanOutput {
		if len(responses) == 0 {
			fmt.Println("No authors tracked yet. Add one with 'citetrack author add'.")
			return
		}
		for _, r := range responses {
			fmt.Printf("%d. %s %s", r.ID, r.Forename, r.Surname)
			if r.ORCID != "" {
				fmt.Printf(" (ORCID %s)", r.ORCID)
			}
			fmt.Printf(" - %d publication(s)\n", r.Publications)
		}
		return
	}
	if responses == nil {
		responses = []AuthorResponse{}
	}
	_ = outputJSON(responses)
}
