// Package tracker reconciles snapshots of tracked authors against fresh
// ADS query results: refreshing publication lists, discovering new citing
// papers, and running the interactive deep check.
package tracker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/match"
	"github.com/mcalpine/citetrack/internal/store"
)

// Tracker orchestrates per-author reconciliation.
type Tracker struct {
	db      *store.DB
	search  Searcher
	prompt  Prompter
	maxRows int
	out     io.Writer
	now     func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPrompter sets the human-in-the-loop capability.
func WithPrompter(p Prompter) Option {
	return func(t *Tracker) { t.prompt = p }
}

// WithMaxRows caps the row count requested per query.
func WithMaxRows(rows int) Option {
	return func(t *Tracker) { t.maxRows = rows }
}

// WithOutput sets the writer for progress messages.
func WithOutput(w io.Writer) Option {
	return func(t *Tracker) { t.out = w }
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a Tracker over the given snapshot store and search
// collaborator. By default prompts are skipped (non-interactive).
func New(db *store.DB, search Searcher, opts ...Option) *Tracker {
	t := &Tracker{
		db:      db,
		search:  search,
		prompt:  NonInteractivePrompter{},
		maxRows: ads.MaxRows,
		out:     os.Stdout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CheckAll reconciles every tracked author, or just one when authorID is
// non-zero. A failure on one author's primary query aborts that author
// only; the error is recorded in its AuthorResult and the run continues.
func (t *Tracker) CheckAll(ctx context.Context, authorID int64, deep bool) ([]AuthorResult, error) {
	var authors []store.Author
	err := t.db.WithTx(func(tx *store.Tx) error {
		if authorID != 0 {
			a, err := tx.GetAuthor(authorID)
			if err != nil {
				return err
			}
			authors = []store.Author{*a}
			return nil
		}
		var err error
		authors, err = tx.ListAuthors()
		return err
	})
	if err != nil {
		return nil, err
	}

	var results []AuthorResult
	for _, author := range authors {
		fmt.Fprintf(t.out, "Checking citations for %s...\n", author.Name())
		res := t.checkAuthor(ctx, author, deep)
		if res.Err != nil {
			// Auth failures are not transient: no later author will
			// fare better, so surface them immediately.
			if ads.IsAuthError(res.Err) {
				return results, res.Err
			}
			logrus.WithError(res.Err).WithField("author", author.Name()).
				Warn("author check failed, snapshot left untouched")
			fmt.Fprintf(t.out, "Warning: check for %s failed: %v\n", author.Name(), res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

// publicationKnownSet adapts stored publications for classification.
func publicationKnownSet(pubs []store.Publication) []match.Record {
	records := make([]match.Record, len(pubs))
	for i, p := range pubs {
		records[i] = match.Record{Bibcode: p.Bibcode, Title: p.Title}
	}
	return records
}

// pubAction is one planned mutation of the publications table.
type pubAction struct {
	paper    ads.Paper
	outcome  match.Outcome
	existing *store.Publication // nil for match.New
	deep     bool
}

// citeFetch holds one publication's fetched citations ready to reconcile.
type citeFetch struct {
	pubBibcode string
	existing   *store.Publication // nil when the publication is new this run
	known      []store.Citation
	result     *ads.QueryResult
}

// checkAuthor performs one author's full reconciliation: all external
// fetches and interactive decisions happen first, then every write is
// applied in a single transaction so a failure leaves the snapshot as it
// was.
func (t *Tracker) checkAuthor(ctx context.Context, author store.Author, deep bool) AuthorResult {
	res := AuthorResult{Author: author}

	q := ads.FirstAuthorQuery(author.Forename, author.Surname, author.ORCID)
	primary, err := t.search.Search(ctx, q, ads.DefaultPublicationFields, t.maxRows, "pubdate desc")
	if err != nil {
		res.Err = fmt.Errorf("querying publications for %s: %w", author.Name(), err)
		return res
	}
	if primary.NumFound == 0 {
		fmt.Fprintf(t.out, "No paper hits for %s\n", author.Name())
	}

	// Current snapshot state for this author.
	var known []store.Publication
	var ignored []store.Publication
	var rejected []store.RejectedPaper
	knownCites := make(map[int64][]store.Citation)
	err = t.db.WithTx(func(tx *store.Tx) error {
		var err error
		if known, err = tx.ListPublications(author.ID, false); err != nil {
			return err
		}
		if ignored, err = tx.ListIgnored(author.ID); err != nil {
			return err
		}
		if rejected, err = tx.ListRejected(author.ID); err != nil {
			return err
		}
		for _, p := range known {
			cites, err := tx.ListCitations(p.ID)
			if err != nil {
				return err
			}
			knownCites[p.ID] = cites
		}
		return nil
	})
	if err != nil {
		res.Err = err
		return res
	}

	ignoredBibcodes := make(map[string]bool, len(ignored))
	for _, p := range ignored {
		ignoredBibcodes[p.Bibcode] = true
	}

	// Classify the fresh batch against known, non-ignored publications.
	knownSet := publicationKnownSet(known)
	matched := make(map[int64]bool)
	var actions []pubAction
	for _, paper := range primary.Papers {
		if paper.Bibcode == "" {
			continue
		}
		if ignoredBibcodes[paper.Bibcode] {
			// Ignored publications sit out reconciliation entirely.
			continue
		}
		r := match.Classify(match.Record{Bibcode: paper.Bibcode, Title: paper.Title}, knownSet)
		action := pubAction{paper: paper, outcome: r.Outcome}
		if r.Index >= 0 {
			action.existing = &known[r.Index]
			matched[known[r.Index].ID] = true
		}
		actions = append(actions, action)
	}

	// Stored publications missing from the fresh batch are removal
	// candidates, except those added via deep check: by construction they
	// never appear in the first-author query. Never auto-delete.
	var removals []store.Publication
	for i := range known {
		p := known[i]
		if matched[p.ID] || p.Deep {
			continue
		}
		if !t.prompt.Interactive() {
			fmt.Fprintf(t.out, "Local entry %s (%s) not in latest ADS results; non-interactive, keeping it.\n",
				p.Bibcode, truncate(p.Title, 70))
			continue
		}
		fmt.Fprintf(t.out, "Local entry: %s (Bibcode: %s)\n", truncate(p.Title, 70), p.Bibcode)
		if t.prompt.Confirm("This entry was not found in the latest ADS results for this author. Remove it from your local database?") {
			removals = append(removals, p)
		} else {
			fmt.Fprintf(t.out, "Keeping %s in local database.\n", p.Bibcode)
		}
	}
	removedIDs := make(map[int64]bool, len(removals))
	for _, p := range removals {
		removedIDs[p.ID] = true
	}

	// Deep check: a wider any-author search reviewed by the user.
	var deepAccepts []ads.Paper
	var deepRejects []string
	if deep {
		deepRes, accepts, rejects, err := t.deepCheck(ctx, author, known, actions, rejected, ignoredBibcodes)
		if err != nil {
			logrus.WithError(err).WithField("author", author.Name()).Warn("deep check query failed, skipping")
			fmt.Fprintf(t.out, "Warning: deep check for %s failed: %v\n", author.Name(), err)
		} else {
			res.Deep = deepRes
			deepAccepts = accepts
			deepRejects = rejects
		}
	}

	// Fetch citations for every publication that will exist after this
	// run. A transient failure skips just that publication.
	var fetches []citeFetch
	fetchCitations := func(bibcode string, existing *store.Publication) {
		result, err := t.search.Citations(ctx, bibcode, ads.DefaultCitationFields, t.maxRows)
		if err != nil {
			logrus.WithError(err).WithField("bibcode", bibcode).Warn("citation query failed, skipping publication")
			fmt.Fprintf(t.out, "Warning: citation query for %s failed, keeping stored citations: %v\n", bibcode, err)
			res.SkippedPublications = append(res.SkippedPublications, bibcode)
			return
		}
		fetch := citeFetch{pubBibcode: bibcode, existing: existing, result: result}
		if existing != nil {
			fetch.known = knownCites[existing.ID]
		}
		fetches = append(fetches, fetch)
	}

	for _, action := range actions {
		if action.existing != nil && removedIDs[action.existing.ID] {
			continue
		}
		fetchCitations(action.paper.Bibcode, action.existing)
	}
	for _, paper := range deepAccepts {
		fetchCitations(paper.Bibcode, nil)
	}

	// Stored publications absent from the fresh batch still get their
	// citations refreshed: deep-check additions and PDF imports never
	// appear in the first-author query, and the user may have chosen to
	// keep an unmatched entry.
	for i := range known {
		if matched[known[i].ID] || removedIDs[known[i].ID] {
			continue
		}
		fetchCitations(known[i].Bibcode, &known[i])
	}

	// Apply everything in one transaction.
	err = t.db.WithTx(func(tx *store.Tx) error {
		return t.apply(tx, author, actions, removals, deepAccepts, deepRejects, fetches, &res)
	})
	if err != nil {
		res.Err = fmt.Errorf("updating snapshot for %s: %w", author.Name(), err)
		// Writes rolled back; clear partial deltas.
		res.Publications = PublicationDelta{}
		res.Citations = nil
		if res.Deep != nil {
			res.Deep.Accepted = nil
			res.Deep.Rejected = nil
		}
	}
	return res
}

// apply writes the planned reconciliation into the snapshot and fills in
// the result deltas.
func (t *Tracker) apply(tx *store.Tx, author store.Author, actions []pubAction, removals []store.Publication,
	deepAccepts []ads.Paper, deepRejects []string, fetches []citeFetch, res *AuthorResult) error {

	now := t.now()
	pubIDs := make(map[string]int64) // current bibcode -> publication id

	removedIDs := make(map[int64]bool, len(removals))
	for _, p := range removals {
		if err := tx.DeletePublication(p.ID); err != nil {
			return err
		}
		removedIDs[p.ID] = true
		res.Publications.Removed = append(res.Publications.Removed, p)
	}

	upsert := func(paper ads.Paper, deepFlag bool) (int64, error) {
		return tx.UpsertPublication(&store.Publication{
			AuthorID:      author.ID,
			Bibcode:       paper.Bibcode,
			Title:         paper.Title,
			PubDate:       paper.PubDate,
			Authors:       paper.AuthorsString(),
			CitationCount: paper.CitationCount,
			LastUpdated:   now,
			Deep:          deepFlag,
		})
	}

	for _, action := range actions {
		if action.existing != nil && removedIDs[action.existing.ID] {
			continue
		}
		if action.outcome == match.BibcodeChanged {
			// Repair the stored bibcode first so the upsert below finds
			// the row under its new identity.
			if err := tx.UpdatePublicationBibcode(action.existing.ID, action.paper.Bibcode, now); err != nil {
				return err
			}
		}
		id, err := upsert(action.paper, false)
		if err != nil {
			return err
		}
		pubIDs[action.paper.Bibcode] = id

		pub, err := tx.GetPublication(id)
		if err != nil {
			return err
		}
		switch action.outcome {
		case match.New:
			res.Publications.New = append(res.Publications.New, *pub)
		case match.BibcodeChanged, match.TitleChanged:
			res.Publications.Updated = append(res.Publications.Updated, *pub)
		}
	}

	for _, paper := range deepAccepts {
		id, err := upsert(paper, true)
		if err != nil {
			return err
		}
		pubIDs[paper.Bibcode] = id
		pub, err := tx.GetPublication(id)
		if err != nil {
			return err
		}
		if res.Deep != nil {
			res.Deep.Accepted = append(res.Deep.Accepted, *pub)
		}
	}
	for _, bibcode := range deepRejects {
		if err := tx.AddRejected(author.ID, bibcode, now); err != nil {
			return err
		}
	}

	for _, fetch := range fetches {
		pubID, ok := pubIDs[fetch.pubBibcode]
		if !ok && fetch.existing != nil {
			pubID = fetch.existing.ID
		}
		if pubID == 0 {
			continue
		}
		delta, err := t.reconcileCitations(tx, pubID, fetch, now)
		if err != nil {
			return err
		}
		if len(delta.New) > 0 || len(delta.Updated) > 0 {
			pub, err := tx.GetPublication(pubID)
			if err != nil {
				return err
			}
			delta.Publication = *pub
			res.Citations = append(res.Citations, delta)
		}
	}

	return nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
