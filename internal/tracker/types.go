package tracker

import (
	"context"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/store"
)

// Searcher is the external query collaborator. *ads.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, q, fields string, rows int, sort string) (*ads.QueryResult, error)
	Citations(ctx context.Context, bibcode, fields string, rows int) (*ads.QueryResult, error)
}

// PublicationDelta partitions the outcome of refreshing an author's
// publication list against a fresh external batch.
type PublicationDelta struct {
	// New publications inserted from the batch.
	New []store.Publication
	// Updated publications whose bibcode or title drifted. A renamed
	// paper is never treated as a new discovery.
	Updated []store.Publication
	// Removed publications the user confirmed deleting because they no
	// longer appear in the external batch.
	Removed []store.Publication
}

// CitationDelta is the outcome of refreshing one publication's citations.
type CitationDelta struct {
	Publication store.Publication
	// New citing papers.
	New []store.Citation
	// Updated citing papers: bibcode/title drift or refreshed metadata,
	// reported separately and never counted as new.
	Updated []store.Citation
	// Total is the API's authoritative citation count for the paper,
	// which may exceed the reconciled list when results are capped.
	Total int
}

// DeepResult is the outcome of a deep check for one author.
type DeepResult struct {
	// Candidates offered for review (after subtracting known, rejected
	// and ignored bibcodes).
	Candidates int
	// Accepted publications, inserted with the deep provenance flag.
	Accepted []store.Publication
	// Rejected bibcodes recorded so they are not offered again.
	Rejected []string
}

// AuthorResult aggregates one author's reconciliation run.
type AuthorResult struct {
	Author       store.Author
	Publications PublicationDelta
	Citations    []CitationDelta
	Deep         *DeepResult
	// SkippedPublications lists bibcodes whose citation refresh failed
	// transiently; their stored citations are left untouched.
	SkippedPublications []string
	// Err is set when the author's primary query failed and the whole
	// author check was aborted without touching the snapshot.
	Err error
}

// HasChanges reports whether the run found anything new or updated.
func (r *AuthorResult) HasChanges() bool {
	if len(r.Publications.New) > 0 || len(r.Publications.Updated) > 0 || len(r.Publications.Removed) > 0 {
		return true
	}
	for _, c := range r.Citations {
		if len(c.New) > 0 || len(c.Updated) > 0 {
			return true
		}
	}
	return false
}
