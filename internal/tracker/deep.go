package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/store"
)

const abstractPreviewLen = 250

// deepCheck runs the widened any-author query and walks the user through
// every hit not already tracked, ignored, or previously rejected. In a
// non-interactive run candidates are only counted, never rejected, so
// they come back next time.
func (t *Tracker) deepCheck(ctx context.Context, author store.Author, known []store.Publication,
	actions []pubAction, rejected []store.RejectedPaper, ignoredBibcodes map[string]bool) (*DeepResult, []ads.Paper, []string, error) {

	fmt.Fprintf(t.out, "Running deep check for %s...\n", author.Name())

	q := ads.AuthorQuery(author.Forename, author.Surname, author.ORCID, false)
	broad, err := t.search.Search(ctx, q, ads.DeepCheckFields, t.maxRows, "pubdate desc")
	if err != nil {
		return nil, nil, nil, err
	}

	// Everything already accounted for this run is off the table.
	seen := make(map[string]bool)
	for _, p := range known {
		seen[p.Bibcode] = true
	}
	for _, action := range actions {
		seen[action.paper.Bibcode] = true
	}
	for _, r := range rejected {
		seen[r.Bibcode] = true
	}

	result := &DeepResult{}
	var accepts []ads.Paper
	var rejects []string
	for _, paper := range broad.Papers {
		if paper.Bibcode == "" || seen[paper.Bibcode] || ignoredBibcodes[paper.Bibcode] {
			continue
		}
		result.Candidates++

		if !t.prompt.Interactive() {
			// Counted but undecided; it stays a candidate for an
			// interactive run.
			continue
		}

		fmt.Fprintf(t.out, "\nFound a possible missing publication:\n%s", describeCandidate(paper))
		if t.prompt.Confirm(fmt.Sprintf("Add this paper to tracking for %s?", author.Name())) {
			accepts = append(accepts, paper)
		} else {
			rejects = append(rejects, paper.Bibcode)
			result.Rejected = append(result.Rejected, paper.Bibcode)
		}
	}

	return result, accepts, rejects, nil
}

// describeCandidate renders a deep-check hit for the accept/reject prompt.
func describeCandidate(paper ads.Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Title:   %s\n", paper.Title)
	fmt.Fprintf(&b, "  Bibcode: %s\n", paper.Bibcode)
	authors := paper.Authors
	suffix := ""
	if len(authors) > 5 {
		authors = authors[:5]
		suffix = " et al."
	}
	fmt.Fprintf(&b, "  Authors: %s%s\n", strings.Join(authors, "; "), suffix)
	if paper.PubDate != "" {
		fmt.Fprintf(&b, "  Date:    %s\n", paper.PubDate)
	}
	if paper.Abstract != "" {
		abstract := paper.Abstract
		if len(abstract) > abstractPreviewLen {
			abstract = abstract[:abstractPreviewLen] + "..."
		}
		fmt.Fprintf(&b, "  Abstract: %s\n", abstract)
	}
	fmt.Fprintf(&b, "  Link:    %s\n", paper.Link())
	return b.String()
}
