package tracker

import (
	"time"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/match"
	"github.com/mcalpine/citetrack/internal/store"
)

// citationKnownSet adapts stored citations for classification.
func citationKnownSet(cites []store.Citation) []match.Record {
	records := make([]match.Record, len(cites))
	for i, c := range cites {
		records[i] = match.Record{Bibcode: c.Bibcode, Title: c.Title}
	}
	return records
}

// reconcileCitations folds one publication's fresh citation batch into the
// snapshot. The stored citation count is always set to the query's total
// hit count, which may exceed the rows returned.
func (t *Tracker) reconcileCitations(tx *store.Tx, pubID int64, fetch citeFetch, now time.Time) (CitationDelta, error) {
	delta := CitationDelta{Total: fetch.result.NumFound}

	knownSet := citationKnownSet(fetch.known)
	for _, paper := range fetch.result.Papers {
		if paper.Bibcode == "" {
			continue
		}
		r := match.Classify(match.Record{Bibcode: paper.Bibcode, Title: paper.Title}, knownSet)

		if r.Outcome == match.BibcodeChanged {
			if err := tx.UpdateCitationBibcode(fetch.known[r.Index].ID, paper.Bibcode); err != nil {
				return delta, err
			}
		}

		cite := &store.Citation{
			PublicationID: pubID,
			Bibcode:       paper.Bibcode,
			Title:         paper.Title,
			Authors:       paper.AuthorsString(),
			PubDate:       paper.Date,
			DOI:           paper.DOI,
			DiscoveryDate: now,
		}
		id, created, err := tx.UpsertCitation(cite)
		if err != nil {
			return delta, err
		}
		cite.ID = id

		switch {
		case created:
			delta.New = append(delta.New, *cite)
		case r.Outcome == match.BibcodeChanged || r.Outcome == match.TitleChanged:
			delta.Updated = append(delta.Updated, *cite)
		case r.Outcome == match.Identical && citationDrifted(fetch.known[r.Index], paper):
			delta.Updated = append(delta.Updated, *cite)
		}
	}

	if err := tx.SetCitationCount(pubID, fetch.result.NumFound, now); err != nil {
		return delta, err
	}
	return delta, nil
}

// citationDrifted reports whether any auxiliary metadata changed on a
// citation whose bibcode and title both still match.
func citationDrifted(known store.Citation, paper ads.Paper) bool {
	return known.Authors != paper.AuthorsString() ||
		known.PubDate != paper.Date ||
		known.DOI != paper.DOI
}
