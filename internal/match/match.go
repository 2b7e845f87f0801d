// Package match decides whether an incoming bibliographic record is already
// known, has drifted (new bibcode or retitled), or is genuinely new.
package match

import (
	"github.com/sirupsen/logrus"
)

// Record is the minimal view of a stored or candidate record that
// classification operates on.
type Record struct {
	Bibcode string
	Title   string
}

// Outcome classifies a candidate against the set of known records.
type Outcome int

const (
	// New means neither bibcode nor title match any known record.
	New Outcome = iota
	// Identical means a known record has the same bibcode and title.
	Identical
	// BibcodeChanged means a known record has the same title but a
	// different bibcode; the stored bibcode should be updated in place.
	BibcodeChanged
	// TitleChanged means a known record has the same bibcode but a
	// different title; the stored title should be updated in place.
	TitleChanged
)

func (o Outcome) String() string {
	switch o {
	case Identical:
		return "identical"
	case BibcodeChanged:
		return "bibcode_changed"
	case TitleChanged:
		return "title_changed"
	case New:
		return "new"
	}
	return "unknown"
}

// Result is the classification of one candidate. Index points at the known
// record to mutate for the two "changed" outcomes; it is -1 for New.
type Result struct {
	Outcome Outcome
	Index   int
}

// Classify compares a candidate against the known set. Matching is by
// bibcode first, then by title; comparisons are exact and case-sensitive.
//
// When the candidate matches one known record by bibcode and a different
// one by title, the bibcode match wins and a warning is logged. The known
// set must not contain duplicate bibcodes; behavior is undefined if it does.
//
// Classify is pure apart from logging: the caller performs any mutation.
func Classify(candidate Record, known []Record) Result {
	byBibcode := -1
	byTitle := -1

	for i, k := range known {
		if byBibcode == -1 && k.Bibcode == candidate.Bibcode {
			byBibcode = i
		}
		if byTitle == -1 && k.Title == candidate.Title {
			byTitle = i
		}
	}

	switch {
	case byBibcode != -1 && known[byBibcode].Title == candidate.Title:
		return Result{Outcome: Identical, Index: byBibcode}
	case byBibcode != -1 && byTitle != -1:
		// Ambiguous: bibcode and title point at different records.
		logrus.WithFields(logrus.Fields{
			"bibcode":       candidate.Bibcode,
			"bibcode_match": known[byBibcode].Bibcode,
			"title_match":   known[byTitle].Bibcode,
		}).Warn("candidate matches different records by bibcode and title, preferring bibcode")
		return Result{Outcome: TitleChanged, Index: byBibcode}
	case byBibcode != -1:
		return Result{Outcome: TitleChanged, Index: byBibcode}
	case byTitle != -1:
		return Result{Outcome: BibcodeChanged, Index: byTitle}
	}

	return Result{Outcome: New, Index: -1}
}
