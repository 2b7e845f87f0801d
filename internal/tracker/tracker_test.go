package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/store"
)

// fakeSearcher serves canned query results keyed by query string.
type fakeSearcher struct {
	results map[string]*ads.QueryResult
	errs    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, q, fields string, rows int, sort string) (*ads.QueryResult, error) {
	f.queries = append(f.queries, q)
	if err, ok := f.errs[q]; ok {
		return nil, err
	}
	if r, ok := f.results[q]; ok {
		return r, nil
	}
	return &ads.QueryResult{Query: q}, nil
}

func (f *fakeSearcher) Citations(ctx context.Context, bibcode, fields string, rows int) (*ads.QueryResult, error) {
	return f.Search(ctx, fmt.Sprintf("citations(bibcode:%s)", bibcode), fields, rows, "")
}

func result(numFound int, papers ...ads.Paper) *ads.QueryResult {
	return &ads.QueryResult{NumFound: numFound, Papers: papers}
}

var (
	testAuthorQuery = ads.FirstAuthorQuery("Jane", "Doe", "")
	testDeepQuery   = ads.AuthorQuery("Jane", "Doe", "", false)
	testClock       = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "snapshot.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedAuthor(t *testing.T, db *store.DB) int64 {
	t.Helper()
	var id int64
	err := db.WithTx(func(tx *store.Tx) error {
		var err error
		id, _, err = tx.UpsertAuthor("Jane", "Doe", "")
		return err
	})
	if err != nil {
		t.Fatalf("seeding author: %v", err)
	}
	return id
}

func seedPub(t *testing.T, db *store.DB, p store.Publication) int64 {
	t.Helper()
	var id int64
	err := db.WithTx(func(tx *store.Tx) error {
		var err error
		id, err = tx.UpsertPublication(&p)
		return err
	})
	if err != nil {
		t.Fatalf("seeding publication: %v", err)
	}
	return id
}

func newTestTracker(db *store.DB, search Searcher, prompt Prompter) *Tracker {
	return New(db, search,
		WithPrompter(prompt),
		WithOutput(io.Discard),
		WithClock(testClock),
	)
}

func listPubs(t *testing.T, db *store.DB, authorID int64) []store.Publication {
	t.Helper()
	var pubs []store.Publication
	err := db.WithTx(func(tx *store.Tx) error {
		var err error
		pubs, err = tx.ListPublications(authorID, true)
		return err
	})
	if err != nil {
		t.Fatalf("listing publications: %v", err)
	}
	return pubs
}

func TestCheckDiscoversPublicationAndCitations(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)

	paper := ads.Paper{
		Bibcode:       "2020ApJ...100..1D",
		Title:         "Star formation in dwarf galaxies",
		Authors:       []string{"Doe, J.", "Smith, K."},
		CitationCount: 2,
		PubDate:       "2020-03-00",
	}
	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(1, paper),
		"citations(bibcode:2020ApJ...100..1D)": result(5,
			ads.Paper{Bibcode: "2023C1", Title: "Citing one", Date: "2023-02-01T00:00:00Z"},
			ads.Paper{Bibcode: "2024C2", Title: "Citing two", Date: "2024-05-01T00:00:00Z"},
		),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), 0, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	res := results[0]
	if res.Err != nil {
		t.Fatalf("author result error = %v", res.Err)
	}
	if len(res.Publications.New) != 1 || res.Publications.New[0].Bibcode != "2020ApJ...100..1D" {
		t.Fatalf("new publications = %+v", res.Publications.New)
	}
	if len(res.Citations) != 1 {
		t.Fatalf("citation deltas = %d, want 1", len(res.Citations))
	}
	delta := res.Citations[0]
	if len(delta.New) != 2 {
		t.Errorf("new citations = %d, want 2", len(delta.New))
	}
	if delta.Total != 5 {
		t.Errorf("total = %d, want the query's numFound 5", delta.Total)
	}

	// numFound is the authoritative count, not the rows returned.
	pubs := listPubs(t, db, authorID)
	if len(pubs) != 1 || pubs[0].CitationCount != 5 {
		t.Fatalf("stored pubs = %+v, want one with citation_count 5", pubs)
	}

	// A second run against identical data changes nothing.
	results, err = tr.CheckAll(context.Background(), 0, false)
	if err != nil {
		t.Fatalf("second CheckAll() error = %v", err)
	}
	if results[0].HasChanges() {
		t.Errorf("second run reported changes: %+v", results[0])
	}
}

func TestCheckRepairsBibcodeDrift(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	seedPub(t, db, store.Publication{
		AuthorID: authorID,
		Bibcode:  "2019arXiv1901.0001D",
		Title:    "Gas flows at high redshift",
	})

	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(1, ads.Paper{
			Bibcode: "2020MNRAS.490..3D",
			Title:   "Gas flows at high redshift",
		}),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), authorID, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}

	res := results[0]
	if len(res.Publications.New) != 0 {
		t.Errorf("renamed paper reported as new: %+v", res.Publications.New)
	}
	if len(res.Publications.Updated) != 1 {
		t.Fatalf("updated = %+v, want one entry", res.Publications.Updated)
	}

	pubs := listPubs(t, db, authorID)
	if len(pubs) != 1 {
		t.Fatalf("stored pubs = %d, want 1 (updated in place)", len(pubs))
	}
	if pubs[0].Bibcode != "2020MNRAS.490..3D" {
		t.Errorf("bibcode = %q, want the new one", pubs[0].Bibcode)
	}
}

func TestCheckRepairsTitleDrift(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	seedPub(t, db, store.Publication{
		AuthorID: authorID,
		Bibcode:  "2021MNRAS.500..2D",
		Title:    "Chemical evolution of the disc",
	})

	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(1, ads.Paper{
			Bibcode: "2021MNRAS.500..2D",
			Title:   "Chemical evolution of the Galactic disc",
		}),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), authorID, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}

	if len(results[0].Publications.Updated) != 1 {
		t.Fatalf("updated = %+v", results[0].Publications.Updated)
	}
	pubs := listPubs(t, db, authorID)
	if len(pubs) != 1 || pubs[0].Title != "Chemical evolution of the Galactic disc" {
		t.Errorf("stored pubs = %+v", pubs)
	}
}

func TestCheckRemovalPrompt(t *testing.T) {
	tests := []struct {
		name     string
		prompter Prompter
		wantKept bool
	}{
		{
			name:     "user confirms removal",
			prompter: &ScriptedPrompter{Answers: []bool{true}},
			wantKept: false,
		},
		{
			name:     "user declines removal",
			prompter: &ScriptedPrompter{Answers: []bool{false}},
			wantKept: true,
		},
		{
			name:     "non-interactive keeps",
			prompter: NonInteractivePrompter{},
			wantKept: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			authorID := seedAuthor(t, db)
			seedPub(t, db, store.Publication{
				AuthorID: authorID,
				Bibcode:  "2018OLD...1..1D",
				Title:    "A paper no longer attributed",
			})

			search := &fakeSearcher{results: map[string]*ads.QueryResult{
				testAuthorQuery: result(0),
			}}

			tr := newTestTracker(db, search, tt.prompter)
			results, err := tr.CheckAll(context.Background(), authorID, false)
			if err != nil {
				t.Fatalf("CheckAll() error = %v", err)
			}

			pubs := listPubs(t, db, authorID)
			if tt.wantKept {
				if len(pubs) != 1 {
					t.Errorf("stored pubs = %d, want 1 kept", len(pubs))
				}
				if len(results[0].Publications.Removed) != 0 {
					t.Errorf("removed delta = %+v, want empty", results[0].Publications.Removed)
				}
			} else {
				if len(pubs) != 0 {
					t.Errorf("stored pubs = %d, want 0 after removal", len(pubs))
				}
				if len(results[0].Publications.Removed) != 1 {
					t.Errorf("removed delta = %+v, want one entry", results[0].Publications.Removed)
				}
			}
		})
	}
}

func TestDeepPublicationExemptFromRemovalPrompt(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	seedPub(t, db, store.Publication{
		AuthorID: authorID,
		Bibcode:  "2019COAUTH.1..1X",
		Title:    "A co-authored paper",
		Deep:     true,
	})

	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(0),
	}}

	prompter := &ScriptedPrompter{Answers: []bool{true}}
	tr := newTestTracker(db, search, prompter)
	if _, err := tr.CheckAll(context.Background(), authorID, false); err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}

	if len(prompter.Asked) != 0 {
		t.Errorf("prompted about a deep-check publication: %v", prompter.Asked)
	}
	if pubs := listPubs(t, db, authorID); len(pubs) != 1 {
		t.Errorf("stored pubs = %d, want 1", len(pubs))
	}
}

func TestDeepCheckAcceptAndReject(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	seedPub(t, db, store.Publication{
		AuthorID: authorID,
		Bibcode:  "2020KNOWN.1..1D",
		Title:    "Already tracked",
	})

	known := ads.Paper{Bibcode: "2020KNOWN.1..1D", Title: "Already tracked"}
	candidateB := ads.Paper{Bibcode: "2021NEWB..1..1X", Title: "Candidate B"}
	candidateC := ads.Paper{Bibcode: "2021NEWC..1..1X", Title: "Candidate C"}

	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(1, known),
		testDeepQuery:   result(3, known, candidateB, candidateC),
	}}

	// Accept B, reject C.
	prompter := &ScriptedPrompter{Answers: []bool{true, false}}
	tr := newTestTracker(db, search, prompter)
	results, err := tr.CheckAll(context.Background(), authorID, true)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}

	res := results[0]
	if res.Deep == nil {
		t.Fatal("deep result missing")
	}
	if res.Deep.Candidates != 2 {
		t.Errorf("candidates = %d, want 2 (known paper excluded)", res.Deep.Candidates)
	}
	if len(res.Deep.Accepted) != 1 || res.Deep.Accepted[0].Bibcode != candidateB.Bibcode {
		t.Errorf("accepted = %+v", res.Deep.Accepted)
	}
	if len(res.Deep.Rejected) != 1 || res.Deep.Rejected[0] != candidateC.Bibcode {
		t.Errorf("rejected = %+v", res.Deep.Rejected)
	}

	err = db.WithTx(func(tx *store.Tx) error {
		pub, err := tx.GetPublicationByBibcode(candidateB.Bibcode, authorID)
		if err != nil {
			return err
		}
		if !pub.Deep {
			t.Error("accepted candidate not flagged as deep")
		}
		rejected, err := tx.ListRejected(authorID)
		if err != nil {
			return err
		}
		if len(rejected) != 1 || rejected[0].Bibcode != candidateC.Bibcode {
			t.Errorf("rejected rows = %+v", rejected)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("inspecting snapshot: %v", err)
	}

	// A later deep check offers neither the accepted nor the rejected
	// candidate again.
	prompter2 := &ScriptedPrompter{}
	tr2 := newTestTracker(db, search, prompter2)
	results, err = tr2.CheckAll(context.Background(), authorID, true)
	if err != nil {
		t.Fatalf("second CheckAll() error = %v", err)
	}
	if results[0].Deep.Candidates != 0 {
		t.Errorf("candidates on second run = %d, want 0", results[0].Deep.Candidates)
	}
}

func TestDeepCheckNonInteractiveDefersDecisions(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)

	candidate := ads.Paper{Bibcode: "2021NEWB..1..1X", Title: "Candidate B"}
	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(0),
		testDeepQuery:   result(1, candidate),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), authorID, true)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}

	res := results[0]
	if res.Deep == nil || res.Deep.Candidates != 1 {
		t.Fatalf("deep result = %+v, want 1 counted candidate", res.Deep)
	}
	if len(res.Deep.Accepted) != 0 || len(res.Deep.Rejected) != 0 {
		t.Errorf("non-interactive run decided candidates: %+v", res.Deep)
	}

	// Undecided candidates must not be marked rejected.
	err = db.WithTx(func(tx *store.Tx) error {
		rejected, err := tx.ListRejected(authorID)
		if err != nil {
			return err
		}
		if len(rejected) != 0 {
			t.Errorf("rejected rows = %+v, want none", rejected)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("inspecting snapshot: %v", err)
	}
}

func TestCheckIgnoredPublicationSitsOut(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	pubID := seedPub(t, db, store.Publication{
		AuthorID: authorID,
		Bibcode:  "2020IGN...1..1D",
		Title:    "An ignored paper",
	})
	err := db.WithTx(func(tx *store.Tx) error {
		return tx.SetIgnored(pubID, true, "conference abstract")
	})
	if err != nil {
		t.Fatalf("ignoring publication: %v", err)
	}

	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(1, ads.Paper{Bibcode: "2020IGN...1..1D", Title: "An ignored paper"}),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), authorID, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}
	if results[0].HasChanges() {
		t.Errorf("ignored publication produced changes: %+v", results[0])
	}
	for _, q := range search.queries {
		if q == "citations(bibcode:2020IGN...1..1D)" {
			t.Error("citations fetched for an ignored publication")
		}
	}
}

func TestCheckRefreshesDeepPublicationCitations(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	seedPub(t, db, store.Publication{
		AuthorID: authorID,
		Bibcode:  "2019DEEP..1..1X",
		Title:    "A co-authored paper accepted earlier",
		Deep:     true,
	})

	// The first-author query never returns deep-check publications, but
	// their citations must still be refreshed.
	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(0),
		"citations(bibcode:2019DEEP..1..1X)": result(1,
			ads.Paper{Bibcode: "2024C1", Title: "Citing one", Date: "2024-05-01T00:00:00Z"},
		),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), authorID, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}

	res := results[0]
	if res.Err != nil {
		t.Fatalf("author result error = %v", res.Err)
	}
	if len(res.Citations) != 1 || res.Citations[0].Publication.Bibcode != "2019DEEP..1..1X" {
		t.Fatalf("citation deltas = %+v, want one for the deep publication", res.Citations)
	}
	if len(res.Citations[0].New) != 1 {
		t.Errorf("new citations = %d, want 1", len(res.Citations[0].New))
	}

	pubs := listPubs(t, db, authorID)
	if len(pubs) != 1 || pubs[0].CitationCount != 1 {
		t.Fatalf("stored pubs = %+v, want the deep entry with citation_count 1", pubs)
	}
}

func TestCheckRefreshesKeptUnmatchedPublication(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	seedPub(t, db, store.Publication{
		AuthorID: authorID,
		Bibcode:  "2018OLD...1..1D",
		Title:    "A paper no longer attributed",
	})

	search := &fakeSearcher{results: map[string]*ads.QueryResult{
		testAuthorQuery: result(0),
		"citations(bibcode:2018OLD...1..1D)": result(2,
			ads.Paper{Bibcode: "2023C1", Title: "Citing one"},
			ads.Paper{Bibcode: "2024C2", Title: "Citing two"},
		),
	}}

	// User declines removal; the kept entry still refreshes.
	tr := newTestTracker(db, search, &ScriptedPrompter{Answers: []bool{false}})
	results, err := tr.CheckAll(context.Background(), authorID, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}
	if len(results[0].Citations) != 1 || len(results[0].Citations[0].New) != 2 {
		t.Fatalf("citation deltas = %+v, want 2 new for the kept entry", results[0].Citations)
	}
	pubs := listPubs(t, db, authorID)
	if len(pubs) != 1 || pubs[0].CitationCount != 2 {
		t.Errorf("stored pubs = %+v, want citation_count 2", pubs)
	}
}

func TestCheckPrimaryQueryFailureIsolatesAuthor(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)
	seedPub(t, db, store.Publication{
		AuthorID:      authorID,
		Bibcode:       "2020A",
		Title:         "Untouched",
		CitationCount: 7,
	})

	search := &fakeSearcher{errs: map[string]error{
		testAuthorQuery: fmt.Errorf("%w: connection refused", ads.ErrNetworkError),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), 0, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v, transient failures should not abort the run", err)
	}
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("results = %+v, want one with Err set", results)
	}

	pubs := listPubs(t, db, authorID)
	if len(pubs) != 1 || pubs[0].CitationCount != 7 {
		t.Errorf("snapshot touched after failed query: %+v", pubs)
	}
}

func TestCheckAuthFailureAbortsRun(t *testing.T) {
	db := newTestDB(t)
	seedAuthor(t, db)

	search := &fakeSearcher{errs: map[string]error{
		testAuthorQuery: fmt.Errorf("%w: status 401", ads.ErrAuth),
	}}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	_, err := tr.CheckAll(context.Background(), 0, false)
	if !errors.Is(err, ads.ErrAuth) {
		t.Errorf("CheckAll() error = %v, want ErrAuth surfaced", err)
	}
}

func TestCheckCitationFailureSkipsPublication(t *testing.T) {
	db := newTestDB(t)
	authorID := seedAuthor(t, db)

	paperA := ads.Paper{Bibcode: "2020A", Title: "Paper A"}
	paperB := ads.Paper{Bibcode: "2020B", Title: "Paper B"}
	search := &fakeSearcher{
		results: map[string]*ads.QueryResult{
			testAuthorQuery:            result(2, paperA, paperB),
			"citations(bibcode:2020B)": result(1, ads.Paper{Bibcode: "2023C", Title: "Citing"}),
		},
		errs: map[string]error{
			"citations(bibcode:2020A)": fmt.Errorf("%w: timeout", ads.ErrNetworkError),
		},
	}

	tr := newTestTracker(db, search, NonInteractivePrompter{})
	results, err := tr.CheckAll(context.Background(), authorID, false)
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}

	res := results[0]
	if res.Err != nil {
		t.Fatalf("author result error = %v, citation failure should not abort", res.Err)
	}
	if len(res.SkippedPublications) != 1 || res.SkippedPublications[0] != "2020A" {
		t.Errorf("skipped = %v, want [2020A]", res.SkippedPublications)
	}
	if len(res.Publications.New) != 2 {
		t.Errorf("new pubs = %d, both should still be recorded", len(res.Publications.New))
	}
	if len(res.Citations) != 1 || res.Citations[0].Publication.Bibcode != "2020B" {
		t.Errorf("citation deltas = %+v, want just 2020B", res.Citations)
	}
}

func TestCheckUnknownAuthorID(t *testing.T) {
	db := newTestDB(t)
	tr := newTestTracker(db, &fakeSearcher{}, NonInteractivePrompter{})
	_, err := tr.CheckAll(context.Background(), 42, false)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("CheckAll() error = %v, want ErrNotFound", err)
	}
}
