// Package store owns the persisted citation snapshot: tracked authors,
// their publications, discovered citations, rejected deep-check candidates,
// and the ADS API token.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the referenced author or publication does not exist.
var ErrNotFound = errors.New("not found in snapshot")

// Author is an identity under citation tracking.
// The tuple (forename, surname, orcid) is unique.
type Author struct {
	ID       int64
	Forename string
	Surname  string
	ORCID    string
}

// Name returns the author's display name.
func (a Author) Name() string {
	return a.Forename + " " + a.Surname
}

// Publication is a paper attached to a tracked author, as last observed
// from ADS. (bibcode, author_id) is unique.
type Publication struct {
	ID            int64
	AuthorID      int64
	Bibcode       string
	Title         string
	PubDate       string
	Authors       string // semicolon-separated author list
	CitationCount int
	LastUpdated   time.Time
	Ignored       bool
	IgnoreReason  string
	Deep          bool // added via deep check, exempt from removal prompts
}

// Citation is a paper discovered to cite a publication.
// (bibcode, publication_id) is unique.
type Citation struct {
	ID            int64
	PublicationID int64
	Bibcode       string
	Title         string
	Authors       string
	PubDate       string
	DOI           string
	DiscoveryDate time.Time
}

// RejectedPaper marks a bibcode declined during deep-check review so it is
// not offered again. (bibcode, author_id) is unique.
type RejectedPaper struct {
	ID           int64
	AuthorID     int64
	Bibcode      string
	RejectedDate time.Time
}

// DB wraps the snapshot SQLite database.
type DB struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS authors (
		id INTEGER PRIMARY KEY,
		forename TEXT NOT NULL,
		surname TEXT NOT NULL,
		orcid TEXT NOT NULL DEFAULT '',
		UNIQUE (forename, surname, orcid)
	);

	CREATE TABLE IF NOT EXISTS publications (
		id INTEGER PRIMARY KEY,
		author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
		bibcode TEXT NOT NULL,
		title TEXT NOT NULL,
		pubdate TEXT,
		authors TEXT,
		citation_count INTEGER NOT NULL DEFAULT 0,
		last_updated TEXT,
		ignored INTEGER NOT NULL DEFAULT 0,
		ignore_reason TEXT,
		deep INTEGER NOT NULL DEFAULT 0,
		UNIQUE (bibcode, author_id)
	);

	CREATE TABLE IF NOT EXISTS citations (
		id INTEGER PRIMARY KEY,
		publication_id INTEGER NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
		bibcode TEXT NOT NULL,
		title TEXT NOT NULL,
		authors TEXT,
		pubdate TEXT,
		doi TEXT,
		discovery_date TEXT,
		UNIQUE (bibcode, publication_id)
	);

	CREATE TABLE IF NOT EXISTS rejected_papers (
		id INTEGER PRIMARY KEY,
		author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
		bibcode TEXT NOT NULL,
		rejected_date TEXT,
		UNIQUE (bibcode, author_id)
	);

	CREATE TABLE IF NOT EXISTS api_tokens (
		id INTEGER PRIMARY KEY,
		token TEXT NOT NULL,
		added_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_publications_author ON publications(author_id);
	CREATE INDEX IF NOT EXISTS idx_citations_publication ON citations(publication_id);
`

// Open opens or creates the snapshot database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Tx is a transactional view of the snapshot. All operations are methods on
// Tx so that one logical unit of work commits or rolls back as a whole.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back if fn returns an error or panics.
func (d *DB) WithTx(fn func(*Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const timeFormat = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
