package store

import (
	"database/sql"
	"fmt"
	"time"
)

const selectPubFields = `id, author_id, bibcode, title, pubdate, authors,
	citation_count, last_updated, ignored, ignore_reason, deep`

// UpsertPublication inserts a publication or, when (bibcode, author_id)
// already exists, refreshes its observed fields in place. The ignored and
// deep flags of an existing row are preserved. Returns the publication id.
func (t *Tx) UpsertPublication(p *Publication) (int64, error) {
	var id int64
	err := t.tx.QueryRow(
		`SELECT id FROM publications WHERE bibcode = ? AND author_id = ?`,
		p.Bibcode, p.AuthorID,
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		res, err := t.tx.Exec(
			`INSERT INTO publications
				(author_id, bibcode, title, pubdate, authors, citation_count, last_updated, ignored, ignore_reason, deep)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.AuthorID, p.Bibcode, p.Title, p.PubDate, p.Authors,
			p.CitationCount, formatTime(p.LastUpdated), boolToInt(p.Ignored), p.IgnoreReason, boolToInt(p.Deep),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting publication: %w", err)
		}
		return res.LastInsertId()
	case err != nil:
		return 0, fmt.Errorf("looking up publication: %w", err)
	}

	_, err = t.tx.Exec(
		`UPDATE publications
			SET title = ?, pubdate = ?, authors = ?, citation_count = ?, last_updated = ?
		WHERE id = ?`,
		p.Title, p.PubDate, p.Authors, p.CitationCount, formatTime(p.LastUpdated), id,
	)
	if err != nil {
		return 0, fmt.Errorf("updating publication: %w", err)
	}
	return id, nil
}

// UpdatePublicationBibcode repairs bibcode drift for an existing row.
func (t *Tx) UpdatePublicationBibcode(id int64, bibcode string, now time.Time) error {
	return t.execPubUpdate(id,
		`UPDATE publications SET bibcode = ?, last_updated = ? WHERE id = ?`,
		bibcode, formatTime(now), id)
}

// UpdatePublicationTitle repairs title drift for an existing row.
func (t *Tx) UpdatePublicationTitle(id int64, title string, now time.Time) error {
	return t.execPubUpdate(id,
		`UPDATE publications SET title = ?, last_updated = ? WHERE id = ?`,
		title, formatTime(now), id)
}

// SetCitationCount records the API's authoritative citation total and
// bumps the refresh timestamp. The count reflects the external total, not
// the locally reconciled citation list size.
func (t *Tx) SetCitationCount(id int64, count int, now time.Time) error {
	return t.execPubUpdate(id,
		`UPDATE publications SET citation_count = ?, last_updated = ? WHERE id = ?`,
		count, formatTime(now), id)
}

// SetIgnored marks a publication as ignored with an optional reason, or
// restores it when ignored is false. Ignored publications keep their
// citation history but drop out of reconciliation and default listings.
func (t *Tx) SetIgnored(id int64, ignored bool, reason string) error {
	if !ignored {
		reason = ""
	}
	return t.execPubUpdate(id,
		`UPDATE publications SET ignored = ?, ignore_reason = ? WHERE id = ?`,
		boolToInt(ignored), reason, id)
}

func (t *Tx) execPubUpdate(id int64, query string, args ...any) error {
	res, err := t.tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("updating publication: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("publication %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeletePublication removes a publication and its citations.
func (t *Tx) DeletePublication(id int64) error {
	res, err := t.tx.Exec(`DELETE FROM publications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting publication: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("publication %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetPublication retrieves a publication by id.
func (t *Tx) GetPublication(id int64) (*Publication, error) {
	row := t.tx.QueryRow(`SELECT `+selectPubFields+` FROM publications WHERE id = ?`, id)
	p, err := scanPublication(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("publication %d: %w", id, ErrNotFound)
	}
	return p, err
}

// GetPublicationByBibcode retrieves a publication by (bibcode, author id).
func (t *Tx) GetPublicationByBibcode(bibcode string, authorID int64) (*Publication, error) {
	row := t.tx.QueryRow(
		`SELECT `+selectPubFields+` FROM publications WHERE bibcode = ? AND author_id = ?`,
		bibcode, authorID,
	)
	p, err := scanPublication(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("publication %s: %w", bibcode, ErrNotFound)
	}
	return p, err
}

// ListPublications returns an author's publications ordered by citation
// count descending. Ignored publications are excluded unless requested.
func (t *Tx) ListPublications(authorID int64, includeIgnored bool) ([]Publication, error) {
	query := `SELECT ` + selectPubFields + ` FROM publications WHERE author_id = ?`
	if !includeIgnored {
		query += ` AND ignored = 0`
	}
	query += ` ORDER BY citation_count DESC, id`

	rows, err := t.tx.Query(query, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// ListIgnored returns ignored publications, for one author or all (0).
func (t *Tx) ListIgnored(authorID int64) ([]Publication, error) {
	query := `SELECT ` + selectPubFields + ` FROM publications WHERE ignored = 1`
	var args []any
	if authorID != 0 {
		query += ` AND author_id = ?`
		args = append(args, authorID)
	}
	query += ` ORDER BY id`

	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ignored publications: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPublication(s scanner) (*Publication, error) {
	var p Publication
	var pubdate, authors, lastUpdated, reason sql.NullString
	var ignored, deep int

	err := s.Scan(
		&p.ID, &p.AuthorID, &p.Bibcode, &p.Title, &pubdate, &authors,
		&p.CitationCount, &lastUpdated, &ignored, &reason, &deep,
	)
	if err != nil {
		return nil, err
	}

	p.PubDate = pubdate.String
	p.Authors = authors.String
	p.LastUpdated = parseTime(lastUpdated)
	p.Ignored = ignored != 0
	p.IgnoreReason = reason.String
	p.Deep = deep != 0
	return &p, nil
}

func scanPublications(rows *sql.Rows) ([]Publication, error) {
	var pubs []Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, *p)
	}
	return pubs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
