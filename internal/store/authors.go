package store

import (
	"database/sql"
	"fmt"
)

// UpsertAuthor adds an author to track. When the (forename, surname, orcid)
// tuple already exists the existing id is returned rather than an error.
func (t *Tx) UpsertAuthor(forename, surname, orcid string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRow(
		`SELECT id FROM authors WHERE forename = ? AND surname = ? AND orcid = ?`,
		forename, surname, orcid,
	).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("looking up author: %w", err)
	}

	res, err := t.tx.Exec(
		`INSERT INTO authors (forename, surname, orcid) VALUES (?, ?, ?)`,
		forename, surname, orcid,
	)
	if err != nil {
		return 0, false, fmt.Errorf("inserting author: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// GetAuthor retrieves an author by id.
func (t *Tx) GetAuthor(id int64) (*Author, error) {
	var a Author
	err := t.tx.QueryRow(
		`SELECT id, forename, surname, orcid FROM authors WHERE id = ?`, id,
	).Scan(&a.ID, &a.Forename, &a.Surname, &a.ORCID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("author %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAuthors returns all tracked authors ordered by id.
func (t *Tx) ListAuthors() ([]Author, error) {
	rows, err := t.tx.Query(`SELECT id, forename, surname, orcid FROM authors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Forename, &a.Surname, &a.ORCID); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// DeleteAuthor removes an author. Publications, their citations, and
// rejected-paper markers cascade.
func (t *Tx) DeleteAuthor(id int64) error {
	res, err := t.tx.Exec(`DELETE FROM authors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting author: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("author %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountPublications returns how many non-ignored publications an author has.
func (t *Tx) CountPublications(authorID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM publications WHERE author_id = ? AND ignored = 0`,
		authorID,
	).Scan(&n)
	return n, err
}
