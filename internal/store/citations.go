package store

import (
	"database/sql"
	"fmt"
)

// UpsertCitation inserts a citing paper or, when (bibcode, publication_id)
// already exists, refreshes its observed fields. The discovery date of an
// existing row is preserved. Returns the citation id and whether a new row
// was created.
func (t *Tx) UpsertCitation(c *Citation) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRow(
		`SELECT id FROM citations WHERE bibcode = ? AND publication_id = ?`,
		c.Bibcode, c.PublicationID,
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		res, err := t.tx.Exec(
			`INSERT INTO citations (publication_id, bibcode, title, authors, pubdate, doi, discovery_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.PublicationID, c.Bibcode, c.Title, c.Authors, c.PubDate, c.DOI, formatTime(c.DiscoveryDate),
		)
		if err != nil {
			return 0, false, fmt.Errorf("inserting citation: %w", err)
		}
		id, err = res.LastInsertId()
		return id, true, err
	case err != nil:
		return 0, false, fmt.Errorf("looking up citation: %w", err)
	}

	_, err = t.tx.Exec(
		`UPDATE citations SET title = ?, authors = ?, pubdate = ?, doi = ? WHERE id = ?`,
		c.Title, c.Authors, c.PubDate, c.DOI, id,
	)
	if err != nil {
		return 0, false, fmt.Errorf("updating citation: %w", err)
	}
	return id, false, nil
}

// UpdateCitationBibcode repairs bibcode drift for a stored citing paper.
func (t *Tx) UpdateCitationBibcode(id int64, bibcode string) error {
	res, err := t.tx.Exec(`UPDATE citations SET bibcode = ? WHERE id = ?`, bibcode, id)
	if err != nil {
		return fmt.Errorf("updating citation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("citation %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListCitations returns the citing papers recorded for a publication,
// ordered by discovery.
func (t *Tx) ListCitations(publicationID int64) ([]Citation, error) {
	rows, err := t.tx.Query(
		`SELECT id, publication_id, bibcode, title, authors, pubdate, doi, discovery_date
		FROM citations WHERE publication_id = ? ORDER BY id`,
		publicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing citations: %w", err)
	}
	defer rows.Close()

	var cites []Citation
	for rows.Next() {
		var c Citation
		var authors, pubdate, doi, discovered sql.NullString
		if err := rows.Scan(&c.ID, &c.PublicationID, &c.Bibcode, &c.Title, &authors, &pubdate, &doi, &discovered); err != nil {
			return nil, err
		}
		c.Authors = authors.String
		c.PubDate = pubdate.String
		c.DOI = doi.String
		c.DiscoveryDate = parseTime(discovered)
		cites = append(cites, c)
	}
	return cites, rows.Err()
}

// CountCitations returns how many citing papers are recorded for a
// publication.
func (t *Tx) CountCitations(publicationID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM citations WHERE publication_id = ?`, publicationID,
	).Scan(&n)
	return n, err
}
