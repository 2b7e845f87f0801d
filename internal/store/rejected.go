package store

import (
	"database/sql"
	"fmt"
	"time"
)

// AddRejected records a bibcode declined during deep-check review.
// Re-adding an already rejected bibcode is a no-op.
func (t *Tx) AddRejected(authorID int64, bibcode string, now time.Time) error {
	_, err := t.tx.Exec(
		`INSERT OR IGNORE INTO rejected_papers (author_id, bibcode, rejected_date) VALUES (?, ?, ?)`,
		authorID, bibcode, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("adding rejected paper: %w", err)
	}
	return nil
}

// ListRejected returns rejected papers, for one author or all (0).
func (t *Tx) ListRejected(authorID int64) ([]RejectedPaper, error) {
	query := `SELECT id, author_id, bibcode, rejected_date FROM rejected_papers`
	var args []any
	if authorID != 0 {
		query += ` WHERE author_id = ?`
		args = append(args, authorID)
	}
	query += ` ORDER BY id`

	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rejected papers: %w", err)
	}
	defer rows.Close()

	var rejected []RejectedPaper
	for rows.Next() {
		var r RejectedPaper
		var date sql.NullString
		if err := rows.Scan(&r.ID, &r.AuthorID, &r.Bibcode, &date); err != nil {
			return nil, err
		}
		r.RejectedDate = parseTime(date)
		rejected = append(rejected, r)
	}
	return rejected, rows.Err()
}

// ClearRejected bulk-deletes rejected markers so deep check re-prompts.
// Scoped to one author, or all authors when authorID is 0. Returns the
// number of markers cleared.
func (t *Tx) ClearRejected(authorID int64) (int, error) {
	var res sql.Result
	var err error
	if authorID != 0 {
		res, err = t.tx.Exec(`DELETE FROM rejected_papers WHERE author_id = ?`, authorID)
	} else {
		res, err = t.tx.Exec(`DELETE FROM rejected_papers`)
	}
	if err != nil {
		return 0, fmt.Errorf("clearing rejected papers: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
