package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SetToken stores the ADS API token. Only one token is active at a time:
// setting a new value overwrites the old one.
func (t *Tx) SetToken(token string, now time.Time) error {
	var id int64
	err := t.tx.QueryRow(`SELECT id FROM api_tokens LIMIT 1`).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		_, err = t.tx.Exec(
			`INSERT INTO api_tokens (token, added_date) VALUES (?, ?)`,
			token, formatTime(now),
		)
	case err == nil:
		_, err = t.tx.Exec(
			`UPDATE api_tokens SET token = ?, added_date = ? WHERE id = ?`,
			token, formatTime(now), id,
		)
	}
	if err != nil {
		return fmt.Errorf("setting token: %w", err)
	}
	return nil
}

// GetToken returns the stored ADS API token, or "" when none is set.
func (t *Tx) GetToken() (string, error) {
	var token string
	err := t.tx.QueryRow(`SELECT token FROM api_tokens LIMIT 1`).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	return token, nil
}
