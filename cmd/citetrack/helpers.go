package main

import (
	"fmt"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/config"
	"github.com/mcalpine/citetrack/internal/store"
)

// openStore opens the snapshot database at its configured location.
func openStore() (*store.DB, error) {
	path, err := config.DBPath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

// resolveToken finds the ADS API token: environment and global config
// first, then the one stored in the database.
func resolveToken(db *store.DB) (string, error) {
	if token := config.Token(); token != "" {
		return token, nil
	}
	var token string
	err := db.WithTx(func(tx *store.Tx) error {
		var err error
		token, err = tx.GetToken()
		return err
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// newClient builds an ADS client, failing when no token can be found.
func newClient(db *store.DB) (*ads.Client, error) {
	token, err := resolveToken(db)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("no ADS API token configured: set %s, add ads_token to %s, or run 'citetrack token set'",
			config.EnvToken, config.GlobalConfigPath())
	}
	return ads.NewClient(ads.WithToken(token)), nil
}

// maxRowsOrDefault applies the flag, then config, then the API cap.
func maxRowsOrDefault(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if rows := config.MaxRows(); rows > 0 {
		return rows
	}
	return ads.MaxRows
}
