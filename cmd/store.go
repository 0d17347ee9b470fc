package main

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/raceform/raceform-cli/internal/store"
)

// openStore opens the configured results store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q (valid: sqlite, postgres)", cfg.Store.Driver)
	}
}

// flatSnapshotPath returns the configured path of the flat GB+IRE snapshot.
func flatSnapshotPath() string {
	return filepath.Join(cfg.Snapshot.Dir, cfg.Snapshot.Flat)
}
