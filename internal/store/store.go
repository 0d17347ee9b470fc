// Package store reads race results from the relational results store and
// keeps the prepare-run log. Two backends exist: a local SQLite file (the
// Kaggle-distributed raceform.db) and Postgres for a shared copy.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/raceform/raceform-cli/internal/model"
)

// ResultsTable is the single table the cleaned race data lives in.
const ResultsTable = "data"

// requiredColumns must all be present in the results table. Schema evolution
// upstream is tolerated as long as these survive.
var requiredColumns = []string{
	"race_id", "date", "course", "type", "pos", "draw",
	"horse", "age", "sex", "lbs", "jockey", "trainer",
	"sire", "dam", "or", "rpr", "ts", "prize",
}

// ErrSchema marks a missing results table or column. It is fatal to the run:
// there is no degraded mode for a store that cannot serve the modeled rows.
var ErrSchema = eris.New("store: results schema mismatch")

// Store is the read-only view of the results store, plus the prepare-run log
// the tool maintains alongside it.
type Store interface {
	// CheckSchema verifies the results table and required columns exist.
	CheckSchema(ctx context.Context) error

	// ResultsByType returns every row whose race type matches, with all
	// modeled columns populated and prize currency inferred.
	ResultsByType(ctx context.Context, raceType string) ([]model.ResultRow, error)

	// Run log.
	Migrate(ctx context.Context) error
	RecordRun(ctx context.Context, run model.PrepareRun) error
	ListRuns(ctx context.Context, limit int) ([]model.PrepareRun, error)

	Close() error
}

// FlatResults returns all flat-race rows.
func FlatResults(ctx context.Context, s Store) ([]model.ResultRow, error) {
	return s.ResultsByType(ctx, model.FlatType)
}
