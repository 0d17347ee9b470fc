package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/raceform/raceform-cli/internal/model"
	"github.com/raceform/raceform-cli/internal/pipeline"
)

// SQLiteStore implements Store over a local raceform.db file using
// modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the SQLite database at the given path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CheckSchema verifies the data table and its required columns exist.
func (s *SQLiteStore) CheckSchema(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(`+ResultsTable+`)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: table_info")
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return eris.Wrap(err, "sqlite: scan table_info")
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: table_info rows")
	}

	if len(present) == 0 {
		return eris.Wrapf(ErrSchema, "table %q not found", ResultsTable)
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrSchema, "missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

const resultColumns = `race_id, date, course, type, pos, draw, horse, age, sex, lbs,
	jockey, trainer, sire, dam, "or", rpr, ts, prize`

// ResultsByType returns all rows matching the race type. The connection is
// the only resource held; rows are fully materialized before returning.
func (s *SQLiteStore) ResultsByType(ctx context.Context, raceType string) ([]model.ResultRow, error) {
	if err := s.CheckSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM `+ResultsTable+` WHERE type = ?`, raceType)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", ResultsTable)
	}
	defer rows.Close()

	var out []model.ResultRow
	for rows.Next() {
		row, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate results")
	}
	return out, nil
}

// scanner covers both *sql.Rows and *sql.Row.
type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (model.ResultRow, error) {
	var (
		raceID                          int64
		date, course, typ, pos          sql.NullString
		horse, sex, weight              sql.NullString
		jockey, trainer, sire, dam      sql.NullString
		prize                           sql.NullString
		draw, age, orRating, rpr, speed sql.NullInt64
	)
	err := sc.Scan(&raceID, &date, &course, &typ, &pos, &draw, &horse, &age, &sex, &weight,
		&jockey, &trainer, &sire, &dam, &orRating, &rpr, &speed, &prize)
	if err != nil {
		return model.ResultRow{}, eris.Wrap(err, "sqlite: scan result")
	}

	position, err := pipeline.ParsePosition(pos.String)
	if err != nil {
		return model.ResultRow{}, eris.Wrapf(err, "race %d horse %q", raceID, horse.String)
	}

	return model.ResultRow{
		RaceID:         raceID,
		Date:           date.String,
		Course:         course.String,
		Type:           typ.String,
		Position:       position,
		Draw:           nullInt(draw),
		Horse:          horse.String,
		Age:            nullInt(age),
		Sex:            sex.String,
		Weight:         weight.String,
		Jockey:         jockey.String,
		Trainer:        trainer.String,
		Sire:           sire.String,
		Dam:            dam.String,
		OfficialRating: nullInt(orRating),
		RPR:            nullInt(rpr),
		TopSpeed:       nullInt(speed),
		PrizeRaw:       prize.String,
		PrizeCurrency:  model.InferPrizeCurrency(prize.String),
	}, nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

const sqliteRunLog = `
CREATE TABLE IF NOT EXISTS prepare_runs (
	id          TEXT PRIMARY KEY,
	race_type   TEXT NOT NULL,
	snapshot    TEXT NOT NULL,
	rows_read   INTEGER NOT NULL,
	rows_kept   INTEGER NOT NULL,
	elapsed_ms  INTEGER NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prepare_runs_started_at ON prepare_runs(started_at);
`

// Migrate creates the prepare-run log table. The results table itself is
// never created or altered here; it belongs to the upstream dataset.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteRunLog)
	return eris.Wrap(err, "sqlite: migrate run log")
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run model.PrepareRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prepare_runs (id, race_type, snapshot, rows_read, rows_kept, elapsed_ms, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RaceType, run.Snapshot, run.RowsRead, run.RowsKept,
		run.Elapsed.Milliseconds(), run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert prepare run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.PrepareRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, race_type, snapshot, rows_read, rows_kept, elapsed_ms, started_at, finished_at
		 FROM prepare_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prepare runs")
	}
	defer rows.Close()

	var out []model.PrepareRun
	for rows.Next() {
		var (
			run       model.PrepareRun
			elapsedMS int64
		)
		if err := rows.Scan(&run.ID, &run.RaceType, &run.Snapshot, &run.RowsRead, &run.RowsKept,
			&elapsedMS, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prepare run")
		}
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, run)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate prepare runs")
}
