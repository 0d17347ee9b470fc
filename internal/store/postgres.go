package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/raceform/raceform-cli/internal/model"
	"github.com/raceform/raceform-cli/internal/pipeline"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store over a shared Postgres copy of the dataset.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CheckSchema verifies the data table and required columns exist.
func (s *PostgresStore) CheckSchema(ctx context.Context) error {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1`, ResultsTable)
	if err != nil {
		return eris.Wrap(err, "postgres: query information_schema")
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return eris.Wrap(err, "postgres: scan column name")
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "postgres: iterate columns")
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

func (s *PostgresStore) ResultsByType(ctx context.Context, raceType string) ([]model.ResultRow, error) {
	if err := s.CheckSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT race_id, date, course, type, pos, draw, horse, age, sex, lbs,
		        jockey, trainer, sire, dam, "or", rpr, ts, prize
		 FROM `+ResultsTable+` WHERE type = $1`, raceType)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", ResultsTable)
	}
	defer rows.Close()

	var out []model.ResultRow
	for rows.Next() {
		var (
			raceID                          int64
			date, course, typ, pos          *string
			horse, sex, weight              *string
			jockey, trainer, sire, dam      *string
			prize                           *string
			draw, age, orRating, rpr, speed *int64
		)
		err := rows.Scan(&raceID, &date, &course, &typ, &pos, &draw, &horse, &age, &sex, &weight,
			&jockey, &trainer, &sire, &dam, &orRating, &rpr, &speed, &prize)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}

		position, err := pipeline.ParsePosition(deref(pos))
		if err != nil {
			return nil, eris.Wrapf(err, "race %d horse %q", raceID, deref(horse))
		}

		out = append(out, model.ResultRow{
			RaceID:         raceID,
			Date:           deref(date),
			Course:         deref(course),
			Type:           deref(typ),
			Position:       position,
			Draw:           draw,
			Horse:          deref(horse),
			Age:            age,
			Sex:            deref(sex),
			Weight:         deref(weight),
			Jockey:         deref(jockey),
			Trainer:        deref(trainer),
			Sire:           deref(sire),
			Dam:            deref(dam),
			OfficialRating: orRating,
			RPR:            rpr,
			TopSpeed:       speed,
			PrizeRaw:       deref(prize),
			PrizeCurrency:  model.InferPrizeCurrency(deref(prize)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate results")
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const postgresRunLog = `
CREATE TABLE IF NOT EXISTS prepare_runs (
	id          TEXT PRIMARY KEY,
	race_type   TEXT NOT NULL,
	snapshot    TEXT NOT NULL,
	rows_read   BIGINT NOT NULL,
	rows_kept   BIGINT NOT NULL,
	elapsed_ms  BIGINT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
)`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresRunLog)
	return eris.Wrap(err, "postgres: migrate run log")
}

func (s *PostgresStore) RecordRun(ctx context.Context, run model.PrepareRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO prepare_runs (id, race_type, snapshot, rows_read, rows_kept, elapsed_ms, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.RaceType, run.Snapshot, run.RowsRead, run.RowsKept,
		run.Elapsed.Milliseconds(), run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: insert prepare run")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.PrepareRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, race_type, snapshot, rows_read, rows_kept, elapsed_ms, started_at, finished_at
		 FROM prepare_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prepare runs")
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
			return nil, eris.Wrap(err, "postgres: scan prepare run")
		}
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, run)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate prepare runs")
}
