package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raceform/raceform-cli/internal/model"
	"github.com/raceform/raceform-cli/internal/pipeline"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const fixtureSchema = `
CREATE TABLE data (
	race_id INTEGER,
	date    TEXT,
	course  TEXT,
	type    TEXT,
	pos     TEXT,
	draw    INTEGER,
	horse   TEXT,
	age     INTEGER,
	sex     TEXT,
	lbs     TEXT,
	jockey  TEXT,
	trainer TEXT,
	sire    TEXT,
	dam     TEXT,
	"or"    INTEGER,
	rpr     INTEGER,
	ts      INTEGER,
	prize   TEXT
)`

// newFixtureDB creates a SQLite file with the results schema and the given
// rows. Each row is the full 18-column insert tuple.
func newFixtureDB(t *testing.T, rows ...[]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raceform.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(fixtureSchema)
	require.NoError(t, err)

	for _, row := range rows {
		_, err = db.Exec(`INSERT INTO data VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, row...)
		require.NoError(t, err)
	}
	return path
}

func flatRow(raceID int64, course, pos string, draw, age any, prize string) []any {
	return []any{raceID, "2019-05-04", course, "Flat", pos, draw,
		"Horse" + pos, age, "C", "9-0", "J Smith", "T Jones", "Sire", "Dam",
		80, 90, 75, prize}
}

func TestSQLite_ResultsByType(t *testing.T) {
	path := newFixtureDB(t,
		flatRow(1, "Newmarket", "1", 3, 3, "£4,528"),
		flatRow(1, "Curragh (IRE)", "40", nil, nil, "€10,000"),
		flatRow(2, "Chantilly (FR)", "2", 1, 4, "$5,000"),
		[]any{3, "2019-05-05", "Cheltenham", "Chase", "1", nil, "Jumper", 7,
			"G", "11-0", "J", "T", "S", "D", nil, nil, nil, "£10,000"},
	)

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.ResultsByType(context.Background(), model.FlatType)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Newmarket", rows[0].Course)
	assert.Equal(t, int64(1), rows[0].Position)
	require.NotNil(t, rows[0].Draw)
	assert.Equal(t, int64(3), *rows[0].Draw)
	assert.Equal(t, "GBP", rows[0].PrizeCurrency)

	assert.Equal(t, int64(40), rows[1].Position)
	assert.Nil(t, rows[1].Draw)
	assert.Nil(t, rows[1].Age)
	assert.Equal(t, "EUR", rows[1].PrizeCurrency)

	assert.Equal(t, "USD", rows[2].PrizeCurrency)

	// Labels are not set by the store; the pipeline derives them.
	assert.False(t, rows[0].Won)
}

func TestSQLite_ResultsByType_BadPosition(t *testing.T) {
	path := newFixtureDB(t, flatRow(1, "Newmarket", "DSQ", 3, 3, "£100"))

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ResultsByType(context.Background(), model.FlatType)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrBadPosition))
}

func TestSQLite_CheckSchema_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	err = s.CheckSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestSQLite_CheckSchema_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE data (race_id INTEGER, horse TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	err = s.CheckSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "pos")
}

func TestSQLite_RunLog(t *testing.T) {
	path := newFixtureDB(t)
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	// Migrate is safe to repeat.
	require.NoError(t, s.Migrate(ctx))

	now := time.Now().UTC().Truncate(time.Second)
	run := model.PrepareRun{
		ID:         "run-1",
		RaceType:   "Flat",
		Snapshot:   "cache/flat_gb_ire.arrow",
		RowsRead:   100,
		RowsKept:   90,
		Elapsed:    1500 * time.Millisecond,
		StartedAt:  now,
		FinishedAt: now.Add(time.Second),
	}
	require.NoError(t, s.RecordRun(ctx, run))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, int64(90), runs[0].RowsKept)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Elapsed)
}

func TestSQLite_MergeFrom(t *testing.T) {
	dst := newFixtureDB(t, flatRow(1, "Newmarket", "1", 3, 3, "£100"))
	src := newFixtureDB(t,
		flatRow(1, "Newmarket", "1", 3, 3, "£100"), // already present
		flatRow(2, "Ascot", "2", 5, 4, "£200"),
		flatRow(3, "Curragh (IRE)", "3", 1, 5, "€300"),
	)

	s, err := NewSQLite(dst)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	n, err := s.MergeFrom(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := s.ResultsByType(ctx, model.FlatType)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// Second merge finds nothing new.
	n, err = s.MergeFrom(ctx, src)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_MergeFrom_MissingSource(t *testing.T) {
	dst := newFixtureDB(t)
	s, err := NewSQLite(dst)
	require.NoError(t, err)
	defer s.Close()

	// Attaching a nonexistent path creates an empty database with no tables.
	_, err = s.MergeFrom(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}
