package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceform/raceform-cli/internal/model"
)

func sp(s string) *string { return &s }
func ip(v int64) *int64   { return &v }

func columnRows(cols ...string) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"column_name"})
	for _, c := range cols {
		rows.AddRow(c)
	}
	return rows
}

func expectSchemaOK(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs(ResultsTable).
		WillReturnRows(columnRows(requiredColumns...))
}

func TestPostgres_CheckSchema_OK(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectSchemaOK(mock)

	s := NewPostgresFromPool(mock)
	require.NoError(t, s.CheckSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CheckSchema_MissingColumns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs(ResultsTable).
		WillReturnRows(columnRows("race_id", "horse"))

	s := NewPostgresFromPool(mock)
	err = s.CheckSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "pos")
}

func TestPostgres_CheckSchema_MissingTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs(ResultsTable).
		WillReturnRows(columnRows())

	s := NewPostgresFromPool(mock)
	err = s.CheckSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestPostgres_ResultsByType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectSchemaOK(mock)

	resultRows := pgxmock.NewRows([]string{
		"race_id", "date", "course", "type", "pos", "draw", "horse", "age",
		"sex", "lbs", "jockey", "trainer", "sire", "dam", "or", "rpr", "ts", "prize",
	}).AddRow(
		int64(1), sp("2019-05-04"), sp("Newmarket"), sp("Flat"), sp("1"),
		ip(3), sp("Alpha"), ip(3), sp("C"), sp("9-2"), sp("J Smith"),
		sp("T Jones"), sp("Sire"), sp("Dam"), ip(88), ip(95), ip(80), sp("£4,528"),
	).AddRow(
		int64(1), sp("2019-05-04"), sp("Curragh (IRE)"), sp("Flat"), sp("40"),
		nil, sp("Beta"), nil, sp("F"), sp("8-11"), sp("J"), sp("T"),
		sp("S"), sp("D"), nil, nil, nil, sp(""),
	)

	mock.ExpectQuery("SELECT race_id, date, course").
		WithArgs(model.FlatType).
		WillReturnRows(resultRows)

	s := NewPostgresFromPool(mock)
	rows, err := s.ResultsByType(context.Background(), model.FlatType)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].Position)
	assert.Equal(t, "GBP", rows[0].PrizeCurrency)
	require.NotNil(t, rows[0].Draw)
	assert.Equal(t, int64(3), *rows[0].Draw)

	assert.Equal(t, int64(40), rows[1].Position)
	assert.Nil(t, rows[1].Draw)
	assert.Nil(t, rows[1].Age)
	assert.Empty(t, rows[1].PrizeCurrency)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunLog(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS prepare_runs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO prepare_runs").
		WithArgs("run-1", "Flat", "cache/flat_gb_ire.arrow", int64(100), int64(90),
			int64(1500), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresFromPool(mock)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	run := model.PrepareRun{
		ID:         "run-1",
		RaceType:   "Flat",
		Snapshot:   "cache/flat_gb_ire.arrow",
		RowsRead:   100,
		RowsKept:   90,
		Elapsed:    1500 * time.Millisecond,
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
	}
	require.NoError(t, s.RecordRun(ctx, run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRuns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, race_type, snapshot").
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "race_type", "snapshot", "rows_read", "rows_kept",
			"elapsed_ms", "started_at", "finished_at",
		}).AddRow("run-1", "Flat", "cache/flat_gb_ire.arrow", int64(100),
			int64(90), int64(1500), started, started.Add(2*time.Second)))

	s := NewPostgresFromPool(mock)
	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Elapsed)
	require.NoError(t, mock.ExpectationsWereMet())
}
