package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/raceform/raceform-cli/internal/model"
	"github.com/raceform/raceform-cli/internal/snapshot"
)

// Source is the slice of the results store the prepare pipeline needs.
type Source interface {
	ResultsByType(ctx context.Context, raceType string) ([]model.ResultRow, error)
	Migrate(ctx context.Context) error
	RecordRun(ctx context.Context, run model.PrepareRun) error
}

// PrepareOpts configures one prepare run.
type PrepareOpts struct {
	RaceType     string // race type predicate, default Flat
	SnapshotPath string // destination snapshot file
}

// Prepare runs the full pipeline sequentially: read matching rows from the
// store, keep GB+IRE courses, derive outcome labels, and write the snapshot.
// Each stage completes before the next begins; any failure aborts the run.
// A run-log entry is recorded on success.
func Prepare(ctx context.Context, src Source, opts PrepareOpts) (model.PrepareRun, error) {
	if opts.RaceType == "" {
		opts.RaceType = model.FlatType
	}
	log := zap.L().With(
		zap.String("component", "pipeline.prepare"),
		zap.String("race_type", opts.RaceType),
	)
	started := time.Now().UTC()

	rows, err := src.ResultsByType(ctx, opts.RaceType)
	if err != nil {
		return model.PrepareRun{}, eris.Wrap(err, "prepare: read results")
	}
	read := int64(len(rows))
	log.Info("read results", zap.Int64("rows", read))

	rows = FilterRegions(rows)
	rows = DeriveLabels(rows)
	log.Info("filtered to GB+IRE", zap.Int("rows", len(rows)))

	if err := snapshot.Write(opts.SnapshotPath, rows); err != nil {
		return model.PrepareRun{}, eris.Wrap(err, "prepare: write snapshot")
	}

	finished := time.Now().UTC()
	run := model.PrepareRun{
		ID:         uuid.New().String(),
		RaceType:   opts.RaceType,
		Snapshot:   opts.SnapshotPath,
		RowsRead:   read,
		RowsKept:   int64(len(rows)),
		Elapsed:    finished.Sub(started),
		StartedAt:  started,
		FinishedAt: finished,
	}

	if err := src.Migrate(ctx); err != nil {
		return model.PrepareRun{}, eris.Wrap(err, "prepare: migrate run log")
	}
	if err := src.RecordRun(ctx, run); err != nil {
		return model.PrepareRun{}, eris.Wrap(err, "prepare: record run")
	}

	log.Info("snapshot written",
		zap.String("path", opts.SnapshotPath),
		zap.Int64("rows", run.RowsKept),
		zap.Duration("elapsed", run.Elapsed),
	)
	return run, nil
}

// Load reads a snapshot and recomputes the outcome labels. Stats consumers
// always load through here so a stale label inside the file is harmless.
func Load(path string) ([]model.ResultRow, error) {
	rows, err := snapshot.Read(path)
	if err != nil {
		return nil, err
	}
	return DeriveLabels(rows), nil
}
