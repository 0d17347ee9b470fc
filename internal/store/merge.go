package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MergeFrom imports rows from another copy of the dataset (e.g. a freshly
// downloaded Kaggle release) into this database. Only rows whose
// (race_id, horse) pair is absent locally are inserted; existing rows are
// never touched. Returns the number of imported rows.
func (s *SQLiteStore) MergeFrom(ctx context.Context, srcPath string) (int64, error) {
	log := zap.L().With(zap.String("component", "store.merge"))

	if _, err := s.db.ExecContext(ctx, `ATTACH DATABASE ? AS src`, srcPath); err != nil {
		return 0, eris.Wrapf(err, "merge: attach %s", srcPath)
	}
	defer func() {
		if _, err := s.db.ExecContext(ctx, `DETACH DATABASE src`); err != nil {
			log.Warn("merge: detach failed", zap.Error(err))
		}
	}()

	cols, err := s.sourceColumns(ctx)
	if err != nil {
		return 0, err
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
	}
	colList := strings.Join(quoted, ", ")

	// Same key the upstream merge script uses: race_id || '-' || horse.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO main.`+ResultsTable+` (`+colList+`)
		 SELECT `+colList+` FROM src.`+ResultsTable+`
		 WHERE race_id || '-' || horse NOT IN (
		     SELECT race_id || '-' || horse FROM main.`+ResultsTable+`
		 )`)
	if err != nil {
		return 0, eris.Wrap(err, "merge: insert new rows")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "merge: rows affected")
	}
	log.Info("merge complete", zap.Int64("imported", n), zap.String("source", srcPath))
	return n, nil
}

// sourceColumns lists the attached source's column names, so the insert is
// explicit about column order rather than relying on SELECT *.
func (s *SQLiteStore) sourceColumns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA src.table_info(`+ResultsTable+`)`)
	if err != nil {
		return nil, eris.Wrap(err, "merge: source table_info")
	}
	defer rows.Close()

	var cols []string
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
			return nil, eris.Wrap(err, "merge: scan source table_info")
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "merge: iterate source table_info")
	}
	if len(cols) == 0 {
		return nil, eris.Wrapf(ErrSchema, "source table %q not found", ResultsTable)
	}
	return cols, nil
}
