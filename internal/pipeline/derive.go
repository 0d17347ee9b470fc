package pipeline

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/raceform/raceform-cli/internal/model"
)

// ErrBadPosition marks a finishing position that is not numeric. The source
// table stores pos as text, so a corrupt row surfaces here rather than as a
// silent zero.
var ErrBadPosition = eris.New("pipeline: non-numeric finishing position")

// ParsePosition converts the raw position text to its integer rank. The DNF
// sentinel (40) is a valid value and passes through unchanged.
func ParsePosition(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, eris.Wrap(ErrBadPosition, "empty position")
	}
	pos, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		// Some exports store positions as floats ("1.0").
		f, ferr := strconv.ParseFloat(trimmed, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, eris.Wrapf(ErrBadPosition, "position %q", raw)
		}
		pos = int64(f)
	}
	return pos, nil
}

// DeriveLabels recomputes the won and did-not-finish labels on every row from
// the finishing position alone. Pure and idempotent: it runs after the store
// read and again after every snapshot load, so a stale label carried inside a
// hand-copied snapshot can never leak into a statistic.
func DeriveLabels(rows []model.ResultRow) []model.ResultRow {
	for i := range rows {
		rows[i].Won = rows[i].Position == 1
		rows[i].DidNotFinish = rows[i].Position == model.PositionDNF
	}
	return rows
}
