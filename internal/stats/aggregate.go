// Package stats computes descriptive win-rate statistics over prepared row
// sets. All groupings are deterministic: groups are sorted ascending by key,
// independent of row order, and rows with a null grouping value are dropped
// rather than coerced into a sentinel group.
package stats

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/raceform/raceform-cli/internal/model"
	"github.com/raceform/raceform-cli/internal/pipeline"
)

// Group is one grouping bucket: the proportion of wins among its runs.
type Group[K cmp.Ordered] struct {
	Key  K
	Runs int
	Wins int
	Rate float64
}

// WinRateBy groups rows by the value returned from key and computes the mean
// of the won label per group. Rows for which key reports ok=false are
// excluded. Empty groups cannot occur: a group exists only because at least
// one row produced its key.
func WinRateBy[K cmp.Ordered](rows []model.ResultRow, key func(model.ResultRow) (K, bool)) []Group[K] {
	rows = pipeline.DeriveLabels(rows)

	buckets := make(map[K]*Group[K])
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		g := buckets[k]
		if g == nil {
			g = &Group[K]{Key: k}
			buckets[k] = g
		}
		g.Runs++
		if row.Won {
			g.Wins++
		}
	}

	groups := make([]Group[K], 0, len(buckets))
	for _, g := range buckets {
		g.Rate = float64(g.Wins) / float64(g.Runs)
		groups = append(groups, *g)
	}
	slices.SortFunc(groups, func(a, b Group[K]) int { return cmp.Compare(a.Key, b.Key) })
	return groups
}

// ByAge groups by age restricted to the flat-racing band [2,12]. Null ages
// and ages outside the band are excluded before grouping.
func ByAge(rows []model.ResultRow) []Group[int64] {
	return WinRateBy(rows, func(r model.ResultRow) (int64, bool) {
		if r.Age == nil || *r.Age < model.MinFlatAge || *r.Age > model.MaxFlatAge {
			return 0, false
		}
		return *r.Age, true
	})
}

// BySex groups by the sex column.
func BySex(rows []model.ResultRow) []Group[string] {
	return WinRateBy(rows, func(r model.ResultRow) (string, bool) {
		return r.Sex, r.Sex != ""
	})
}

// ByDraw groups by starting stall. Rows without a draw (jump-bred entries
// that leaked into the subset, or pre-stalls era rows) are excluded.
func ByDraw(rows []model.ResultRow) []Group[int64] {
	return WinRateBy(rows, func(r model.ResultRow) (int64, bool) {
		if r.Draw == nil {
			return 0, false
		}
		return *r.Draw, true
	})
}

// ByCourse groups by course name.
func ByCourse(rows []model.ResultRow) []Group[string] {
	return WinRateBy(rows, func(r model.ResultRow) (string, bool) {
		return r.Course, r.Course != ""
	})
}

// Overall returns the run count, win count, and win rate across all rows.
// An empty row set yields (0, 0, 0).
func Overall(rows []model.ResultRow) (runs, wins int, rate float64) {
	rows = pipeline.DeriveLabels(rows)
	for _, row := range rows {
		runs++
		if row.Won {
			wins++
		}
	}
	if runs == 0 {
		return 0, 0, 0
	}
	return runs, wins, float64(wins) / float64(runs)
}

// Table is a grouping result with string keys, the common shape consumed by
// the stats command and the exporters.
type Table struct {
	Attr   string
	Groups []Group[string]
}

// WinRate dispatches a grouping by attribute name. Integer-keyed groupings
// are rendered with their numeric ascending order preserved.
func WinRate(rows []model.ResultRow, attr string) (*Table, error) {
	switch strings.ToLower(attr) {
	case "age":
		return &Table{Attr: "age", Groups: stringKeys(ByAge(rows))}, nil
	case "sex":
		return &Table{Attr: "sex", Groups: BySex(rows)}, nil
	case "draw":
		return &Table{Attr: "draw", Groups: stringKeys(ByDraw(rows))}, nil
	case "course":
		return &Table{Attr: "course", Groups: ByCourse(rows)}, nil
	default:
		return nil, eris.Errorf("stats: unknown attribute %q (valid: age, sex, draw, course)", attr)
	}
}

func stringKeys(groups []Group[int64]) []Group[string] {
	out := make([]Group[string], 0, len(groups))
	for _, g := range groups {
		out = append(out, Group[string]{
			Key:  strconv.FormatInt(g.Key, 10),
			Runs: g.Runs,
			Wins: g.Wins,
			Rate: g.Rate,
		})
	}
	return out
}
