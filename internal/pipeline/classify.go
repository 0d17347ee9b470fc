// Package pipeline implements the prepare workflow: read results from the
// store, keep GB and Irish courses, derive outcome labels, and write the
// columnar snapshot consumed by the stats commands.
package pipeline

import (
	"strings"

	"github.com/raceform/raceform-cli/internal/model"
)

// ireMarker is the parenthetical country code Irish courses carry in the
// course column ("Curragh (IRE)").
const ireMarker = "(ire)"

// ClassifyCourse maps a course name to a region using the dataset's naming
// convention: Irish courses carry "(IRE)", other foreign courses carry some
// other parenthetical code ("Chantilly (FR)"), and GB courses carry none.
//
// A foreign course listed without any marker would classify as GB; the
// dataset has no authoritative country table to catch that, so the heuristic
// stays an isolated pure function that a lookup table can replace later.
func ClassifyCourse(course string) model.Region {
	folded := strings.ToLower(course)
	if strings.Contains(folded, ireMarker) {
		return model.RegionIRE
	}
	if open := strings.IndexByte(folded, '('); open >= 0 && strings.IndexByte(folded[open:], ')') > 0 {
		return model.RegionExcluded
	}
	return model.RegionGB
}

// FilterRegions returns only the rows whose course classifies as GB or IRE,
// in their original order.
func FilterRegions(rows []model.ResultRow) []model.ResultRow {
	kept := make([]model.ResultRow, 0, len(rows))
	for _, row := range rows {
		if ClassifyCourse(row.Course).InScope() {
			kept = append(kept, row)
		}
	}
	return kept
}
