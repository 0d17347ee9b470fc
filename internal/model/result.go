package model

import "time"

// PositionDNF is the sentinel finishing position meaning the horse did not
// finish (pulled up, fell, unseated, refused, etc.).
const PositionDNF = 40

// FlatType is the race type value for flat (non-jump) races.
const FlatType = "Flat"

// Flat-racing age band. Ages outside this range (or missing) are excluded
// from age-grouped statistics.
const (
	MinFlatAge = 2
	MaxFlatAge = 12
)

// Region classifies a course by jurisdiction, inferred from the course name.
type Region string

const (
	RegionGB       Region = "gb"       // no parenthetical country marker
	RegionIRE      Region = "ire"      // "(IRE)" marker
	RegionExcluded Region = "excluded" // any other parenthetical marker
)

// InScope reports whether rows from this region are retained by the
// prepare pipeline.
func (r Region) InScope() bool {
	return r == RegionGB || r == RegionIRE
}

// ResultRow is one horse's entry in one race, as read from the results store.
// Nullable numeric columns are pointers so that SQL NULL and snapshot null
// positions survive round trips exactly.
type ResultRow struct {
	RaceID         int64  `json:"race_id"`
	Date           string `json:"date"`
	Course         string `json:"course"`
	Type           string `json:"type"`
	Position       int64  `json:"pos"`
	Draw           *int64 `json:"draw,omitempty"`
	Horse          string `json:"horse"`
	Age            *int64 `json:"age,omitempty"`
	Sex            string `json:"sex"`
	Weight         string `json:"lbs"`
	Jockey         string `json:"jockey"`
	Trainer        string `json:"trainer"`
	Sire           string `json:"sire"`
	Dam            string `json:"dam"`
	OfficialRating *int64 `json:"or,omitempty"`
	RPR            *int64 `json:"rpr,omitempty"`
	TopSpeed       *int64 `json:"ts,omitempty"`
	PrizeRaw       string `json:"prize"`
	PrizeCurrency  string `json:"prize_currency,omitempty"`

	// Derived labels. Never trusted across a cache boundary: every consumer
	// recomputes them from Position via pipeline.DeriveLabels.
	Won          bool `json:"won"`
	DidNotFinish bool `json:"dnf"`
}

// PrepareRun records one execution of the prepare pipeline.
type PrepareRun struct {
	ID         string        `json:"id"`
	RaceType   string        `json:"race_type"`
	Snapshot   string        `json:"snapshot"`
	RowsRead   int64         `json:"rows_read"`
	RowsKept   int64         `json:"rows_kept"`
	Elapsed    time.Duration `json:"elapsed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
