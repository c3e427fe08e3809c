package seer

// SurvivalRow is one relative-survival observation. Dimension holds the
// subtype or stage label; Year is set for year-indexed rows only.
type SurvivalRow struct {
	Dimension        string
	Year             int
	IntervalMonth    int
	RelativeSurvival *float64 // fraction 0-1
	CILower          *float64
	CIUpper          *float64
	N                *float64
}

// IncidenceRaceRow is an age-adjusted incidence rate for one race.
type IncidenceRaceRow struct {
	Race       string
	Rate       *float64
	Count      *float64
	Population *float64
}

// IncidenceYearRow is an age-adjusted incidence rate for one diagnosis year.
type IncidenceYearRow struct {
	Year       int
	Rate       *float64
	Count      *float64
	Population *float64
}

// IncidenceRateRow is a rate for one group (race or age band) in one year.
type IncidenceRateRow struct {
	Group      string
	Year       int
	Rate       *float64
	Count      *float64
	Population *float64
}

// CauseOfDeathRow is a death count for one cause.
type CauseOfDeathRow struct {
	Cause string
	Count *float64
}

// StageAtDxRow aggregates granular stages into one coarse group.
type StageAtDxRow struct {
	Group       string
	Count       float64
	Population  float64
	RatePer100k *float64
}

// MortalityRow is one row of the flat mortality table. A base row has
// AgeGroup, Race and Sex all nil; a dimension row has exactly one set.
type MortalityRow struct {
	Year        int      `json:"year"`
	State       string   `json:"state"`
	AgeGroup    *string  `json:"age_group"`
	Race        *string  `json:"race"`
	Sex         *string  `json:"sex"`
	CauseFilter *string  `json:"cause_filter"`
	Deaths      *float64 `json:"deaths"`
	RatePer100k *float64 `json:"rate_per_100k"`
}

// Dimensions returns how many of AgeGroup, Race and Sex are set.
func (r MortalityRow) Dimensions() int {
	n := 0
	for _, p := range []*string{r.AgeGroup, r.Race, r.Sex} {
		if p != nil {
			n++
		}
	}
	return n
}

// IsBase reports whether r carries no categorical dimension.
func (r MortalityRow) IsBase() bool { return r.Dimensions() == 0 }
