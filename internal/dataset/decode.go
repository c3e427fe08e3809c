package dataset

import (
	"strconv"

	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/store"
)

// SurvivalRows decodes stored survival rows. dimCol is the table's first
// key column (subtype, stage or year).
func SurvivalRows(recs []store.Record, dimCol string) []seer.SurvivalRow {
	out := make([]seer.SurvivalRow, 0, len(recs))
	for _, r := range recs {
		row := seer.SurvivalRow{
			Dimension:        r.String(dimCol),
			IntervalMonth:    r.Int("interval_month"),
			RelativeSurvival: r.Float("relative_survival"),
			CILower:          r.Float("ci_lower"),
			CIUpper:          r.Float("ci_upper"),
			N:                r.Float("n"),
		}
		if dimCol == "year" {
			row.Year = r.Int("year")
			row.Dimension = strconv.Itoa(row.Year)
		}
		out = append(out, row)
	}
	return out
}

// RateRows decodes stored incidence-rate rows keyed by groupCol.
func RateRows(recs []store.Record, groupCol string) []seer.IncidenceRateRow {
	out := make([]seer.IncidenceRateRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, seer.IncidenceRateRow{
			Group:      r.String(groupCol),
			Year:       r.Int("year"),
			Rate:       r.Float("rate"),
			Count:      r.Float("count"),
			Population: r.Float("population"),
		})
	}
	return out
}

// MortalityRows decodes stored mortality rows, restoring nil categoricals.
func MortalityRows(recs []store.Record) []seer.MortalityRow {
	out := make([]seer.MortalityRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, seer.MortalityRow{
			Year:        r.Int("year"),
			State:       r.String("state"),
			AgeGroup:    r.NullString("age_group"),
			Race:        r.NullString("race"),
			Sex:         r.NullString("sex"),
			CauseFilter: r.NullString("cause_filter"),
			Deaths:      r.Float("deaths"),
			RatePer100k: r.Float("rate_per_100k"),
		})
	}
	return out
}
