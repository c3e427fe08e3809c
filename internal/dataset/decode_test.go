package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seer-cli/internal/store"
)

func TestSurvivalRows(t *testing.T) {
	rows := SurvivalRows([]store.Record{
		{"stage": "Localized only", "interval_month": int64(60), "relative_survival": 0.92, "ci_lower": nil},
	}, "stage")
	require.Len(t, rows, 1)
	assert.Equal(t, "Localized only", rows[0].Dimension)
	assert.Equal(t, 60, rows[0].IntervalMonth)
	assert.InDelta(t, 0.92, *rows[0].RelativeSurvival, 1e-9)
	assert.Nil(t, rows[0].CILower)

	years := SurvivalRows([]store.Record{{"year": int32(2010), "interval_month": int32(60)}}, "year")
	assert.Equal(t, 2010, years[0].Year)
	assert.Equal(t, "2010", years[0].Dimension)
}

func TestRateRows(t *testing.T) {
	rows := RateRows([]store.Record{
		{"race": "Hispanic", "year": int64(2013), "rate": 90.5, "count": 1000.0, "population": nil},
	}, "race")
	require.Len(t, rows, 1)
	assert.Equal(t, "Hispanic", rows[0].Group)
	assert.Equal(t, 2013, rows[0].Year)
	assert.Nil(t, rows[0].Population)
}

func TestMortalityRows(t *testing.T) {
	rows := MortalityRows([]store.Record{
		{"year": int64(2022), "state": "CA", "age_group": "", "race": "White", "sex": "", "cause_filter": "C50", "deaths": 3000.0},
	})
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].AgeGroup)
	assert.Nil(t, rows[0].Sex)
	assert.Equal(t, "White", *rows[0].Race)
	assert.Equal(t, "C50", *rows[0].CauseFilter)
	assert.Nil(t, rows[0].RatePer100k)
	assert.Equal(t, 1, rows[0].Dimensions())
}
