package stats

import (
	"strings"

	"github.com/sells-group/seer-cli/internal/seer"
)

// CurveMonths are the points of a stitched survival curve.
var CurveMonths = []int{0, 12, 24, 36, 48, 60}

// CurvePoint is one month of the stitched per-stage curve, in percent.
type CurvePoint struct {
	Month    int     `json:"month"`
	StageI   float64 `json:"stageI"`
	StageII  float64 `json:"stageII"`
	StageIII float64 `json:"stageIII"`
	StageIV  float64 `json:"stageIV"`
}

// CurveSeries is one output series: the stage labels tried in order and the
// value used for a month when none of them has data.
type CurveSeries struct {
	Name     string
	Chain    []string
	Defaults map[int]float64
}

// CurveStitcher builds the four-series stage curve.
type CurveStitcher struct {
	Series [4]CurveSeries
}

// DefaultCurveStitcher returns the stage I-IV chains with their fallback
// values.
func DefaultCurveStitcher() *CurveStitcher {
	return &CurveStitcher{Series: [4]CurveSeries{
		{
			Name:     "stageI",
			Chain:    []string{"Localized only"},
			Defaults: map[int]float64{12: 100, 24: 99.8, 36: 99.6, 48: 99.5, 60: 99.3},
		},
		{
			Name: "stageII",
			Chain: []string{
				"Regional lymph nodes involved only",
				"Regional by direct extension only",
			},
			Defaults: map[int]float64{12: 98.8, 24: 96.4, 36: 93.8, 48: 91.4, 60: 89.4},
		},
		{
			Name:     "stageIII",
			Chain:    []string{"Regional by both direct extension and lymph node involvement"},
			Defaults: map[int]float64{12: 96.0, 24: 89.5, 36: 83.0, 48: 77.5, 60: 73.0},
		},
		{
			Name:     "stageIV",
			Chain:    []string{"Distant site(s)/node(s)"},
			Defaults: map[int]float64{12: 71.0, 24: 53.5, 36: 42.0, 48: 35.5, 60: 31.0},
		},
	}}
}

// Stitch returns one point per CurveMonths entry. Month 0 is 100 for every
// series; later months take the first chain label with a value, else the
// series default.
func (c *CurveStitcher) Stitch(rows []seer.SurvivalRow) []CurvePoint {
	out := make([]CurvePoint, 0, len(CurveMonths))
	for _, m := range CurveMonths {
		var v [4]float64
		for i, s := range c.Series {
			v[i] = c.value(rows, s, m)
		}
		out = append(out, CurvePoint{Month: m, StageI: v[0], StageII: v[1], StageIII: v[2], StageIV: v[3]})
	}
	return out
}

func (c *CurveStitcher) value(rows []seer.SurvivalRow, s CurveSeries, month int) float64 {
	if month == 0 {
		return 100
	}
	for _, label := range s.Chain {
		for _, r := range rows {
			if r.IntervalMonth != month || r.RelativeSurvival == nil {
				continue
			}
			if strings.HasPrefix(r.Dimension, label) {
				return Round1(*r.RelativeSurvival * 100)
			}
		}
	}
	return s.Defaults[month]
}
