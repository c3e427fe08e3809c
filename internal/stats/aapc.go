// Package stats derives chart statistics from stored registry rows. Every
// function here is pure and safe for concurrent use.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Direction classifies an AAPC value.
type Direction string

const (
	Rising         Direction = "Rising"
	Falling        Direction = "Falling"
	NotSignificant Direction = "Not Significant"
)

// Classify maps a rounded AAPC onto a trend direction.
func Classify(aapc float64) Direction {
	switch {
	case aapc > 0:
		return Rising
	case aapc < 0:
		return Falling
	default:
		return NotSignificant
	}
}

// YearValue is one point of a yearly series. Either value may be missing.
type YearValue struct {
	Year  int
	Rate  *float64
	Count *float64
}

// GroupSeries is the yearly series for one chart group (race, age band).
type GroupSeries struct {
	Group  string
	Points []YearValue
}

// AAPCResult is the trend for one group.
type AAPCResult struct {
	Group     string    `json:"group"`
	YearRange string    `json:"yearRange"`
	AAPC      float64   `json:"aapc"`
	Direction Direction `json:"direction"`
}

// AAPCConfig bounds the estimation window and lists artifact years that
// are dropped before regression. A zero StartYear or EndYear leaves that
// side of the window open.
type AAPCConfig struct {
	StartYear     int   `mapstructure:"start_year"`
	EndYear       int   `mapstructure:"end_year"`
	ArtifactYears []int `mapstructure:"artifact_years"`
}

// DefaultAAPCConfig returns the 2013-2022 window with 2020 flagged.
func DefaultAAPCConfig() AAPCConfig {
	return AAPCConfig{StartYear: 2013, EndYear: 2022, ArtifactYears: []int{2020}}
}

// minRegressionCounts is the number of yearly counts needed to use the
// regression estimator instead of the endpoint ratio.
const minRegressionCounts = 3

// AAPCEngine chooses an estimator per group and classifies the result.
type AAPCEngine struct {
	cfg       AAPCConfig
	artifacts map[int]struct{}
}

// NewAAPCEngine creates an engine for cfg.
func NewAAPCEngine(cfg AAPCConfig) *AAPCEngine {
	e := &AAPCEngine{cfg: cfg, artifacts: make(map[int]struct{}, len(cfg.ArtifactYears))}
	for _, y := range cfg.ArtifactYears {
		e.artifacts[y] = struct{}{}
	}
	return e
}

// EstimateAll estimates every group, preserving input order. Groups whose
// AAPC is undetermined are omitted.
func (e *AAPCEngine) EstimateAll(series []GroupSeries) []AAPCResult {
	out := make([]AAPCResult, 0, len(series))
	for _, s := range series {
		if r, ok := e.Estimate(s); ok {
			out = append(out, r)
		}
	}
	return out
}

// Estimate computes the AAPC for one group. It uses log-linear regression
// when at least three yearly counts exist and the endpoint ratio otherwise.
func (e *AAPCEngine) Estimate(s GroupSeries) (AAPCResult, bool) {
	points := e.clip(s.Points)
	if len(points) == 0 {
		return AAPCResult{}, false
	}

	var (
		aapc float64
		ok   bool
	)
	if countPoints(points) >= minRegressionCounts {
		years, counts := e.regressionInputs(points)
		aapc, ok = RegressionAAPC(years, counts)
	} else {
		aapc, ok = ratioFromSeries(points)
	}
	if !ok {
		return AAPCResult{}, false
	}

	aapc = Round1(aapc)
	return AAPCResult{
		Group:     s.Group,
		YearRange: fmt.Sprintf("%d-%d", points[0].Year, points[len(points)-1].Year),
		AAPC:      aapc,
		Direction: Classify(aapc),
	}, true
}

// clip keeps points inside the window, sorted by year.
func (e *AAPCEngine) clip(points []YearValue) []YearValue {
	out := make([]YearValue, 0, len(points))
	for _, p := range points {
		if e.cfg.StartYear != 0 && p.Year < e.cfg.StartYear {
			continue
		}
		if e.cfg.EndYear != 0 && p.Year > e.cfg.EndYear {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func (e *AAPCEngine) regressionInputs(points []YearValue) ([]int, []float64) {
	years := make([]int, 0, len(points))
	counts := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Count == nil {
			continue
		}
		if _, skip := e.artifacts[p.Year]; skip {
			continue
		}
		years = append(years, p.Year)
		counts = append(counts, *p.Count)
	}
	return years, counts
}

func countPoints(points []YearValue) int {
	n := 0
	for _, p := range points {
		if p.Count != nil {
			n++
		}
	}
	return n
}

// RegressionAAPC fits ln(value) = a + b*year by ordinary least squares over
// positive values and returns (e^b - 1) * 100. It reports false when fewer
// than two usable points remain or the slope is not finite.
func RegressionAAPC(years []int, values []float64) (float64, bool) {
	var xs, ys []float64
	for i := range years {
		if i >= len(values) || !(values[i] > 0) || math.IsInf(values[i], 0) {
			continue
		}
		xs = append(xs, float64(years[i]))
		ys = append(ys, math.Log(values[i]))
	}
	if len(xs) < 2 {
		return 0, false
	}

	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n

	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	slope := sxy / sxx
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, false
	}
	return (math.Exp(slope) - 1) * 100, true
}

// RatioAAPC returns ((b/a)^(1/years) - 1) * 100. It reports false when a is
// not positive, b is negative, or years is not positive.
func RatioAAPC(a, b float64, years int) (float64, bool) {
	if !(a > 0) || b < 0 || years <= 0 {
		return 0, false
	}
	v := (math.Pow(b/a, 1/float64(years)) - 1) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ratioFromSeries applies RatioAAPC to the earliest and latest points, on
// rates first and counts when rates are unusable.
func ratioFromSeries(points []YearValue) (float64, bool) {
	first, last := points[0], points[len(points)-1]
	span := last.Year - first.Year

	if first.Rate != nil && last.Rate != nil {
		if v, ok := RatioAAPC(*first.Rate, *last.Rate, span); ok {
			return v, true
		}
	}
	if first.Count != nil && last.Count != nil {
		return RatioAAPC(*first.Count, *last.Count, span)
	}
	return 0, false
}

// Round1 rounds to one decimal place, normalizing negative zero.
func Round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}
