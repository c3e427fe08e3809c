package seer

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	monthToken = regexp.MustCompile(`^(\d+)\s*mo$`)
	yearToken  = regexp.MustCompile(`^\d{4}$`)
)

// IntervalSelector keeps only the follow-up intervals and years consumers use.
type IntervalSelector struct {
	months       map[int]struct{}
	yearMonth    int
	survivalMin  int
	survivalMax  int
	incidenceMin int
	incidenceMax int
}

// NewIntervalSelector builds a selector from rules.
func NewIntervalSelector(rules Rules) *IntervalSelector {
	s := &IntervalSelector{
		months:       make(map[int]struct{}, len(rules.SurvivalMonths)),
		yearMonth:    rules.YearSurvivalMonth,
		survivalMin:  rules.SurvivalYearMin,
		survivalMax:  rules.SurvivalYearMax,
		incidenceMin: rules.IncidenceYearMin,
		incidenceMax: rules.IncidenceYearMax,
	}
	for _, m := range rules.SurvivalMonths {
		s.months[m] = struct{}{}
	}
	return s
}

// Month parses a "<N> mo" token and reports whether N is a kept interval.
func (s *IntervalSelector) Month(tok string) (int, bool) {
	m := monthToken.FindStringSubmatch(strings.TrimSpace(tok))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if _, ok := s.months[n]; !ok {
		return 0, false
	}
	return n, true
}

// SurvivalYear accepts a year-indexed survival row only at the year-survival
// interval and for a single year inside the survival band.
func (s *IntervalSelector) SurvivalYear(yearTok string, month int) (int, bool) {
	if month != s.yearMonth {
		return 0, false
	}
	return Year(yearTok, s.survivalMin, s.survivalMax)
}

// IncidenceYear accepts a single year inside the incidence band.
func (s *IntervalSelector) IncidenceYear(tok string) (int, bool) {
	return Year(tok, s.incidenceMin, s.incidenceMax)
}

// Year parses tok as a single four-digit year within [lo, hi]. Ranges such
// as "2000-2004" are rejected.
func Year(tok string, lo, hi int) (int, bool) {
	tok = strings.TrimSpace(tok)
	if !yearToken.MatchString(tok) {
		return 0, false
	}
	y, err := strconv.Atoi(tok)
	if err != nil || y < lo || y > hi {
		return 0, false
	}
	return y, true
}
