package seer

import (
	"strings"
)

// FilterMode selects which rule set a DimensionFilter applies.
type FilterMode int

const (
	ModeSubtype FilterMode = iota
	ModeStage
	ModeStageGroup
	ModeRace
	ModeAge
	ModeCause
)

func (m FilterMode) String() string {
	switch m {
	case ModeSubtype:
		return "subtype"
	case ModeStage:
		return "stage"
	case ModeStageGroup:
		return "stage_group"
	case ModeRace:
		return "race"
	case ModeAge:
		return "age"
	case ModeCause:
		return "cause"
	default:
		return "unknown"
	}
}

// DimensionFilter decides whether a categorical label is kept and under
// which canonical label.
type DimensionFilter struct {
	mode    FilterMode
	exclude []string
	allow   []string
	groups  map[string]string
}

// NewDimensionFilter builds a filter for mode from rules.
func NewDimensionFilter(mode FilterMode, rules Rules) *DimensionFilter {
	f := &DimensionFilter{mode: mode}
	switch mode {
	case ModeSubtype:
		f.exclude = rules.SubtypeExclude
	case ModeStage:
		f.exclude = rules.StageExclude
		f.allow = rules.StageAllowPrefixes
	case ModeStageGroup:
		f.groups = make(map[string]string, len(rules.StageGroups)+3)
		for label, group := range rules.StageGroups {
			f.groups[label] = group
			// Group names map to themselves so re-filtering is a no-op.
			f.groups[group] = group
		}
	case ModeRace:
		f.exclude = rules.RaceExclude
	case ModeAge:
		f.exclude = rules.AgeExclude
	}
	return f
}

// Mode returns the filter's mode.
func (f *DimensionFilter) Mode() FilterMode { return f.mode }

// Apply returns the canonical label for label and whether it is kept.
func (f *DimensionFilter) Apply(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}

	switch f.mode {
	case ModeStage:
		if hasAnyPrefix(label, f.exclude) {
			return "", false
		}
		if !hasAnyPrefix(label, f.allow) {
			return "", false
		}
		return label, true
	case ModeStageGroup:
		g, ok := f.groups[label]
		return g, ok
	case ModeCause:
		return label, true
	default:
		for _, x := range f.exclude {
			if label == x {
				return "", false
			}
		}
		return label, true
	}
}

// Keep reports whether label survives the filter.
func (f *DimensionFilter) Keep(label string) bool {
	_, ok := f.Apply(label)
	return ok
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
