// Package seer parses registry text extracts into typed, filtered rows.
//
// Parsing is pure: nothing in this package touches storage. The rule sets
// that decide which categories and intervals survive are plain values passed
// to constructors, so callers can substitute alternate rules.
package seer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Stage groups used for stage-at-diagnosis aggregation.
const (
	GroupLocalized = "Localized"
	GroupRegional  = "Regional"
	GroupDistant   = "Distant"
)

// Rules holds every inclusion/exclusion list and band the parser applies.
type Rules struct {
	// Sentinels are raw field values that mean "missing".
	Sentinels []string `yaml:"sentinels"`

	// Separator is the field delimiter; defaults to ",".
	Separator string `yaml:"separator"`

	// HeaderNames are column names; a line whose first field is one of them
	// (case-insensitive) is a header declaration.
	HeaderNames []string `yaml:"header_names"`
	// HeaderPatterns are extra regular expressions matched against the
	// whole trimmed line.
	HeaderPatterns []string `yaml:"header_patterns"`

	SubtypeExclude     []string          `yaml:"subtype_exclude"`
	StageExclude       []string          `yaml:"stage_exclude"`        // prefix match
	StageAllowPrefixes []string          `yaml:"stage_allow_prefixes"` // prefix match, applied after StageExclude
	StageGroups        map[string]string `yaml:"stage_groups"`         // granular label -> group
	RaceExclude        []string          `yaml:"race_exclude"`
	AgeExclude         []string          `yaml:"age_exclude"`

	// SurvivalMonths are the follow-up intervals kept for curve rows.
	SurvivalMonths []int `yaml:"survival_months"`
	// YearSurvivalMonth is the single interval kept for year-indexed survival.
	YearSurvivalMonth int `yaml:"year_survival_month"`
	SurvivalYearMin   int `yaml:"survival_year_min"`
	SurvivalYearMax   int `yaml:"survival_year_max"`
	IncidenceYearMin  int `yaml:"incidence_year_min"`
	IncidenceYearMax  int `yaml:"incidence_year_max"`
}

// DefaultRules returns the rule set for the breast-cancer registry extracts.
func DefaultRules() Rules {
	return Rules{
		Sentinels: []string{"+", "~", "#", "NA", ""},
		Separator: ",",
		HeaderNames: []string{
			"Page type", "Session",
			"Stage", "Summary stage", "Stage at diagnosis",
			"Subtype", "Breast subtype",
			"Year", "Year of diagnosis",
			"Race", "Race/Ethnicity",
			"Cause", "Cause of death", "COD to site recode",
			"Age", "Age group", "Age at diagnosis",
			"Interval",
		},
		SubtypeExclude: []string{"Unknown", "Recode not available", "Blank(s)"},
		StageExclude: []string{
			"Unknown/unstaged",
			"Blank(s)",
			"Not applicable/Benign/Borderline",
			"In situ",
		},
		StageAllowPrefixes: []string{
			"Localized only",
			"Regional",
			"Distant site(s)/node(s)",
		},
		StageGroups: map[string]string{
			"Localized only":                    GroupLocalized,
			"Regional by direct extension only": GroupRegional,
			"Regional lymph nodes involved only": GroupRegional,
			"Regional by both direct extension and lymph node involvement": GroupRegional,
			"Regional, NOS":                    GroupRegional,
			"Distant site(s)/node(s) involved": GroupDistant,
		},
		RaceExclude:       []string{"Unknown"},
		AgeExclude:        []string{"Unknown", "Not Stated"},
		SurvivalMonths:    []int{12, 24, 36, 48, 60},
		YearSurvivalMonth: 60,
		SurvivalYearMin:   2004,
		SurvivalYearMax:   2022,
		IncidenceYearMin:  2000,
		IncidenceYearMax:  2022,
	}
}

// LoadRules reads a YAML rule file. Keys left out of the file keep their
// DefaultRules value.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "seer: read rules %s", path)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, eris.Wrapf(err, "seer: parse rules %s", path)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate checks the rule set is usable.
func (r Rules) Validate() error {
	if len([]rune(r.Separator)) != 1 {
		return eris.Errorf("seer: separator must be a single character, got %q", r.Separator)
	}
	if len(r.SurvivalMonths) == 0 {
		return eris.New("seer: survival_months is empty")
	}
	if r.SurvivalYearMin > r.SurvivalYearMax {
		return eris.Errorf("seer: survival year band [%d,%d] is empty", r.SurvivalYearMin, r.SurvivalYearMax)
	}
	if r.IncidenceYearMin > r.IncidenceYearMax {
		return eris.Errorf("seer: incidence year band [%d,%d] is empty", r.IncidenceYearMin, r.IncidenceYearMax)
	}
	return nil
}
