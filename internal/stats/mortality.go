package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seer-cli/internal/seer"
)

// Dimension is a mortality pivot dimension.
type Dimension string

const (
	DimAge   Dimension = "age"
	DimRace  Dimension = "race"
	DimSex   Dimension = "sex"
	DimCause Dimension = "cause_of_death"
	// DimState is the base state/year rate series.
	DimState Dimension = "state"
)

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case DimAge, DimRace, DimSex, DimCause, DimState:
		return d, nil
	default:
		return "", eris.Errorf("stats: unknown dimension %q", s)
	}
}

// MortalityFilter narrows the rows a pivot reads. Zero fields do not filter.
type MortalityFilter struct {
	Year  int
	State string
	Race  string
	Sex   string
	Cause string
}

// CategoryDeaths is one bar of a category pivot.
type CategoryDeaths struct {
	Category string  `json:"category"`
	Deaths   float64 `json:"deaths"`
}

// CauseSharePoint is the disease share of all-cause deaths in one age bucket.
type CauseSharePoint struct {
	AgeGroup       string  `json:"ageGroup"`
	Percentage     int     `json:"percentage"`
	DiseaseDeaths  float64 `json:"diseaseDeaths"`
	AllCauseDeaths float64 `json:"allCauseDeaths"`
}

// MortalityAggregator pivots the flat mortality table.
type MortalityAggregator struct {
	DiseaseCause string
	AllCause     string
	AgeExclude   []string
}

// NewMortalityAggregator returns an aggregator for C50 against all causes.
func NewMortalityAggregator() *MortalityAggregator {
	return &MortalityAggregator{
		DiseaseCause: "C50",
		AllCause:     "ALL",
		AgeExclude:   []string{"Not Stated", "Unknown"},
	}
}

// ByCategory sums deaths per category of dim. Only rows whose cause filter
// is the disease cause or unset contribute.
func (a *MortalityAggregator) ByCategory(rows []seer.MortalityRow, dim Dimension, f MortalityFilter) ([]CategoryDeaths, error) {
	if dim != DimAge && dim != DimRace && dim != DimSex {
		return nil, eris.Errorf("stats: %q is not a category dimension", dim)
	}

	sums := make(map[string]float64)
	for _, r := range rows {
		if r.Dimensions() != 1 || r.Deaths == nil {
			continue
		}
		cat := categoryOf(r, dim)
		if cat == nil {
			continue
		}
		if !a.diseaseOrUnset(r.CauseFilter) || !matches(r, f) {
			continue
		}
		if dim == DimAge && a.ageExcluded(*cat) {
			continue
		}
		sums[*cat] += *r.Deaths
	}

	out := make([]CategoryDeaths, 0, len(sums))
	for cat, d := range sums {
		out = append(out, CategoryDeaths{Category: cat, Deaths: d})
	}
	if dim == DimAge {
		sort.Slice(out, func(i, j int) bool { return ageLess(out[i].Category, out[j].Category) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	}
	return out, nil
}

// CauseShare joins disease and all-cause deaths per age bucket. Buckets
// missing either side, or with no all-cause deaths, yield no point.
func (a *MortalityAggregator) CauseShare(rows []seer.MortalityRow, f MortalityFilter) []CauseSharePoint {
	disease := make(map[string]float64)
	all := make(map[string]float64)

	f.Cause = ""
	for _, r := range rows {
		if r.Dimensions() != 1 || r.AgeGroup == nil || r.Deaths == nil || r.CauseFilter == nil {
			continue
		}
		if !matches(r, f) || a.ageExcluded(*r.AgeGroup) {
			continue
		}
		switch *r.CauseFilter {
		case a.DiseaseCause:
			disease[*r.AgeGroup] += *r.Deaths
		case a.AllCause:
			all[*r.AgeGroup] += *r.Deaths
		}
	}

	var out []CauseSharePoint
	for age, d := range disease {
		total, ok := all[age]
		if !ok || total <= 0 {
			continue
		}
		out = append(out, CauseSharePoint{
			AgeGroup:       age,
			Percentage:     int(math.Round(d / total * 100)),
			DiseaseDeaths:  d,
			AllCauseDeaths: total,
		})
	}
	sort.Slice(out, func(i, j int) bool { return ageLess(out[i].AgeGroup, out[j].AgeGroup) })
	return out
}

// BaseSeries returns the base rows matching f, ordered by year then state.
func (a *MortalityAggregator) BaseSeries(rows []seer.MortalityRow, f MortalityFilter) []seer.MortalityRow {
	var out []seer.MortalityRow
	for _, r := range rows {
		if !r.IsBase() || !matches(r, f) {
			continue
		}
		if f.Cause != "" && (r.CauseFilter == nil || *r.CauseFilter != f.Cause) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].State < out[j].State
	})
	return out
}

func (a *MortalityAggregator) diseaseOrUnset(cause *string) bool {
	return cause == nil || *cause == a.DiseaseCause
}

func (a *MortalityAggregator) ageExcluded(age string) bool {
	for _, x := range a.AgeExclude {
		if age == x {
			return true
		}
	}
	return false
}

// matches applies the year, state, race, sex and cause filters. Race and
// sex only constrain rows that carry that dimension.
func matches(r seer.MortalityRow, f MortalityFilter) bool {
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	if f.Race != "" && r.Race != nil && *r.Race != f.Race {
		return false
	}
	if f.Sex != "" && r.Sex != nil && *r.Sex != f.Sex {
		return false
	}
	if f.Cause != "" && (r.CauseFilter == nil || *r.CauseFilter != f.Cause) {
		return false
	}
	return true
}

func categoryOf(r seer.MortalityRow, dim Dimension) *string {
	switch dim {
	case DimAge:
		return r.AgeGroup
	case DimRace:
		return r.Race
	case DimSex:
		return r.Sex
	}
	return nil
}

// ageLess orders age labels by their lower bound. "<1" sorts first and
// labels without a number sort last, alphabetically.
func ageLess(a, b string) bool {
	la, oka := ageLowerBound(a)
	lb, okb := ageLowerBound(b)
	switch {
	case oka && okb && la != lb:
		return la < lb
	case oka != okb:
		return oka
	default:
		return a < b
	}
}

func ageLowerBound(label string) (int, bool) {
	s := strings.TrimSpace(label)
	if strings.HasPrefix(s, "<") {
		return -1, true
	}
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
