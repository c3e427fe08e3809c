package seer

import (
	"math"
	"strconv"
	"strings"
)

// Coercer converts raw fields into typed values. Sentinel fields are missing
// values and never coerce to zero.
type Coercer struct {
	sentinels map[string]struct{}
}

// NewCoercer builds a coercer for the rule set's sentinel vocabulary.
func NewCoercer(rules Rules) *Coercer {
	c := &Coercer{sentinels: make(map[string]struct{}, len(rules.Sentinels)+1)}
	// The empty field is always missing.
	c.sentinels[""] = struct{}{}
	for _, s := range rules.Sentinels {
		c.sentinels[strings.TrimSpace(s)] = struct{}{}
	}
	return c
}

// IsSentinel reports whether the raw field marks a missing value.
func (c *Coercer) IsSentinel(raw string) bool {
	_, ok := c.sentinels[unquote(raw)]
	return ok
}

// String trims and unquotes raw. Sentinels yield "".
func (c *Coercer) String(raw string) string {
	s := unquote(raw)
	if _, ok := c.sentinels[s]; ok {
		return ""
	}
	return s
}

// Number parses raw as a float after stripping thousands separators.
// Sentinels, non-numeric and non-finite values yield nil.
func (c *Coercer) Number(raw string) *float64 {
	s := c.String(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Fraction parses raw as a proportion. An explicit trailing "%" divides by
// 100; a bare number is already a fraction and is returned unchanged.
func (c *Coercer) Fraction(raw string) *float64 {
	s := c.String(raw)
	if s == "" {
		return nil
	}
	pct := strings.HasSuffix(s, "%")
	if pct {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	v := c.Number(s)
	if v == nil {
		return nil
	}
	if pct {
		f := *v / 100
		return &f
	}
	return v
}

// Int parses raw as a whole number. Fractional or missing values yield false.
func (c *Coercer) Int(raw string) (int, bool) {
	v := c.Number(raw)
	if v == nil || *v != math.Trunc(*v) {
		return 0, false
	}
	return int(*v), true
}
