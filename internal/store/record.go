package store

import (
	"strconv"
)

// Float returns the column as a nullable float64.
func (r Record) Float(col string) *float64 {
	var f float64
	switch v := r[col].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case int16:
		f = float64(v)
	case int:
		f = float64(v)
	case string:
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		f = p
	case []byte:
		p, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil
		}
		f = p
	default:
		return nil
	}
	return &f
}

// Int returns the column as an int, or 0 when null or non-numeric.
func (r Record) Int(col string) int {
	if f := r.Float(col); f != nil {
		return int(*f)
	}
	return 0
}

// String returns the column as a string, or "" when null.
func (r Record) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// NullString returns the column as a nullable string. Empty strings are
// treated as null, matching how nullable key columns are stored.
func (r Record) NullString(col string) *string {
	s := r.String(col)
	if s == "" {
		return nil
	}
	return &s
}
