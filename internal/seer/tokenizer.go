package seer

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// maxLineBytes bounds a single extract line.
const maxLineBytes = 1 << 20

const bom = "\uFEFF"

// Tokenizer splits extract lines into raw fields.
type Tokenizer struct {
	sep     rune
	names   map[string]bool
	headers []*regexp.Regexp
}

// NewTokenizer builds a tokenizer from the rule set's separator and header rules.
func NewTokenizer(rules Rules) (*Tokenizer, error) {
	sep := ','
	if rules.Separator != "" {
		rs := []rune(rules.Separator)
		if len(rs) != 1 {
			return nil, eris.Errorf("seer: separator must be a single character, got %q", rules.Separator)
		}
		sep = rs[0]
	}

	t := &Tokenizer{sep: sep, names: make(map[string]bool, len(rules.HeaderNames))}
	for _, n := range rules.HeaderNames {
		t.names[strings.ToLower(strings.TrimSpace(n))] = true
	}
	for _, p := range rules.HeaderPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "seer: compile header pattern %q", p)
		}
		t.headers = append(t.headers, re)
	}
	return t, nil
}

// Split breaks line into fields. A double quote toggles quoted state and a
// separator inside quotes does not split. Carriage returns are dropped. Each
// field is trimmed and stripped of surrounding quotes.
func (t *Tokenizer) Split(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '\r':
			continue
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == t.sep && !inQuotes:
			fields = append(fields, unquote(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, unquote(cur.String()))
}

// IsMetadata reports whether line is not a data row: blank lines, lines
// beginning with '[', and header declarations. A header declaration is a
// line whose first field is a known column name, or one matching a header
// pattern.
func (t *Tokenizer) IsMetadata(line string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(line, bom))
	if trimmed == "" || strings.HasPrefix(trimmed, "[") {
		return true
	}
	if first := t.Split(trimmed)[0]; t.names[strings.ToLower(first)] {
		return true
	}
	for _, re := range t.headers {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// Records reads r line by line and returns the fields of every data line.
func (t *Tokenizer) Records(r io.Reader) ([][]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out [][]string
	for sc.Scan() {
		line := strings.TrimPrefix(sc.Text(), bom)
		if t.IsMetadata(line) {
			continue
		}
		out = append(out, t.Split(line))
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "seer: scan extract")
	}
	return out, nil
}

// Fit reconciles fields with a layout of n columns. Trailing empty fields
// beyond n are dropped, and when the line still has more than n fields the
// surplus leading fields are rejoined into the label, so an unquoted
// "Regional, NOS" keeps its numeric columns in place.
func (t *Tokenizer) Fit(fields []string, n int) []string {
	for len(fields) > n && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	extra := len(fields) - n
	if extra <= 0 {
		return fields
	}
	joiner := string(t.sep)
	if t.sep == ',' {
		joiner = ", "
	}
	out := make([]string, 0, n)
	out = append(out, strings.Join(fields[:extra+1], joiner))
	return append(out, fields[extra+1:]...)
}

// unquote trims whitespace and one layer of surrounding double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	} else {
		s = strings.Trim(s, `"`)
	}
	return strings.TrimSpace(s)
}
