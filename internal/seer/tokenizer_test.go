package seer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer(DefaultRules())
	require.NoError(t, err)
	return tok
}

func TestTokenizer_Split(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "Localized only,60 mo,0.92", []string{"Localized only", "60 mo", "0.92"}},
		{"quoted", `"Localized only","60 mo","0.92"`, []string{"Localized only", "60 mo", "0.92"}},
		{"separator inside quotes", `"Regional, NOS",12 mo,0.9`, []string{"Regional, NOS", "12 mo", "0.9"}},
		{"carriage return", "White,120.5,1000\r", []string{"White", "120.5", "1000"}},
		{"padding", "  White ,  120.5 ", []string{"White", "120.5"}},
		{"empty fields", "a,,c", []string{"a", "", "c"}},
		{"trailing separator", "a,b,", []string{"a", "b", ""}},
		{"quoted thousands", `All races,"1,234"`, []string{"All races", "1,234"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Split(tt.line))
		})
	}
}

func TestTokenizer_SplitRoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)

	lines := []string{
		"Localized only,60 mo,0.92,0.91,0.93,1200",
		"HR+/HER2-,12 mo,~,NA,#,+",
		" 2010 , 60 mo , 0.88 ",
		"single",
	}
	for _, line := range lines {
		fields := tok.Split(line)
		rejoined := strings.Join(fields, ",")
		assert.Equal(t, fields, tok.Split(rejoined), line)
	}
}

func TestTokenizer_CustomSeparator(t *testing.T) {
	rules := DefaultRules()
	rules.Separator = "\t"
	tok, err := NewTokenizer(rules)
	require.NoError(t, err)

	assert.Equal(t, []string{"Regional, NOS", "12 mo"}, tok.Split("Regional, NOS\t12 mo"))
}

func TestNewTokenizer_Errors(t *testing.T) {
	rules := DefaultRules()
	rules.Separator = ";;"
	_, err := NewTokenizer(rules)
	assert.Error(t, err)

	rules = DefaultRules()
	rules.HeaderPatterns = []string{"("}
	_, err = NewTokenizer(rules)
	assert.Error(t, err)
}

func TestTokenizer_IsMetadata(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []struct {
		line string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"[Session: Survival]", true},
		{"  [Page type: Relative survival]", true},
		{`"Stage","Interval","Relative Survival"`, true},
		{"Year of diagnosis,Interval,Rel surv", true},
		{"Race/Ethnicity,Rate,Count,Population", true},
		{"Cause of death,Count", true},
		{"Localized only,60 mo,0.92", false},
		{"2010,60 mo,0.88", false},
		{"Stage IV remainder,60 mo,0.3", false},
		{"COD to site recode,Count", true},
		{"\uFEFFStage,Interval", true},
		{"Age", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.IsMetadata(tt.line))
		})
	}
}

func TestTokenizer_Records(t *testing.T) {
	tok := newTestTokenizer(t)

	input := strings.Join([]string{
		"[Survival by stage]",
		`"Stage","Interval","Relative Survival"`,
		"",
		`"Localized only","60 mo","0.92"`,
		"[footnote]",
		`"In situ","60 mo","0.99"`,
	}, "\r\n")

	recs, err := tok.Records(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Localized only", "60 mo", "0.92"},
		{"In situ", "60 mo", "0.99"},
	}, recs)
}

func TestTokenizer_IsMetadata_CustomSeparator(t *testing.T) {
	rules := DefaultRules()
	rules.Separator = "\t"
	tok, err := NewTokenizer(rules)
	require.NoError(t, err)

	assert.True(t, tok.IsMetadata("Cause of death\tCount"))
	assert.True(t, tok.IsMetadata(`"Year of diagnosis"\t"Rate"`))
	assert.False(t, tok.IsMetadata("Breast\t42"))
}

func TestTokenizer_Records_LeadingBOM(t *testing.T) {
	tok := newTestTokenizer(t)

	recs, err := tok.Records(strings.NewReader("\uFEFFLocalized only,60 mo,0.92\nIn situ,60 mo,0.99"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Localized only", recs[0][0])

	recs, err = tok.Records(strings.NewReader("\uFEFF\"Stage\",\"Interval\"\nLocalized only,60 mo"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Localized only", "60 mo"}}, recs)
}

func TestTokenizer_Fit(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []struct {
		name   string
		fields []string
		n      int
		want   []string
	}{
		{"exact", []string{"Localized only", "100", "1000"}, 3, []string{"Localized only", "100", "1000"}},
		{"short", []string{"Localized only", "100"}, 3, []string{"Localized only", "100"}},
		{"split label", []string{"Regional", "NOS", "100", "1000"}, 3, []string{"Regional, NOS", "100", "1000"}},
		{"trailing separator", []string{"Breast", "42", ""}, 2, []string{"Breast", "42"}},
		{"split label and trailing separator", []string{"Regional", "NOS", "100", "1000", ""}, 3, []string{"Regional, NOS", "100", "1000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Fit(tt.fields, tt.n))
		})
	}
}
