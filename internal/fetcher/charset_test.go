package fetcher

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharsetReader_Windows1252(t *testing.T) {
	// 0x96 is an en dash in windows-1252.
	r, err := CharsetReader(strings.NewReader("2004\x962008"), "windows-1252")
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "2004–2008", string(data))
}

func TestCharsetReader_Passthrough(t *testing.T) {
	src := strings.NewReader("Localized only")
	for _, label := range []string{"", "utf-8", "UTF8"} {
		r, err := CharsetReader(src, label)
		require.NoError(t, err)
		assert.Same(t, src, r, label)
	}
}

func TestCharsetReader_Unknown(t *testing.T) {
	_, err := CharsetReader(strings.NewReader(""), "klingon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}
