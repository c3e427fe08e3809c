package dataset

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func mustGet(t *testing.T, name string) Dataset {
	t.Helper()
	d, err := NewRegistry().Get(name)
	require.NoError(t, err)
	return d
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close() //nolint:errcheck
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestDirSource_Open(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "survival_by_year.txt"), []byte("2004\x962008,60 mo,0.9"), 0o600))

	src := &DirSource{Dir: dir, Charset: "windows-1252"}
	rc, err := src.Open(context.Background(), mustGet(t, SurvivalByYear))
	require.NoError(t, err)
	assert.Equal(t, "2004–2008,60 mo,0.9", readAll(t, rc))
}

func TestDirSource_Missing(t *testing.T) {
	src := &DirSource{Dir: t.TempDir()}
	_, err := src.Open(context.Background(), mustGet(t, CauseOfDeath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cause_of_death.txt")
}

func TestDirSource_BadCharset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cause_of_death.txt"), []byte("Breast,1"), 0o600))

	src := &DirSource{Dir: dir, Charset: "klingon"}
	_, err := src.Open(context.Background(), mustGet(t, CauseOfDeath))
	assert.Error(t, err)
}

func TestHTTPSource_Open(t *testing.T) {
	f := new(mockFetcher)
	f.On("Download", mock.Anything, "https://example.org/exports/survival_by_stage.txt").
		Return(io.NopCloser(strings.NewReader("Localized only,60 mo,0.92")), nil)
	f.On("Download", mock.Anything, "https://wonder.example/mortality").
		Return(io.NopCloser(strings.NewReader("[]")), nil)

	src := &HTTPSource{
		BaseURL:   "https://example.org/exports/",
		Overrides: map[string]string{Mortality: "https://wonder.example/mortality"},
		Fetcher:   f,
	}

	rc, err := src.Open(context.Background(), mustGet(t, SurvivalByStage))
	require.NoError(t, err)
	assert.Equal(t, "Localized only,60 mo,0.92", readAll(t, rc))

	rc, err = src.Open(context.Background(), mustGet(t, Mortality))
	require.NoError(t, err)
	assert.Equal(t, "[]", readAll(t, rc))

	f.AssertExpectations(t)
}

func TestHTTPSource_Errors(t *testing.T) {
	f := new(mockFetcher)
	f.On("Download", mock.Anything, mock.Anything).Return(nil, errors.New("503"))

	src := &HTTPSource{BaseURL: "https://example.org", Fetcher: f}
	_, err := src.Open(context.Background(), mustGet(t, CauseOfDeath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch cause_of_death")

	_, err = (&HTTPSource{Fetcher: f}).Open(context.Background(), mustGet(t, CauseOfDeath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no base url")
}

func TestOverlaySource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cause_of_death.txt"), []byte("Breast,1"), 0o600))

	f := new(mockFetcher)
	f.On("Download", mock.Anything, "https://wonder.example/mortality").
		Return(io.NopCloser(strings.NewReader("[]")), nil)

	src := &OverlaySource{
		Names:    map[string]bool{Mortality: true},
		Primary:  &HTTPSource{Overrides: map[string]string{Mortality: "https://wonder.example/mortality"}, Fetcher: f},
		Fallback: &DirSource{Dir: dir},
	}

	rc, err := src.Open(context.Background(), mustGet(t, CauseOfDeath))
	require.NoError(t, err)
	assert.Equal(t, "Breast,1", readAll(t, rc))

	rc, err = src.Open(context.Background(), mustGet(t, Mortality))
	require.NoError(t, err)
	assert.Equal(t, "[]", readAll(t, rc))
	f.AssertExpectations(t)
}
