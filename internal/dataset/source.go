package dataset

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seer-cli/internal/fetcher"
)

// Source opens the raw extract for a dataset.
type Source interface {
	Open(ctx context.Context, d Dataset) (io.ReadCloser, error)
}

// DirSource reads extracts from a local directory.
type DirSource struct {
	Dir string
	// Charset of the text extracts; empty means UTF-8.
	Charset string
}

// Open implements Source.
func (s *DirSource) Open(_ context.Context, d Dataset) (io.ReadCloser, error) {
	p := filepath.Join(s.Dir, d.File())
	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", p)
	}
	return decodeText(f, d, s.Charset)
}

// HTTPSource downloads extracts from a base URL. Overrides maps a dataset
// name to a full URL, e.g. the registry's mortality JSON endpoint.
type HTTPSource struct {
	BaseURL   string
	Overrides map[string]string
	Fetcher   fetcher.Fetcher
	Charset   string
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, d Dataset) (io.ReadCloser, error) {
	u, err := s.urlFor(d)
	if err != nil {
		return nil, err
	}
	body, err := s.Fetcher.Download(ctx, u)
	if err != nil {
		return nil, eris.Wrapf(err, "source: fetch %s", d.Name())
	}
	return decodeText(body, d, s.Charset)
}

func (s *HTTPSource) urlFor(d Dataset) (string, error) {
	if u, ok := s.Overrides[d.Name()]; ok && u != "" {
		return u, nil
	}
	if s.BaseURL == "" {
		return "", eris.Errorf("source: no base url for %s", d.Name())
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", eris.Wrapf(err, "source: parse base url %q", s.BaseURL)
	}
	base.Path = path.Join(base.Path, d.File())
	return base.String(), nil
}

// OverlaySource tries Primary for datasets listed in Names and Fallback for
// everything else.
type OverlaySource struct {
	Names    map[string]bool
	Primary  Source
	Fallback Source
}

// Open implements Source.
func (s *OverlaySource) Open(ctx context.Context, d Dataset) (io.ReadCloser, error) {
	if s.Names[d.Name()] {
		return s.Primary.Open(ctx, d)
	}
	return s.Fallback.Open(ctx, d)
}

type readCloser struct {
	io.Reader
	io.Closer
}

// decodeText wraps text extracts in a charset decoder. JSON sources are
// always UTF-8 and pass through.
func decodeText(rc io.ReadCloser, d Dataset, charset string) (io.ReadCloser, error) {
	if !strings.HasSuffix(d.File(), ".txt") {
		return rc, nil
	}
	r, err := fetcher.CharsetReader(rc, charset)
	if err != nil {
		rc.Close() //nolint:errcheck
		return nil, err
	}
	return readCloser{Reader: r, Closer: rc}, nil
}
