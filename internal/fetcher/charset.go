package fetcher

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CharsetReader wraps r so it yields UTF-8. Registry exports are often
// windows-1252. An empty label or any UTF-8 alias returns r unchanged.
func CharsetReader(r io.Reader, label string) (io.Reader, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", label)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return r, nil
	}
	return enc.NewDecoder().Reader(r), nil
}
