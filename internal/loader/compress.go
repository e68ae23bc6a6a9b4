package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-cog-metrics/internal/model"
)

// CompressionExt returns the compression suffix of name (".gz" or ".zst"),
// or "" when the file is stored plain.
func CompressionExt(name string) string {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".gz", ".zst":
		return ext
	}
	return ""
}

// stackedCloser closes the decoder before the underlying file.
type stackedCloser struct {
	io.Reader
	closers []func() error
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decompress wraps rc in a decoder chosen by the source name. Plain files are
// returned unchanged. On error rc is closed.
func decompress(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	switch CompressionExt(name) {
	case ".gz":
		gz, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("%w: gzip %s: %v", model.ErrIO, name, err)
		}
		return &stackedCloser{Reader: gz, closers: []func() error{gz.Close, rc.Close}}, nil
	case ".zst":
		dec, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("%w: zstd %s: %v", model.ErrIO, name, err)
		}
		return &stackedCloser{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			rc.Close,
		}}, nil
	}
	return rc, nil
}
