package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pable/go-cog-metrics/internal/model"
)

// Source is a named, re-openable mega file. Every successful Open must be
// paired with a Close by the caller.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource struct{ path string }

// FileSource reads the mega file at path. Its name is the base name.
func FileSource(path string) Source { return fileSource{path: path} }

func (s fileSource) Name() string { return filepath.Base(s.path) }

func (s fileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrIO, s.path, err)
	}
	return f, nil
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource serves an uploaded buffer under the given filename.
func BytesSource(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (s bytesSource) Name() string { return s.name }

func (s bytesSource) Open() (io.ReadCloser, error) {
	if s.data == nil {
		return nil, fmt.Errorf("%w: %s has no content", model.ErrIO, s.name)
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// LoadSource opens src, loads it with schema, and closes it on every path.
// Sources named *.gz or *.zst are decompressed on the fly.
func LoadSource(src Source, schema Schema) (t *Table, err error) {
	raw, err := src.Open()
	if err != nil {
		return nil, err
	}
	rc, err := decompress(src.Name(), raw)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %v", model.ErrIO, src.Name(), cerr)
		}
	}()
	return Load(rc, schema)
}
