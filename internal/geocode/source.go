package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/JaimeStill/addrsplit/pkg/storage"
)

// ErrMissingDump indicates a configured dump file is absent from its source.
var ErrMissingDump = errors.New("geonames dump missing")

// Source opens named GeoNames dump files.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads dumps from a local directory.
type DirSource string

func (d DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(string(d), filepath.Base(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingDump, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// BlobSource reads dumps from blob storage under Prefix.
type BlobSource struct {
	Store  storage.System
	Prefix string
}

func (b BlobSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := path.Join(b.Prefix, name)
	rc, err := b.Store.Download(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingDump, key)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return rc, nil
}
