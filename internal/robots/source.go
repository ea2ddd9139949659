package robots

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Source supplies raw robots.txt bytes for an origin ("https://host").
// Returning nil data with a nil error means the origin has no robots file.
type Source interface {
	Fetch(ctx context.Context, origin string) ([]byte, error)
}

// MapSource serves robots files from memory, keyed by origin.
type MapSource map[string]string

// Fetch implements Source.
func (m MapSource) Fetch(_ context.Context, origin string) ([]byte, error) {
	text, ok := m[origin]
	if !ok {
		return nil, nil
	}
	return []byte(text), nil
}

// DirSource reads robots files from a local directory. The file for
// "https://www.ics.uci.edu" is "<dir>/www.ics.uci.edu.txt".
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Fetch implements Source. A missing file means no robots data.
func (d *DirSource) Fetch(_ context.Context, origin string) ([]byte, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}

	path := filepath.Join(d.dir, filepath.Base(u.Hostname())+".txt")
	data, err := os.ReadFile(path) //nolint:gosec // path is confined to the robots directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrRobotsUnavailable, err)
	}
	return data, nil
}

// ChainSource asks each source in order and returns the first robots data
// found. Errors are remembered and returned only when no source had data.
type ChainSource []Source

// Fetch implements Source.
func (c ChainSource) Fetch(ctx context.Context, origin string) ([]byte, error) {
	var errs []error
	for _, src := range c {
		data, err := src.Fetch(ctx, origin)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if data != nil {
			return data, nil
		}
	}
	return nil, errors.Join(errs...)
}
