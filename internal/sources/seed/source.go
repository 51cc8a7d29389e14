package seed

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

// Gauge receives the number of top-level seed entries after each reload.
type Gauge interface {
	Set(float64)
}

// Source holds the current seed and swaps it on Reload. An empty file path
// gives a source that always yields an empty collection.
type Source struct {
	loader *Loader
	gauge  Gauge

	current    atomic.Pointer[domain.Bookmarks]
	lastReload atomic.Int64
}

// NewSource creates a source for filePath. Nothing is read until Reload.
func NewSource(filePath string, gauge Gauge) *Source {
	s := &Source{gauge: gauge}
	if filePath != "" {
		s.loader = NewLoader(filePath)
	}
	empty := domain.Bookmarks{}
	s.current.Store(&empty)
	return s
}

// Enabled reports whether a seed file is configured.
func (s *Source) Enabled() bool { return s.loader != nil }

// Reload reads the file again. On error the previous seed stays in place.
// It returns the number of top-level entries loaded.
func (s *Source) Reload() (int, error) {
	if s.loader == nil {
		return 0, nil
	}

	file, err := s.loader.Load()
	if err != nil {
		return 0, err
	}
	bms, err := MapBookmarks(file)
	if err != nil {
		return 0, fmt.Errorf("failed to map seed: %w", err)
	}

	s.current.Store(&bms)
	s.lastReload.Store(time.Now().UnixNano())
	if s.gauge != nil {
		s.gauge.Set(float64(len(bms)))
	}
	return len(bms), nil
}

// Bookmarks returns a private copy of the current seed.
func (s *Source) Bookmarks() domain.Bookmarks {
	return s.current.Load().Clone()
}

// LastReload returns when the seed was last loaded successfully.
func (s *Source) LastReload() time.Time {
	ns := s.lastReload.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
