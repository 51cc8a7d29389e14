// Package memory is a process-local state store. State is lost on restart;
// it backs tests and single-instance setups without Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

// Store keeps deep copies of every user's state.
type Store struct {
	mu        sync.RWMutex
	tabs      map[string]domain.TabState  // userID -> tabs
	bookmarks map[string]domain.Bookmarks // userID -> bookmarks
	lastWrite time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		tabs:      make(map[string]domain.TabState),
		bookmarks: make(map[string]domain.Bookmarks),
	}
}

func (s *Store) LoadTabs(_ context.Context, userID string) (domain.TabState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.tabs[userID]
	if !ok {
		return domain.TabState{}, false, nil
	}
	return state.Clone(), true, nil
}

func (s *Store) SaveTabs(_ context.Context, userID string, state domain.TabState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tabs[userID] = state.Clone()
	s.lastWrite = time.Now()
	return nil
}

func (s *Store) LoadBookmarks(_ context.Context, userID string) (domain.Bookmarks, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bms, ok := s.bookmarks[userID]
	if !ok {
		return nil, false, nil
	}
	return bms.Clone(), true, nil
}

func (s *Store) SaveBookmarks(_ context.Context, userID string, bms domain.Bookmarks) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookmarks[userID] = bms.Clone()
	s.lastWrite = time.Now()
	return nil
}

// DeleteUser removes both records of a user
func (s *Store) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tabs, userID)
	delete(s.bookmarks, userID)
	return nil
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// Users returns the number of users with at least one record
func (s *Store) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.tabs)
	for id := range s.bookmarks {
		if _, ok := s.tabs[id]; !ok {
			n++
		}
	}
	return n
}

// LastWrite returns the time of the most recent save
func (s *Store) LastWrite() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastWrite
}
