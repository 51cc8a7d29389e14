package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

// Store keeps per-user tab and bookmark state in Redis as JSON blobs.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration // 0 keeps records forever
}

// NewStore creates a new Redis store. A zero ttl disables expiry; otherwise
// every write refreshes the expiry of the written key.
func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// LoadTabs reads the tab state of a user. found is false when no record exists.
func (s *Store) LoadTabs(ctx context.Context, userID string) (domain.TabState, bool, error) {
	var state domain.TabState
	found, err := s.get(ctx, TabsKey(userID), &state)
	if err != nil {
		return domain.TabState{}, false, fmt.Errorf("failed to load tabs: %w", err)
	}
	return state, found, nil
}

// SaveTabs overwrites the tab state of a user.
func (s *Store) SaveTabs(ctx context.Context, userID string, state domain.TabState) error {
	if err := s.set(ctx, TabsKey(userID), state); err != nil {
		return fmt.Errorf("failed to save tabs: %w", err)
	}
	return nil
}

// LoadBookmarks reads the bookmarks of a user. found is false when no record exists.
func (s *Store) LoadBookmarks(ctx context.Context, userID string) (domain.Bookmarks, bool, error) {
	var bms domain.Bookmarks
	found, err := s.get(ctx, BookmarksKey(userID), &bms)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	if found && bms == nil {
		bms = domain.Bookmarks{}
	}
	return bms, found, nil
}

// SaveBookmarks overwrites the bookmarks of a user.
func (s *Store) SaveBookmarks(ctx context.Context, userID string, bms domain.Bookmarks) error {
	if bms == nil {
		bms = domain.Bookmarks{}
	}
	if err := s.set(ctx, BookmarksKey(userID), bms); err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return nil
}

// DeleteUser removes both records of a user.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, TabsKey(userID), BookmarksKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete user state: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}
