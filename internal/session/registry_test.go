package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

type fakeGauge struct {
	mu sync.Mutex
	v  float64
}

func (g *fakeGauge) Set(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v = v
}

func (g *fakeGauge) value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v
}

func TestRegistryGetOrCreateReturnsSameSessions(t *testing.T) {
	loader := &mapLoader{}
	r := NewRegistry(RegistryOptions{Loader: loader})

	var wg sync.WaitGroup
	got := make([]*Sessions, 16)
	for i := range got {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = r.GetOrCreate("alice")
		}()
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 1, loader.loads, "state is loaded once per user")
	assert.Equal(t, "alice", got[0].Tabs.UserID())
	assert.Equal(t, "alice", got[0].Bookmarks.UserID())
}

func TestRegistryUsersAreIsolated(t *testing.T) {
	r := NewRegistry(RegistryOptions{Deps: Deps{NewID: sequentialIDs()}})

	a := r.GetOrCreate("alice")
	b := r.GetOrCreate("bob")
	a.Tabs.CreateTab(loc("g", "1"), domain.MessageRef{}, false)

	assert.NotSame(t, a, b)
	assert.Len(t, a.Tabs.Snapshot().Tabs, 1)
	assert.Empty(t, b.Tabs.Snapshot().Tabs)
}

func TestRegistryEvict(t *testing.T) {
	gauge := &fakeGauge{}
	r := NewRegistry(RegistryOptions{Active: gauge})

	first := r.GetOrCreate("alice")
	r.GetOrCreate("bob")
	assert.Equal(t, 2.0, gauge.value())

	assert.True(t, r.Evict("alice"))
	assert.False(t, r.Evict("alice"))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1.0, gauge.value())

	_, ok := r.Get("alice")
	assert.False(t, ok)
	assert.NotSame(t, first, r.GetOrCreate("alice"), "a new login gets fresh sessions")
}

func TestRegistryDefaultsPersistMissingRecord(t *testing.T) {
	saver := &recordingSaver{}
	r := NewRegistry(RegistryOptions{
		Loader: &mapLoader{},
		Locator: LocatorFunc(func(string) (domain.Location, bool) {
			return loc("g", "general"), true
		}),
		Seed: func() domain.Bookmarks {
			return domain.Bookmarks{leaf("welcome")}
		},
		Deps: Deps{Saver: saver, NewID: sequentialIDs()},
	})

	s := r.GetOrCreate("alice")

	tabs := s.Tabs.Snapshot()
	require.Len(t, tabs.Tabs, 1)
	assert.Equal(t, "tab-1", tabs.ActiveID)
	assert.Equal(t, loc("g", "general"), tabs.Tabs[0].Location)
	assert.Equal(t, []string{"welcome"}, entryNames(s.Bookmarks.Snapshot()))
	assert.Equal(t, 1, saver.tabWrites())
	assert.Equal(t, 1, saver.bookmarkWrites())
}

func TestRegistryNoLocationStartsEmpty(t *testing.T) {
	r := NewRegistry(RegistryOptions{
		Locator: LocatorFunc(func(string) (domain.Location, bool) { return domain.Location{}, false }),
	})

	tabs := r.GetOrCreate("alice").Tabs.Snapshot()
	assert.Empty(t, tabs.Tabs)
	assert.Empty(t, tabs.ActiveID)
}

func TestRegistryLoadErrorDoesNotOverwrite(t *testing.T) {
	saver := &recordingSaver{}
	r := NewRegistry(RegistryOptions{
		Loader: &mapLoader{err: errors.New("connection refused")},
		Deps:   Deps{Saver: saver},
	})

	s := r.GetOrCreate("alice")

	assert.Empty(t, s.Tabs.Snapshot().Tabs)
	assert.Empty(t, s.Bookmarks.Snapshot())
	assert.Equal(t, 0, saver.tabWrites())
	assert.Equal(t, 0, saver.bookmarkWrites())
}

func TestRegistryLoadsStoredState(t *testing.T) {
	saver := &recordingSaver{}
	loader := &mapLoader{
		tabs: map[string]domain.TabState{
			"alice": {
				Tabs: []domain.Tab{
					{ID: "a", Location: loc("g", "1")},
					{ID: "a", Location: loc("g", "2")},
					{ID: "b", Location: loc("g", "3"), Unread: true},
				},
				ActiveID: "gone",
			},
		},
		bookmarks: map[string]domain.Bookmarks{
			"alice": {folder("F", "x")},
		},
	}
	r := NewRegistry(RegistryOptions{Loader: loader, Deps: Deps{Saver: saver}})

	s := r.GetOrCreate("alice")

	tabs := s.Tabs.Snapshot()
	assert.Equal(t, []string{"a", "b"}, tabIDs(tabs), "duplicate ids are dropped")
	assert.Empty(t, tabs.ActiveID, "dangling active id is cleared")
	assert.Equal(t, []string{"F"}, entryNames(s.Bookmarks.Snapshot()))
	assert.Equal(t, 0, saver.tabWrites(), "stored state is not written back")
}

func TestRegistrySharesDepsWithSessions(t *testing.T) {
	saver := &recordingSaver{}
	nav := &recordingNavigator{}
	r := NewRegistry(RegistryOptions{Deps: Deps{Saver: saver, Navigator: nav}})

	s := r.GetOrCreate("alice")
	writes := saver.tabWrites()
	s.Tabs.CreateTab(loc("g", "1"), domain.MessageRef{}, false)

	assert.Equal(t, writes+1, saver.tabWrites())
	assert.Equal(t, "alice", nav.last().userID)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistryEvictIdle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	gauge := &fakeGauge{}
	r := NewRegistry(RegistryOptions{Now: clock.Now, Active: gauge})

	r.GetOrCreate("alice")
	r.GetOrCreate("bob")
	clock.Advance(10 * time.Minute)
	_, ok := r.Get("bob")
	require.True(t, ok)
	clock.Advance(10 * time.Minute)

	evicted := r.EvictIdle(15 * time.Minute)
	assert.Equal(t, []string{"alice"}, evicted)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1.0, gauge.value())

	_, ok = r.Get("alice")
	assert.False(t, ok)

	assert.Empty(t, r.EvictIdle(15*time.Minute), "bob was seen within the window")
}

func TestRegistryOnCreateRunsOncePerUser(t *testing.T) {
	var mu sync.Mutex
	created := map[string]int{}
	r := NewRegistry(RegistryOptions{OnCreate: func(s *Sessions) {
		mu.Lock()
		defer mu.Unlock()
		require.NotNil(t, s.Tabs)
		require.NotNil(t, s.Bookmarks)
		created[s.UserID]++
	}})

	r.GetOrCreate("alice")
	r.GetOrCreate("alice")
	r.GetOrCreate("bob")

	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, created)

	r.Evict("alice")
	r.GetOrCreate("alice")
	assert.Equal(t, 2, created["alice"], "a user recreated after eviction is announced again")
}
