package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
)

// DefaultLoadTimeout bounds the state load done on a user's first access.
const DefaultLoadTimeout = 5 * time.Second

// Sessions groups the two sessions of one user.
type Sessions struct {
	UserID    string
	Tabs      *TabSession
	Bookmarks *BookmarkSession
}

// Gauge is the part of a metrics gauge the registry reports to.
type Gauge interface {
	Set(float64)
}

// RegistryOptions configures a Registry. Loader may be nil, in which case
// every user starts fresh.
type RegistryOptions struct {
	Loader      Loader
	Locator     Locator
	Seed        func() domain.Bookmarks // initial bookmarks for users without a record
	LoadTimeout time.Duration
	Active      Gauge            // receives the number of live users
	OnCreate    func(*Sessions)  // called once per user, after the initial load
	Now         func() time.Time // defaults to time.Now
	Deps
}

// Registry maps user ids to their sessions.
//
// Sessions are created lazily by GetOrCreate, loading persisted state once,
// and live until Evict is called for the user (logout).
type Registry struct {
	opts RegistryOptions
	log  logger.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once     sync.Once
	sessions *Sessions
	lastSeen atomic.Int64 // unix nanos of the last GetOrCreate or Get
}

// NewRegistry builds an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	opts.Deps = opts.Deps.withDefaults()
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		opts:    opts,
		log:     opts.Logger,
		entries: make(map[string]*entry),
	}
}

// GetOrCreate returns the sessions of userID, loading them on first access.
// Concurrent first calls for the same user share one load.
func (r *Registry) GetOrCreate(userID string) *Sessions {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{}
		r.entries[userID] = e
		r.reportLocked()
	}
	e.lastSeen.Store(r.opts.Now().UnixNano())
	r.mu.Unlock()

	e.once.Do(func() { e.sessions = r.create(userID) })
	return e.sessions
}

// Get returns the sessions of userID without creating them.
func (r *Registry) Get(userID string) (*Sessions, bool) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if ok {
		e.lastSeen.Store(r.opts.Now().UnixNano())
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	e.once.Do(func() { e.sessions = r.create(userID) })
	return e.sessions, true
}

// Evict drops the sessions of userID. Writes already handed to the Saver
// still complete. It reports whether the user was present.
func (r *Registry) Evict(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[userID]; !ok {
		return false
	}
	delete(r.entries, userID)
	r.reportLocked()
	r.log.Info("sessions evicted", logger.UserID(userID))
	return true
}

// EvictIdle drops every user not accessed for longer than idle and returns
// their ids. Pending writes of evicted users still complete.
func (r *Registry) EvictIdle(idle time.Duration) []string {
	cutoff := r.opts.Now().Add(-idle).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, e := range r.entries {
		if e.lastSeen.Load() < cutoff {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	if len(evicted) > 0 {
		r.reportLocked()
		r.log.Info("idle sessions evicted", logger.Int("count", len(evicted)))
	}
	return evicted
}

// Len returns the number of live users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) reportLocked() {
	if r.opts.Active != nil {
		r.opts.Active.Set(float64(len(r.entries)))
	}
}

func (r *Registry) create(userID string) *Sessions {
	s := r.load(userID)
	if r.opts.OnCreate != nil {
		r.opts.OnCreate(s)
	}
	return s
}

func (r *Registry) load(userID string) *Sessions {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.LoadTimeout)
	defer cancel()

	log := r.log.With(logger.UserID(userID))

	tabs, persistTabs := r.loadTabs(ctx, userID, log)
	bms, persistBookmarks := r.loadBookmarks(ctx, userID, log)

	s := &Sessions{
		UserID:    userID,
		Tabs:      NewTabSession(userID, tabs, r.opts.Deps),
		Bookmarks: NewBookmarkSession(userID, bms, r.opts.Deps),
	}

	if persistTabs {
		r.opts.Saver.SaveTabs(userID, s.Tabs.Snapshot())
	}
	if persistBookmarks {
		r.opts.Saver.SaveBookmarks(userID, s.Bookmarks.Snapshot())
	}

	log.Info("sessions created",
		logger.Int("tabs", len(tabs.Tabs)),
		logger.Int("bookmarks", len(bms)))
	return s
}

// loadTabs returns the state to start from and whether it must be written
// back. A failed load starts from defaults without overwriting the record.
func (r *Registry) loadTabs(ctx context.Context, userID string, log logger.Logger) (domain.TabState, bool) {
	if r.opts.Loader == nil {
		return r.defaultTabs(userID), true
	}
	state, found, err := r.opts.Loader.LoadTabs(ctx, userID)
	switch {
	case err != nil:
		log.Warn("failed to load tabs, starting from defaults", logger.Error(err))
		return r.defaultTabs(userID), false
	case !found:
		return r.defaultTabs(userID), true
	default:
		return state.Normalize(), false
	}
}

func (r *Registry) loadBookmarks(ctx context.Context, userID string, log logger.Logger) (domain.Bookmarks, bool) {
	if r.opts.Loader == nil {
		return r.defaultBookmarks(), true
	}
	bms, found, err := r.opts.Loader.LoadBookmarks(ctx, userID)
	switch {
	case err != nil:
		log.Warn("failed to load bookmarks, starting from defaults", logger.Error(err))
		return r.defaultBookmarks(), false
	case !found:
		return r.defaultBookmarks(), true
	default:
		return bms, false
	}
}

// defaultTabs opens one tab at the location the user is looking at, if known.
func (r *Registry) defaultTabs(userID string) domain.TabState {
	state := domain.TabState{Tabs: []domain.Tab{}}
	if r.opts.Locator == nil {
		return state
	}
	loc, ok := r.opts.Locator.CurrentLocation(userID)
	if !ok || loc.IsZero() {
		return state
	}
	tab := domain.Tab{ID: r.opts.NewID(), Location: loc}
	state.Tabs = append(state.Tabs, tab)
	state.ActiveID = tab.ID
	return state
}

func (r *Registry) defaultBookmarks() domain.Bookmarks {
	if r.opts.Seed == nil {
		return domain.Bookmarks{}
	}
	return r.opts.Seed().Clone()
}
