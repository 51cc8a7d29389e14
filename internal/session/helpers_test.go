package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

// recordingSaver keeps every snapshot it is handed, in order.
type recordingSaver struct {
	mu        sync.Mutex
	tabs      []domain.TabState
	bookmarks []domain.Bookmarks
}

func (r *recordingSaver) SaveTabs(_ string, state domain.TabState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs = append(r.tabs, state)
}

func (r *recordingSaver) SaveBookmarks(_ string, bms domain.Bookmarks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookmarks = append(r.bookmarks, bms)
}

func (r *recordingSaver) tabWrites() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

func (r *recordingSaver) bookmarkWrites() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookmarks)
}

type navCall struct {
	userID string
	loc    domain.Location
	msg    domain.MessageRef
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNavigator) NavigateTo(userID string, loc domain.Location, msg domain.MessageRef) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{userID: userID, loc: loc, msg: msg})
}

func (n *recordingNavigator) last() navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return navCall{}
	}
	return n.calls[len(n.calls)-1]
}

// sequentialIDs returns tab-1, tab-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("tab-%d", n)
	}
}

// mapLoader serves fixed records and counts loads.
type mapLoader struct {
	mu        sync.Mutex
	tabs      map[string]domain.TabState
	bookmarks map[string]domain.Bookmarks
	err       error
	loads     int
}

func (m *mapLoader) LoadTabs(_ context.Context, userID string) (domain.TabState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.err != nil {
		return domain.TabState{}, false, m.err
	}
	s, ok := m.tabs[userID]
	return s, ok, nil
}

func (m *mapLoader) LoadBookmarks(_ context.Context, userID string) (domain.Bookmarks, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	b, ok := m.bookmarks[userID]
	return b, ok, nil
}

func loc(guild, channel string) domain.Location {
	return domain.NewLocation(guild, channel)
}

func tabIDs(s domain.TabState) []string {
	ids := make([]string, len(s.Tabs))
	for i, t := range s.Tabs {
		ids[i] = t.ID
	}
	return ids
}

func names(bms []domain.Bookmark) []string {
	out := make([]string, len(bms))
	for i, b := range bms {
		out[i] = b.Name
	}
	return out
}

func entryNames(bms domain.Bookmarks) []string {
	out := make([]string, len(bms))
	for i, e := range bms {
		out[i] = e.Name
	}
	return out
}

// gatedSaver blocks its first save, of either kind, until release is closed.
type gatedSaver struct {
	recordingSaver
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSaver() *gatedSaver {
	return &gatedSaver{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSaver) wait() {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
}

func (g *gatedSaver) SaveTabs(userID string, state domain.TabState) {
	g.wait()
	g.recordingSaver.SaveTabs(userID, state)
}

func (g *gatedSaver) SaveBookmarks(userID string, bms domain.Bookmarks) {
	g.wait()
	g.recordingSaver.SaveBookmarks(userID, bms)
}
