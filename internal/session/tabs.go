package session

import (
	"slices"
	"sync"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
	"github.com/MrSnakeDoc/chantabs/internal/reorder"
)

// TabSession owns the ordered tabs of one user and the active pointer.
//
// Every mutation commits in memory, hands a full snapshot to the Saver and
// then notifies subscribers synchronously. Unknown ids and stale indices are
// silent no-ops.
type TabSession struct {
	userID string
	deps   Deps
	log    logger.Logger
	subs   subscribers[domain.TabState]

	// pubMu is held from commit until publish returns, so the Saver and
	// subscribers see snapshots in commit order. Taken before mu.
	pubMu sync.Mutex
	mu    sync.Mutex
	state domain.TabState
}

type navigation struct {
	loc domain.Location
	msg domain.MessageRef
}

// NewTabSession builds a session around an initial state.
// It does not persist the initial state; the Registry decides that.
func NewTabSession(userID string, initial domain.TabState, deps Deps) *TabSession {
	deps = deps.withDefaults()
	return &TabSession{
		userID: userID,
		deps:   deps,
		log:    deps.Logger.With(logger.UserID(userID), logger.String("collection", "tabs")),
		state:  initial.Normalize().Clone(),
	}
}

// UserID returns the owner of the session.
func (s *TabSession) UserID() string { return s.userID }

// CreateTab opens loc in a new active tab and returns its id.
//
// Unless forceNew is set, a tab already showing loc is activated instead and
// its id returned. A non-zero msg overrides where navigation lands.
func (s *TabSession) CreateTab(loc domain.Location, msg domain.MessageRef, forceNew bool) string {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	if !forceNew {
		if i := slices.IndexFunc(s.state.Tabs, func(t domain.Tab) bool { return t.Location == loc }); i >= 0 {
			id := s.state.Tabs[i].ID
			nav := s.activateLocked(i)
			if !msg.IsZero() {
				nav.msg = msg
			}
			snap := s.state.Clone()
			s.mu.Unlock()

			s.log.Debug("tab already open, activating", logger.String("tab_id", id), logger.Stringer("location", loc))
			s.publish(snap, nav)
			return id
		}
	}

	tab := domain.Tab{ID: s.deps.NewID(), Location: loc, MessageID: msg}
	for s.state.IndexOf(tab.ID) >= 0 {
		tab.ID = s.deps.NewID()
	}
	s.state.Tabs = append(s.state.Tabs, tab)
	nav := s.activateLocked(len(s.state.Tabs) - 1)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.log.Debug("tab created", logger.String("tab_id", tab.ID), logger.Stringer("location", loc))
	s.publish(snap, nav)
	return tab.ID
}

// CloseTab removes a tab. Closing the active tab activates its left
// neighbour, else the new first tab, else nothing.
func (s *TabSession) CloseTab(id string) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	i := s.state.IndexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.log.Debug("close ignored, tab not found", logger.String("tab_id", id))
		return
	}
	nav := s.closeLocked(i)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.log.Debug("tab closed", logger.String("tab_id", id))
	s.publish(snap, nav)
}

// CloseActiveTab closes whichever tab is active, if any.
func (s *TabSession) CloseActiveTab() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	i := s.state.IndexOf(s.state.ActiveID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	nav := s.closeLocked(i)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.publish(snap, nav)
}

// SwitchTab makes id the active tab and clears its unread flag.
func (s *TabSession) SwitchTab(id string) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	i := s.state.IndexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.log.Debug("switch ignored, tab not found", logger.String("tab_id", id))
		return
	}
	nav := s.activateLocked(i)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.publish(snap, nav)
}

// CycleTab activates the tab step positions away from the active one,
// wrapping around. With unreadOnly only unread tabs are candidates. A step
// larger than the candidate count wraps modulo that count. It returns the id of the tab it switched to.
func (s *TabSession) CycleTab(step int, unreadOnly bool) (string, bool) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	n := len(s.state.Tabs)
	if n == 0 || step == 0 {
		s.mu.Unlock()
		return "", false
	}

	dir := 1
	if step < 0 {
		dir = -1
	}
	start := s.state.IndexOf(s.state.ActiveID)
	if start < 0 && dir < 0 {
		start = n
	}

	// Candidates in visiting order; steps wrap around their count.
	candidates := make([]int, 0, n)
	for k, i := 0, start; k < n; k++ {
		i = ((i+dir)%n + n) % n
		if unreadOnly && !s.state.Tabs[i].Unread {
			continue
		}
		candidates = append(candidates, i)
	}
	target := -1
	if len(candidates) > 0 {
		target = candidates[(step*dir-1)%len(candidates)]
	}
	if target < 0 || s.state.Tabs[target].ID == s.state.ActiveID {
		s.mu.Unlock()
		return "", false
	}

	id := s.state.Tabs[target].ID
	nav := s.activateLocked(target)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.publish(snap, nav)
	return id, true
}

// MoveTab applies one drag event. It returns the drag index to use for the
// next event of the same gesture. The active tab id never changes.
func (s *TabSession) MoveTab(from, to int) int {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	drag, moved := reorder.Move(s.state.Tabs, from, to)
	if !moved {
		s.mu.Unlock()
		return drag
	}
	snap := s.state.Clone()
	s.mu.Unlock()

	s.publish(snap, nil)
	return drag
}

// MarkUnread flags a tab. Idempotent.
func (s *TabSession) MarkUnread(id string) { s.setUnread(id, true) }

// ClearUnread clears a tab's flag. Idempotent.
func (s *TabSession) ClearUnread(id string) { s.setUnread(id, false) }

// MarkUnreadAt flags every inactive tab showing loc and reports how many
// changed. Incoming-message observers call it per location.
func (s *TabSession) MarkUnreadAt(loc domain.Location) int {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	changed := 0
	for i := range s.state.Tabs {
		t := &s.state.Tabs[i]
		if t.Location != loc || t.ID == s.state.ActiveID || t.Unread {
			continue
		}
		t.Unread = true
		changed++
	}
	if changed == 0 {
		s.mu.Unlock()
		return 0
	}
	snap := s.state.Clone()
	s.mu.Unlock()

	s.publish(snap, nil)
	return changed
}

// Snapshot returns a copy of the tabs and the active id.
func (s *TabSession) Snapshot() domain.TabState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn for every committed change and returns the handle
// that removes it. fn receives a shared snapshot and must not modify it.
// fn may read the session but must not mutate it.
func (s *TabSession) Subscribe(fn func(domain.TabState)) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *TabSession) setUnread(id string, unread bool) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	i := s.state.IndexOf(id)
	if i < 0 || s.state.Tabs[i].Unread == unread {
		s.mu.Unlock()
		return
	}
	s.state.Tabs[i].Unread = unread
	snap := s.state.Clone()
	s.mu.Unlock()

	s.publish(snap, nil)
}

// activateLocked points the active id at the tab at i and clears its unread
// flag. The caller holds s.mu.
func (s *TabSession) activateLocked(i int) *navigation {
	t := &s.state.Tabs[i]
	s.state.ActiveID = t.ID
	t.Unread = false
	return &navigation{loc: t.Location, msg: t.MessageID}
}

// closeLocked removes the tab at i and moves the active pointer if needed.
// The caller holds s.mu.
func (s *TabSession) closeLocked(i int) *navigation {
	wasActive := s.state.Tabs[i].ID == s.state.ActiveID
	s.state.Tabs, _, _ = reorder.Remove(s.state.Tabs, i)
	if !wasActive {
		return nil
	}

	s.state.ActiveID = ""
	if len(s.state.Tabs) == 0 {
		return nil
	}
	return s.activateLocked(max(i-1, 0))
}

func (s *TabSession) publish(snap domain.TabState, nav *navigation) {
	s.deps.Saver.SaveTabs(s.userID, snap.Clone())
	s.subs.notify(snap)
	if nav != nil {
		s.deps.Navigator.NavigateTo(s.userID, nav.loc, nav.msg)
	}
}
