package session

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

func newTestTabs(t *testing.T) (*TabSession, *recordingSaver, *recordingNavigator) {
	t.Helper()
	saver := &recordingSaver{}
	nav := &recordingNavigator{}
	s := NewTabSession("user-1", domain.TabState{}, Deps{
		Saver:     saver,
		Navigator: nav,
		NewID:     sequentialIDs(),
	})
	return s, saver, nav
}

func TestCreateTabDistinctLocations(t *testing.T) {
	s, saver, nav := newTestTabs(t)

	for i := 0; i < 5; i++ {
		id := s.CreateTab(loc("g", fmt.Sprint(i)), domain.MessageRef{}, false)

		snap := s.Snapshot()
		require.Len(t, snap.Tabs, i+1)
		assert.Equal(t, id, snap.ActiveID, "most recently created tab must be active")
		assert.Equal(t, loc("g", fmt.Sprint(i)), nav.last().loc)
	}
	assert.Equal(t, 5, saver.tabWrites())
}

func TestCreateTabDedupe(t *testing.T) {
	s, _, nav := newTestTabs(t)

	first := s.CreateTab(domain.Location{ChannelID: "1"}, domain.MessageRef{}, false)
	s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)
	second := s.CreateTab(domain.Location{ChannelID: "1"}, domain.MessageRef{}, false)

	snap := s.Snapshot()
	assert.Equal(t, first, second)
	assert.Len(t, snap.Tabs, 2)
	assert.Equal(t, first, snap.ActiveID)
	assert.Equal(t, "1", nav.last().loc.ChannelID)
}

func TestCreateTabTwiceInARowReturnsSameID(t *testing.T) {
	s, _, _ := newTestTabs(t)

	a := s.CreateTab(domain.Location{ChannelID: "1"}, domain.MessageRef{}, false)
	b := s.CreateTab(domain.Location{ChannelID: "1"}, domain.MessageRef{}, false)

	assert.Equal(t, a, b)
	assert.Len(t, s.Snapshot().Tabs, 1)
}

func TestCreateTabForceNew(t *testing.T) {
	s, _, _ := newTestTabs(t)

	a := s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	b := s.CreateTab(loc("g", "1"), domain.JumpToLatest, true)

	snap := s.Snapshot()
	assert.NotEqual(t, a, b)
	assert.Len(t, snap.Tabs, 2)
	assert.Equal(t, b, snap.ActiveID)
	assert.Equal(t, domain.JumpToLatest, snap.Tabs[1].MessageID)
}

func TestCreateTabDedupeNavigatesToRequestedMessage(t *testing.T) {
	s, _, nav := newTestTabs(t)

	s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	s.CreateTab(loc("g", "1"), domain.MessageID("42"), false)

	assert.Equal(t, domain.MessageID("42"), nav.last().msg)
}

func TestCloseTab(t *testing.T) {
	tests := []struct {
		name       string
		active     string
		close      string
		wantIDs    []string
		wantActive string
	}{
		{name: "active middle activates left", active: "B", close: "B", wantIDs: []string{"A", "C"}, wantActive: "A"},
		{name: "active leftmost activates new first", active: "A", close: "A", wantIDs: []string{"B", "C"}, wantActive: "B"},
		{name: "active rightmost activates left", active: "C", close: "C", wantIDs: []string{"A", "B"}, wantActive: "B"},
		{name: "inactive keeps active", active: "B", close: "C", wantIDs: []string{"A", "B"}, wantActive: "B"},
		{name: "unknown id is a no-op", active: "B", close: "Z", wantIDs: []string{"A", "B", "C"}, wantActive: "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initial := domain.TabState{
				Tabs: []domain.Tab{
					{ID: "A", Location: loc("g", "a")},
					{ID: "B", Location: loc("g", "b")},
					{ID: "C", Location: loc("g", "c"), Unread: true},
				},
				ActiveID: tt.active,
			}
			s := NewTabSession("u", initial, Deps{})

			s.CloseTab(tt.close)

			snap := s.Snapshot()
			assert.Equal(t, tt.wantIDs, tabIDs(snap))
			assert.Equal(t, tt.wantActive, snap.ActiveID)
		})
	}
}

func TestCloseLastTabLeavesNoActive(t *testing.T) {
	s, _, _ := newTestTabs(t)
	id := s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)

	s.CloseTab(id)
	s.CloseTab(id)

	snap := s.Snapshot()
	assert.Empty(t, snap.Tabs)
	assert.Empty(t, snap.ActiveID)
}

func TestCloseActiveTab(t *testing.T) {
	s, _, nav := newTestTabs(t)
	a := s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)

	s.CloseActiveTab()

	snap := s.Snapshot()
	assert.Equal(t, []string{a}, tabIDs(snap))
	assert.Equal(t, a, snap.ActiveID)
	assert.Equal(t, "1", nav.last().loc.ChannelID)
}

func TestSwitchTabClearsUnread(t *testing.T) {
	s, _, nav := newTestTabs(t)
	a := s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	b := s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)
	s.MarkUnread(a)

	s.SwitchTab(a)

	snap := s.Snapshot()
	assert.Equal(t, a, snap.ActiveID)
	assert.False(t, snap.Tabs[0].Unread)
	assert.Equal(t, "1", nav.last().loc.ChannelID)

	s.SwitchTab("missing")
	assert.Equal(t, a, s.Snapshot().ActiveID)
	_ = b
}

func TestMoveTabKeepsActiveIdentity(t *testing.T) {
	s, _, _ := newTestTabs(t)
	a := s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	b := s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)
	c := s.CreateTab(loc("g", "3"), domain.MessageRef{}, false)
	s.SwitchTab(a)

	drag := s.MoveTab(0, 1)
	drag = s.MoveTab(drag, 2)

	snap := s.Snapshot()
	assert.Equal(t, 2, drag)
	assert.Equal(t, []string{b, c, a}, tabIDs(snap))
	assert.Equal(t, a, snap.ActiveID)
}

func TestMoveTabNoOpDoesNotPersist(t *testing.T) {
	s, saver, _ := newTestTabs(t)
	s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	writes := saver.tabWrites()

	assert.Equal(t, 0, s.MoveTab(0, 0))
	assert.Equal(t, 7, s.MoveTab(7, 0))
	assert.Equal(t, writes, saver.tabWrites())
}

func TestMoveTabIsPermutation(t *testing.T) {
	s, _, _ := newTestTabs(t)
	for i := 0; i < 8; i++ {
		s.CreateTab(loc("g", fmt.Sprint(i)), domain.MessageRef{}, false)
	}
	before := tabIDs(s.Snapshot())
	slices.Sort(before)

	rng := rand.New(rand.NewSource(1))
	drag := rng.Intn(8)
	for i := 0; i < 200; i++ {
		drag = s.MoveTab(drag, rng.Intn(10)-1)
		if rng.Intn(5) == 0 {
			drag = rng.Intn(8)
		}
	}

	after := tabIDs(s.Snapshot())
	slices.Sort(after)
	assert.Equal(t, before, after)
}

func TestUnreadSettersAreIdempotent(t *testing.T) {
	s, saver, _ := newTestTabs(t)
	a := s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)
	writes := saver.tabWrites()

	s.MarkUnread(a)
	s.MarkUnread(a)
	assert.True(t, s.Snapshot().Tabs[0].Unread)
	assert.Equal(t, writes+1, saver.tabWrites())

	s.ClearUnread(a)
	s.ClearUnread(a)
	assert.False(t, s.Snapshot().Tabs[0].Unread)
	assert.Equal(t, writes+2, saver.tabWrites())

	s.MarkUnread("missing")
	assert.Equal(t, writes+2, saver.tabWrites())
}

func TestMarkUnreadAtSkipsActiveTab(t *testing.T) {
	s, _, _ := newTestTabs(t)
	s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	s.CreateTab(loc("g", "1"), domain.MessageRef{}, true)

	changed := s.MarkUnreadAt(loc("g", "1"))

	snap := s.Snapshot()
	assert.Equal(t, 1, changed)
	assert.True(t, snap.Tabs[0].Unread)
	assert.False(t, snap.Tabs[1].Unread)
	assert.Equal(t, 0, s.MarkUnreadAt(loc("g", "1")))
}

func TestCycleTab(t *testing.T) {
	s, _, _ := newTestTabs(t)
	a := s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	b := s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)
	c := s.CreateTab(loc("g", "3"), domain.MessageRef{}, false)

	id, ok := s.CycleTab(1, false)
	require.True(t, ok)
	assert.Equal(t, a, id, "next wraps from the last tab to the first")

	id, ok = s.CycleTab(-1, false)
	require.True(t, ok)
	assert.Equal(t, c, id)

	_, ok = s.CycleTab(1, true)
	assert.False(t, ok, "no unread tab to go to")

	s.MarkUnread(b)
	id, ok = s.CycleTab(-1, true)
	require.True(t, ok)
	assert.Equal(t, b, id)
	assert.False(t, s.Snapshot().Tabs[1].Unread)
}

func TestCycleTabWrapsLargeSteps(t *testing.T) {
	tests := []struct {
		name       string
		step       int
		unreadOnly bool
		want       string // "" means no switch
	}{
		{name: "one forward", step: 1, want: "tab-1"},
		{name: "two forward", step: 2, want: "tab-2"},
		{name: "full lap lands on active", step: 3},
		{name: "four forward wraps", step: 4, want: "tab-1"},
		{name: "five forward wraps", step: 5, want: "tab-2"},
		{name: "one back", step: -1, want: "tab-2"},
		{name: "four back wraps", step: -4, want: "tab-2"},
		{name: "seven back wraps twice", step: -7, want: "tab-2"},
		{name: "unread only wraps over one candidate", step: 3, unreadOnly: true, want: "tab-1"},
		{name: "unread only backwards", step: -2, unreadOnly: true, want: "tab-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestTabs(t)
			s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
			s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)
			s.CreateTab(loc("g", "3"), domain.MessageRef{}, false)
			s.MarkUnread("tab-1")

			id, ok := s.CycleTab(tt.step, tt.unreadOnly)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Equal(t, "tab-3", s.Snapshot().ActiveID)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, id)
			assert.Equal(t, tt.want, s.Snapshot().ActiveID)
		})
	}
}

func TestConcurrentMutationsPublishInCommitOrder(t *testing.T) {
	saver := newGatedSaver()
	s := NewTabSession("user-1", domain.TabState{}, Deps{Saver: saver, NewID: sequentialIDs()})

	var (
		mu   sync.Mutex
		seen []int
	)
	s.Subscribe(func(st domain.TabState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, len(st.Tabs))
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.CreateTab(loc("g", "a"), domain.MessageRef{}, false)
	}()
	<-saver.entered

	go func() {
		defer wg.Done()
		s.CreateTab(loc("g", "b"), domain.MessageRef{}, false)
	}()
	// Give the second mutation time to race the blocked publish.
	time.Sleep(20 * time.Millisecond)
	close(saver.release)
	wg.Wait()

	require.Len(t, s.Snapshot().Tabs, 2)
	require.Equal(t, 2, saver.tabWrites())
	saver.mu.Lock()
	last := saver.tabs[len(saver.tabs)-1]
	saver.mu.Unlock()
	assert.Len(t, last.Tabs, 2, "newest snapshot is saved last")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, seen)
}

func TestSubscribersSeeCommittedState(t *testing.T) {
	s, _, _ := newTestTabs(t)

	var seen []int
	unsubscribe := s.Subscribe(func(st domain.TabState) {
		seen = append(seen, len(st.Tabs))
		assert.Equal(t, len(st.Tabs), len(s.Snapshot().Tabs), "callback runs after commit")
	})

	s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)
	s.CreateTab(loc("g", "2"), domain.MessageRef{}, false)
	unsubscribe()
	unsubscribe()
	s.CreateTab(loc("g", "3"), domain.MessageRef{}, false)

	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, 0, s.subs.len())
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _, _ := newTestTabs(t)
	s.CreateTab(loc("g", "1"), domain.MessageRef{}, false)

	snap := s.Snapshot()
	snap.Tabs[0].Unread = true

	assert.False(t, s.Snapshot().Tabs[0].Unread)
}
