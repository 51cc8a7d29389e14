package domain

import "slices"

// Tab is one open, navigable reference to a location.
type Tab struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is generated at creation and never reused.
	// Drag operations and the active pointer use it, never the index.
	ID string `json:"id"`

	// Location is where the tab navigates to.
	Location Location `json:"location"`

	// ─────────────────────────────
	// Navigation hints & state
	// ─────────────────────────────

	// MessageID is the message to jump to when the tab opens.
	MessageID MessageRef `json:"messageId,omitzero"`

	// Unread is set by message observers and cleared on activation.
	Unread bool `json:"unread"`
}

// TabState is the persisted record of a user's tabs.
//
// ActiveID is the single active pointer; an empty value means no tab is active.
type TabState struct {
	Tabs     []Tab  `json:"tabs"`
	ActiveID string `json:"activeId,omitempty"`
}

// Clone returns a copy that shares no backing array with s.
func (s TabState) Clone() TabState {
	tabs := slices.Clone(s.Tabs)
	if tabs == nil {
		tabs = []Tab{}
	}
	return TabState{Tabs: tabs, ActiveID: s.ActiveID}
}

// IndexOf returns the position of the tab with the given id, or -1.
func (s TabState) IndexOf(id string) int {
	return slices.IndexFunc(s.Tabs, func(t Tab) bool { return t.ID == id })
}

// Active returns the active tab, if any.
func (s TabState) Active() (Tab, bool) {
	if i := s.IndexOf(s.ActiveID); i >= 0 {
		return s.Tabs[i], true
	}
	return Tab{}, false
}

// Normalize repairs a stored record: tabs without an id or with a repeated id
// are dropped and an ActiveID that no longer names a tab is cleared.
func (s TabState) Normalize() TabState {
	seen := make(map[string]bool, len(s.Tabs))
	tabs := make([]Tab, 0, len(s.Tabs))
	for _, t := range s.Tabs {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		tabs = append(tabs, t)
	}
	s.Tabs = tabs
	if s.ActiveID != "" && !seen[s.ActiveID] {
		s.ActiveID = ""
	}
	return s
}
