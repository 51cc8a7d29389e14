// Package events fans session changes out to the live streams of a user.
package events

import (
	"sync"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
	"github.com/MrSnakeDoc/chantabs/internal/session"
)

// Event types sent to clients.
const (
	TypeTabs      = "tabs"
	TypeBookmarks = "bookmarks"
	TypeNavigate  = "navigate"
)

// DefaultBuffer is the number of events a slow stream may lag behind before
// events are dropped for it.
const DefaultBuffer = 16

// Event is one message on a user's stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Navigation is the payload of a navigate event.
type Navigation struct {
	Location  domain.Location   `json:"location"`
	MessageID domain.MessageRef `json:"messageId,omitzero"`
}

// Recorder receives stream metrics. Every method may be called concurrently.
type Recorder interface {
	StreamOpened()
	StreamClosed()
	Dropped()
}

type Options struct {
	Buffer   int
	Recorder Recorder
}

// Hub routes events to the streams opened by each user.
//
// Publish never blocks: a stream whose buffer is full misses the event. Tab
// and bookmark events carry full snapshots, so the next one repairs the gap.
type Hub struct {
	log    logger.Logger
	buffer int
	rec    Recorder

	mu      sync.RWMutex
	streams map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger, opts Options) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		log:     log,
		buffer:  opts.Buffer,
		rec:     opts.Recorder,
		streams: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe opens a stream for userID. The returned cancel function closes
// the channel and must be called exactly once.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	set, ok := h.streams[userID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.streams[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	if h.rec != nil {
		h.rec.StreamOpened()
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(set, ch)
			if len(set) == 0 {
				delete(h.streams, userID)
			}
			close(ch)
			h.mu.Unlock()

			if h.rec != nil {
				h.rec.StreamClosed()
			}
		})
	}
}

// Publish sends ev to every stream of userID.
func (h *Hub) Publish(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.streams[userID] {
		select {
		case ch <- ev:
		default:
			if h.rec != nil {
				h.rec.Dropped()
			}
			h.log.Debug("stream is full, event dropped",
				logger.UserID(userID),
				logger.String("type", ev.Type))
		}
	}
}

// Streams returns the number of open streams of userID.
func (h *Hub) Streams(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[userID])
}

// NavigateTo asks the clients of userID to show loc.
func (h *Hub) NavigateTo(userID string, loc domain.Location, msg domain.MessageRef) {
	h.Publish(userID, Event{Type: TypeNavigate, Data: Navigation{Location: loc, MessageID: msg}})
}

// Bind forwards every change of s to the streams of its user. It is meant to
// be installed as the registry's OnCreate hook.
func (h *Hub) Bind(s *session.Sessions) {
	userID := s.UserID
	s.Tabs.Subscribe(func(state domain.TabState) {
		h.Publish(userID, Event{Type: TypeTabs, Data: state})
	})
	s.Bookmarks.Subscribe(func(bms domain.Bookmarks) {
		h.Publish(userID, Event{Type: TypeBookmarks, Data: bms})
	})
}

var _ session.Navigator = (*Hub)(nil)
