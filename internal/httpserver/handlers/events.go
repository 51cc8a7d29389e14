package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/events"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/mw"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
)

// DefaultHeartbeat keeps idle event streams open through proxies.
const DefaultHeartbeat = 25 * time.Second

// Events streams the user's tab, bookmark and navigation events as
// Server-Sent Events. The current tabs and bookmarks are sent first.
func Events(d deps.Deps) http.HandlerFunc {
	heartbeat := d.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID := mw.UserID(r.Context())
		log := d.Logger.With(logger.UserID(userID))

		rc := http.NewResponseController(w)
		// Streams outlive the server write timeout.
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			log.Debug("cannot clear write deadline", logger.Error(err))
		}

		s := sessionsFor(d, r)
		ch, cancel := d.Hub.Subscribe(userID)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		initial := []events.Event{
			{Type: events.TypeTabs, Data: s.Tabs.Snapshot()},
			{Type: events.TypeBookmarks, Data: s.Bookmarks.Snapshot()},
		}
		for _, ev := range initial {
			if err := writeEvent(w, ev); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			log.Warn("event stream not supported", logger.Error(err))
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					log.Debug("event stream closed", logger.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
			case <-r.Context().Done():
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, ev events.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Type, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
