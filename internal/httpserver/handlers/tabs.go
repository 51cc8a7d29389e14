package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
)

var errNoChannel = errors.New("location.channelId is required")

type createTabRequest struct {
	Location  domain.Location   `json:"location"`
	MessageID domain.MessageRef `json:"messageId"`
	ForceNew  bool              `json:"forceNew"`
}

type locationRequest struct {
	Location domain.Location `json:"location"`
}

type moveTabRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type cycleTabRequest struct {
	Step       int  `json:"step"`
	UnreadOnly bool `json:"unreadOnly"`
}

type tabResponse struct {
	ID    string          `json:"id,omitempty"`
	Index *int            `json:"index,omitempty"`
	Count *int            `json:"count,omitempty"`
	State domain.TabState `json:"state"`
}

func GetTabs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionsFor(d, r).Tabs.Snapshot())
	}
}

func CreateTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTabRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}
		if req.Location.IsZero() {
			badRequest(w, errNoChannel)
			return
		}

		tabs := sessionsFor(d, r).Tabs
		id := tabs.CreateTab(req.Location, req.MessageID, req.ForceNew)
		writeJSON(w, http.StatusOK, tabResponse{ID: id, State: tabs.Snapshot()})
	}
}

func CloseTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tabs := sessionsFor(d, r).Tabs
		tabs.CloseTab(chi.URLParam(r, "id"))
		writeJSON(w, http.StatusOK, tabs.Snapshot())
	}
}

func CloseActiveTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tabs := sessionsFor(d, r).Tabs
		tabs.CloseActiveTab()
		writeJSON(w, http.StatusOK, tabs.Snapshot())
	}
}

func SwitchTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tabs := sessionsFor(d, r).Tabs
		tabs.SwitchTab(chi.URLParam(r, "id"))
		writeJSON(w, http.StatusOK, tabs.Snapshot())
	}
}

// SetUnread marks the tab unread on POST and read on DELETE.
func SetUnread(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tabs := sessionsFor(d, r).Tabs
		id := chi.URLParam(r, "id")
		if r.Method == http.MethodDelete {
			tabs.ClearUnread(id)
		} else {
			tabs.MarkUnread(id)
		}
		writeJSON(w, http.StatusOK, tabs.Snapshot())
	}
}

// MarkUnreadAt flags every inactive tab showing a location, as a message
// observer would after new activity there.
func MarkUnreadAt(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req locationRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}
		if req.Location.IsZero() {
			badRequest(w, errNoChannel)
			return
		}

		tabs := sessionsFor(d, r).Tabs
		n := tabs.MarkUnreadAt(req.Location)
		writeJSON(w, http.StatusOK, tabResponse{Count: &n, State: tabs.Snapshot()})
	}
}

func MoveTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveTabRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}

		tabs := sessionsFor(d, r).Tabs
		index := tabs.MoveTab(req.From, req.To)
		writeJSON(w, http.StatusOK, tabResponse{Index: &index, State: tabs.Snapshot()})
	}
}

func CycleTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := cycleTabRequest{Step: 1}
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}

		tabs := sessionsFor(d, r).Tabs
		id, _ := tabs.CycleTab(req.Step, req.UnreadOnly)
		writeJSON(w, http.StatusOK, tabResponse{ID: id, State: tabs.Snapshot()})
	}
}
