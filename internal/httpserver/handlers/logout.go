package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/mw"
)

// Logout drops the user's sessions from memory. Queued writes still land,
// so the next request starts from the persisted state.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Registry.Evict(mw.UserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}
