package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/mw"
)

// requestTimeout bounds every request except event streams.
const requestTimeout = 5 * time.Second

// Event streams are long-lived and get no timeout.
func init() { Register(registerSession, mw.Identity) }

func registerSession(r chi.Router, d deps.Deps) {
	r.Get("/events", handlers.Events(d))
	r.Post("/logout", handlers.Logout(d))
}
