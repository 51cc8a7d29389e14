package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/mw"
)

func init() { Register(registerTabs, mw.Identity, middleware.Timeout(requestTimeout)) }

func registerTabs(r chi.Router, d deps.Deps) {
	r.Route("/tabs", func(r chi.Router) {
		r.Get("/", handlers.GetTabs(d))
		r.Post("/", handlers.CreateTab(d))
		r.Post("/move", handlers.MoveTab(d))
		r.Post("/cycle", handlers.CycleTab(d))
		r.Post("/unread", handlers.MarkUnreadAt(d))
		r.Delete("/active", handlers.CloseActiveTab(d))
		r.Delete("/{id}", handlers.CloseTab(d))
		r.Post("/{id}/activate", handlers.SwitchTab(d))
		r.Post("/{id}/unread", handlers.SetUnread(d))
		r.Delete("/{id}/unread", handlers.SetUnread(d))
	})
}
