package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/mw"
)

func init() { Register(registerBookmarks, mw.Identity, middleware.Timeout(requestTimeout)) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.GetBookmarks(d))
		r.Post("/", handlers.AddBookmark(d))
		r.Get("/find", handlers.FindBookmark(d))
		r.Post("/toggle", handlers.ToggleBookmark(d))
		r.Post("/move", handlers.MoveBookmark(d))
		r.Patch("/{index}", handlers.RenameBookmark(d))
		r.Delete("/{index}", handlers.DeleteBookmark(d))
		r.Post("/folders", handlers.AddFolder(d))
		r.Patch("/folders/{folder}", handlers.UpdateFolder(d))
		r.Delete("/folders/{folder}", handlers.DeleteFolder(d))
	})
}
