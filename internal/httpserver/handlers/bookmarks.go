package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/reorder"
)

type addBookmarkRequest struct {
	Location domain.Location `json:"location"`
	Name     string          `json:"name"`
	Folder   *int            `json:"folder"`
}

type moveBookmarkRequest struct {
	Drag        int  `json:"drag"`
	Hover       int  `json:"hover"`
	DragFolder  *int `json:"dragFolder"`
	HoverFolder *int `json:"hoverFolder"`
}

type renameRequest struct {
	Name   string `json:"name"`
	Folder *int   `json:"folder"`
}

type folderRequest struct {
	Name      *string `json:"name"`
	IconColor *string `json:"iconColor"`
}

type bookmarksResponse struct {
	Bookmarked *bool             `json:"bookmarked,omitempty"`
	Index      *int              `json:"index,omitempty"`
	Position   *reorder.Position `json:"position,omitempty"`
	Bookmarks  domain.Bookmarks  `json:"bookmarks"`
}

type findResponse struct {
	Bookmarked bool `json:"bookmarked"`
	Index      int  `json:"index"`
	Folder     int  `json:"folder"`
}

func GetBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionsFor(d, r).Bookmarks.Snapshot())
	}
}

// FindBookmark reports where the bookmark for ?guildId=&channelId= sits.
func FindBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		loc := domain.NewLocation(q.Get("guildId"), q.Get("channelId"))
		if loc.IsZero() {
			badRequest(w, errNoChannel)
			return
		}

		index, folder, ok := sessionsFor(d, r).Bookmarks.Find(loc)
		if !ok {
			index, folder = -1, -1
		}
		writeJSON(w, http.StatusOK, findResponse{Bookmarked: ok, Index: index, Folder: folder})
	}
}

// AddBookmark appends a bookmark at the top level, or to the end of the
// folder when one is given.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addBookmarkRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}
		if req.Location.IsZero() {
			badRequest(w, errNoChannel)
			return
		}

		bms := sessionsFor(d, r).Bookmarks
		if req.Folder == nil {
			bms.AddBookmark(req.Location, req.Name)
		} else {
			bms.AddBookmarkToFolder(req.Location, req.Name, *req.Folder)
		}
		writeJSON(w, http.StatusOK, bms.Snapshot())
	}
}

func ToggleBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addBookmarkRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}
		if req.Location.IsZero() {
			badRequest(w, errNoChannel)
			return
		}

		bms := sessionsFor(d, r).Bookmarks
		on := bms.ToggleBookmark(req.Location, req.Name)
		writeJSON(w, http.StatusOK, bookmarksResponse{Bookmarked: &on, Bookmarks: bms.Snapshot()})
	}
}

// MoveBookmark applies one drag event. The returned position is the drag
// coordinate for the next event of the gesture.
func MoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveBookmarkRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}

		bms := sessionsFor(d, r).Bookmarks
		pos := bms.MoveDraggedBookmarks(req.Drag, req.Hover, folderOrTop(req.DragFolder), folderOrTop(req.HoverFolder))
		writeJSON(w, http.StatusOK, bookmarksResponse{Position: &pos, Bookmarks: bms.Snapshot()})
	}
}

func RenameBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := intParam(r, "index")
		if err != nil {
			badRequest(w, err)
			return
		}
		var req renameRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}

		bms := sessionsFor(d, r).Bookmarks
		bms.RenameBookmark(index, req.Name, folderOrTop(req.Folder))
		writeJSON(w, http.StatusOK, bms.Snapshot())
	}
}

// DeleteBookmark removes the entry at {index}, inside ?folder= when set.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := intParam(r, "index")
		if err != nil {
			badRequest(w, err)
			return
		}
		folder, err := folderQuery(r)
		if err != nil {
			badRequest(w, err)
			return
		}

		bms := sessionsFor(d, r).Bookmarks
		bms.DeleteBookmark(index, folder)
		writeJSON(w, http.StatusOK, bms.Snapshot())
	}
}

func AddFolder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req folderRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}
		var name, color string
		if req.Name != nil {
			name = *req.Name
		}
		if req.IconColor != nil {
			color = *req.IconColor
		}

		bms := sessionsFor(d, r).Bookmarks
		index := bms.AddFolder(name, color)
		writeJSON(w, http.StatusOK, bookmarksResponse{Index: &index, Bookmarks: bms.Snapshot()})
	}
}

// UpdateFolder renames and/or recolors a folder. Absent fields are kept.
func UpdateFolder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder, err := intParam(r, "folder")
		if err != nil {
			badRequest(w, err)
			return
		}
		var req folderRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}

		bms := sessionsFor(d, r).Bookmarks
		if req.Name != nil {
			bms.RenameFolder(folder, *req.Name)
		}
		if req.IconColor != nil {
			bms.RecolorFolder(folder, *req.IconColor)
		}
		writeJSON(w, http.StatusOK, bms.Snapshot())
	}
}

func DeleteFolder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder, err := intParam(r, "folder")
		if err != nil {
			badRequest(w, err)
			return
		}

		bms := sessionsFor(d, r).Bookmarks
		bms.DeleteFolder(folder)
		writeJSON(w, http.StatusOK, bms.Snapshot())
	}
}
