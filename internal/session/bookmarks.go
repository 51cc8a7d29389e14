package session

import (
	"sync"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
	"github.com/MrSnakeDoc/chantabs/internal/reorder"
)

// BookmarkSession owns the ordered bookmark collection of one user.
//
// Indices are only valid against the current snapshot. Operations given a
// stale index, or asked to nest a folder, do nothing.
type BookmarkSession struct {
	userID string
	deps   Deps
	log    logger.Logger
	subs   subscribers[domain.Bookmarks]

	pubMu   sync.Mutex // serializes commit and publish, taken before mu
	mu      sync.Mutex
	entries domain.Bookmarks
}

// NewBookmarkSession builds a session around an initial collection.
func NewBookmarkSession(userID string, initial domain.Bookmarks, deps Deps) *BookmarkSession {
	deps = deps.withDefaults()
	return &BookmarkSession{
		userID:  userID,
		deps:    deps,
		log:     deps.Logger.With(logger.UserID(userID), logger.String("collection", "bookmarks")),
		entries: initial.Clone(),
	}
}

func (s *BookmarkSession) UserID() string { return s.userID }

// AddBookmark appends a top-level bookmark. An empty name is resolved by the
// Namer.
func (s *BookmarkSession) AddBookmark(loc domain.Location, name string) {
	bm := domain.Bookmark{Name: s.nameFor(loc, name), Location: loc}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	s.entries = append(s.entries, domain.LeafEntry(bm))
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
}

// AddBookmarkToFolder appends a bookmark to the folder at folder.
func (s *BookmarkSession) AddBookmarkToFolder(loc domain.Location, name string, folder int) bool {
	bm := domain.Bookmark{Name: s.nameFor(loc, name), Location: loc}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	if !s.isFolderLocked(folder) {
		s.mu.Unlock()
		s.log.Debug("add ignored, not a folder", logger.Int("folder", folder))
		return false
	}
	s.entries[folder].Bookmarks = append(s.entries[folder].Bookmarks, bm)
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

// AddFolder appends an empty folder and returns its index.
func (s *BookmarkSession) AddFolder(name, iconColor string) int {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	s.entries = append(s.entries, domain.FolderEntry(domain.Folder{Name: name, IconColor: iconColor}))
	index := len(s.entries) - 1
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
	return index
}

// DeleteBookmark removes the top-level entry at index (leaf or whole folder)
// or, when folder is set, the bookmark at index inside that folder. The
// folder stays even if it becomes empty.
func (s *BookmarkSession) DeleteBookmark(index, folder int) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	if !s.deleteLocked(index, folder) {
		s.mu.Unlock()
		s.log.Debug("delete ignored, index not found", logger.Int("index", index), logger.Int("folder", folder))
		return
	}
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
}

// DeleteFolder removes a folder with everything in it. Its bookmarks are not
// promoted to the top level.
func (s *BookmarkSession) DeleteFolder(folder int) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	if !s.isFolderLocked(folder) {
		s.mu.Unlock()
		s.log.Debug("delete folder ignored, not a folder", logger.Int("folder", folder))
		return
	}
	s.entries, _, _ = reorder.Remove(s.entries, folder)
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
}

// RenameBookmark renames the entry at index, inside folder when set.
// A top-level index may name a folder.
func (s *BookmarkSession) RenameBookmark(index int, name string, folder int) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	switch {
	case folder == NoFolder && index >= 0 && index < len(s.entries):
		s.entries[index].Name = name
	case folder != NoFolder && s.isFolderLocked(folder) && index >= 0 && index < len(s.entries[folder].Bookmarks):
		s.entries[folder].Bookmarks[index].Name = name
	default:
		s.mu.Unlock()
		s.log.Debug("rename ignored, index not found", logger.Int("index", index), logger.Int("folder", folder))
		return
	}
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
}

// RenameFolder renames a folder. Leaves are left alone.
func (s *BookmarkSession) RenameFolder(folder int, name string) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	if !s.isFolderLocked(folder) {
		s.mu.Unlock()
		return
	}
	s.entries[folder].Name = name
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
}

// RecolorFolder changes a folder's icon colour.
func (s *BookmarkSession) RecolorFolder(folder int, color string) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	if !s.isFolderLocked(folder) {
		s.mu.Unlock()
		return
	}
	s.entries[folder].IconColor = color
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
}

// MoveDraggedBookmarks applies one drag event and returns the coordinates
// the next event of the gesture must use.
//
// Within one container the entry is moved to hover. Between containers it is
// removed from the source and lands right after the hovered entry of the
// destination (hover < 0 lands first). For a top-level entry dragged into a
// folder, hoverFolder is read after the entry left the top level. Dragging a
// folder into a folder is rejected.
func (s *BookmarkSession) MoveDraggedBookmarks(drag, hover, dragFolder, hoverFolder int) reorder.Position {
	unchanged := reorder.Position{Index: drag, Folder: dragFolder}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	pos, ok := s.moveLocked(drag, hover, dragFolder, hoverFolder)
	if !ok {
		s.mu.Unlock()
		return unchanged
	}
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
	return pos
}

func (s *BookmarkSession) moveLocked(drag, hover, dragFolder, hoverFolder int) (reorder.Position, bool) {
	switch {
	case dragFolder == NoFolder && hoverFolder == NoFolder:
		at, moved := reorder.Move(s.entries, drag, hover)
		return reorder.TopLevel(at), moved

	case dragFolder == hoverFolder:
		if !s.isFolderLocked(dragFolder) {
			return reorder.Position{}, false
		}
		at, moved := reorder.Move(s.entries[dragFolder].Bookmarks, drag, hover)
		return reorder.InFolder(at, dragFolder), moved

	case dragFolder == NoFolder:
		if drag < 0 || drag >= len(s.entries) || s.entries[drag].IsFolder() {
			return reorder.Position{}, false
		}
		rest, entry, _ := reorder.Remove(s.entries, drag)
		if hoverFolder < 0 || hoverFolder >= len(rest) || !rest[hoverFolder].IsFolder() {
			return reorder.Position{}, false
		}
		leaf, _ := entry.AsLeaf()
		dst := rest[hoverFolder].Bookmarks
		var at int
		rest[hoverFolder].Bookmarks, at = reorder.Insert(dst, reorder.DropIndex(hover, len(dst)), leaf)
		s.entries = rest
		return reorder.InFolder(at, hoverFolder), true

	case hoverFolder == NoFolder:
		if !s.isFolderLocked(dragFolder) {
			return reorder.Position{}, false
		}
		src, bm, ok := reorder.Remove(s.entries[dragFolder].Bookmarks, drag)
		if !ok {
			return reorder.Position{}, false
		}
		s.entries[dragFolder].Bookmarks = src
		var at int
		s.entries, at = reorder.Insert(s.entries, reorder.DropIndex(hover, len(s.entries)), domain.LeafEntry(bm))
		return reorder.TopLevel(at), true

	default:
		if !s.isFolderLocked(dragFolder) || !s.isFolderLocked(hoverFolder) {
			return reorder.Position{}, false
		}
		src, bm, ok := reorder.Remove(s.entries[dragFolder].Bookmarks, drag)
		if !ok {
			return reorder.Position{}, false
		}
		s.entries[dragFolder].Bookmarks = src
		dst := s.entries[hoverFolder].Bookmarks
		var at int
		s.entries[hoverFolder].Bookmarks, at = reorder.Insert(dst, reorder.DropIndex(hover, len(dst)), bm)
		return reorder.InFolder(at, hoverFolder), true
	}
}

// Find returns where the first bookmark for loc sits.
func (s *BookmarkSession) Find(loc domain.Location) (index, folder int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Find(loc)
}

// IsBookmarked reports whether any bookmark points at loc.
func (s *BookmarkSession) IsBookmarked(loc domain.Location) bool {
	_, _, ok := s.Find(loc)
	return ok
}

// ToggleBookmark bookmarks loc at the top level, or deletes the existing
// bookmark for it. The lookup and the mutation happen under one lock, so the
// index cannot go stale in between. It reports whether loc is bookmarked
// afterwards.
func (s *BookmarkSession) ToggleBookmark(loc domain.Location, name string) bool {
	bm := domain.Bookmark{Name: s.nameFor(loc, name), Location: loc}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	index, folder, found := s.entries.Find(loc)
	if found {
		s.deleteLocked(index, folder)
	} else {
		s.entries = append(s.entries, domain.LeafEntry(bm))
	}
	snap := s.entries.Clone()
	s.mu.Unlock()

	s.publish(snap)
	return !found
}

// Snapshot returns a deep copy of the collection.
func (s *BookmarkSession) Snapshot() domain.Bookmarks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Clone()
}

// Subscribe registers fn for every committed change. fn receives a shared
// snapshot and must not modify it, nor mutate the session.
func (s *BookmarkSession) Subscribe(fn func(domain.Bookmarks)) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *BookmarkSession) nameFor(loc domain.Location, name string) string {
	if name != "" {
		return name
	}
	if n := s.deps.Namer.DefaultName(loc); n != "" {
		return n
	}
	return loc.ChannelID
}

func (s *BookmarkSession) isFolderLocked(folder int) bool {
	return folder >= 0 && folder < len(s.entries) && s.entries[folder].IsFolder()
}

func (s *BookmarkSession) deleteLocked(index, folder int) bool {
	if folder == NoFolder {
		var ok bool
		s.entries, _, ok = reorder.Remove(s.entries, index)
		return ok
	}
	if !s.isFolderLocked(folder) {
		return false
	}
	bms, _, ok := reorder.Remove(s.entries[folder].Bookmarks, index)
	if ok {
		s.entries[folder].Bookmarks = bms
	}
	return ok
}

func (s *BookmarkSession) publish(snap domain.Bookmarks) {
	s.deps.Saver.SaveBookmarks(s.userID, snap.Clone())
	s.subs.notify(snap)
}
