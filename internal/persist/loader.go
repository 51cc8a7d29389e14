package persist

import (
	"context"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

// Source reads snapshots back from a store.
type Source interface {
	LoadTabs(ctx context.Context, userID string) (domain.TabState, bool, error)
	LoadBookmarks(ctx context.Context, userID string) (domain.Bookmarks, bool, error)
}

// Loader reads state through a Writer. A snapshot still queued or being
// written is newer than the stored one, so a user evicted and recreated
// before the write lands does not see stale state.
type Loader struct {
	src    Source
	writer *Writer
}

func NewLoader(src Source, writer *Writer) *Loader {
	return &Loader{src: src, writer: writer}
}

func (l *Loader) LoadTabs(ctx context.Context, userID string) (domain.TabState, bool, error) {
	if j, ok := l.writer.latest(key{kind: KindTabs, userID: userID}); ok {
		return j.tabs.Clone(), true, nil
	}
	return l.src.LoadTabs(ctx, userID)
}

func (l *Loader) LoadBookmarks(ctx context.Context, userID string) (domain.Bookmarks, bool, error) {
	if j, ok := l.writer.latest(key{kind: KindBookmarks, userID: userID}); ok {
		return j.bookmarks.Clone(), true, nil
	}
	return l.src.LoadBookmarks(ctx, userID)
}
