package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
	"github.com/MrSnakeDoc/chantabs/internal/store/memory"
)

func TestLoaderPrefersPendingSnapshots(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	require.NoError(t, mem.SaveTabs(ctx, "alice", tabsWithActive("old", 1)))

	w := NewWriter(mem, logger.Nop(), Options{})
	l := NewLoader(mem, w)

	state, found, err := l.LoadTabs(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "old", state.ActiveID)

	w.SaveTabs("alice", tabsWithActive("new", 2))
	w.SaveBookmarks("alice", domain.Bookmarks{})

	state, found, err = l.LoadTabs(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", state.ActiveID, "a queued snapshot wins over the store")

	bms, found, err := l.LoadBookmarks(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, bms)

	_, found, err = l.LoadBookmarks(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, w.Stop(ctx))
	state, _, err = l.LoadTabs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", state.ActiveID)
	assert.Zero(t, w.Pending())
}

func TestLoaderSeesInFlightWrite(t *testing.T) {
	store := &fakeStore{entered: make(chan struct{}), release: make(chan struct{})}
	w := NewWriter(store, logger.Nop(), Options{})
	w.Start()

	w.SaveTabs("alice", tabsWithActive("inflight", 1))
	<-store.entered

	l := NewLoader(memory.NewStore(), w)
	state, found, err := l.LoadTabs(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "inflight", state.ActiveID)

	close(store.release)
	require.NoError(t, w.Stop(context.Background()))

	_, found, err = l.LoadTabs(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, found, "once written, reads go to the source")
}
