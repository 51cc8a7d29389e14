package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), mr
}

func TestTabsRoundTrip(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	state := domain.TabState{
		Tabs: []domain.Tab{
			{ID: "a", Location: domain.NewLocation("g", "1"), MessageID: domain.JumpToLatest},
			{ID: "b", Location: domain.NewLocation("", "dm"), Unread: true},
		},
		ActiveID: "a",
	}
	require.NoError(t, s.SaveTabs(ctx, "alice", state))

	got, found, err := s.LoadTabs(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, state, got)

	raw, err := mr.Get(TabsKey("alice"))
	require.NoError(t, err)
	assert.Contains(t, raw, `"guildId":null`)
	assert.Contains(t, raw, `"messageId":true`)
}

func TestBookmarksRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()

	bms := domain.Bookmarks{
		domain.LeafEntry(domain.Bookmark{Name: "x", Location: domain.NewLocation("g", "x")}),
		domain.FolderEntry(domain.Folder{
			Name:      "F",
			IconColor: "#ff0000",
			Bookmarks: []domain.Bookmark{{Name: "y", Location: domain.NewLocation("g", "y")}},
		}),
	}
	require.NoError(t, s.SaveBookmarks(ctx, "alice", bms))

	got, found, err := s.LoadBookmarks(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, bms, got)
}

func TestLoadMissingRecord(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()

	_, found, err := s.LoadTabs(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.LoadBookmarks(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEmptyBookmarksAreStoredAsArray(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.SaveBookmarks(ctx, "alice", nil))

	raw, err := mr.Get(BookmarksKey("alice"))
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	got, found, err := s.LoadBookmarks(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCorruptRecordIsAnError(t *testing.T) {
	s, mr := newTestStore(t, 0)
	require.NoError(t, mr.Set(TabsKey("alice"), "{not json"))

	_, found, err := s.LoadTabs(context.Background(), "alice")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestTTLIsApplied(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.SaveTabs(ctx, "alice", domain.TabState{Tabs: []domain.Tab{}}))
	assert.Equal(t, time.Hour, mr.TTL(TabsKey("alice")))

	mr.FastForward(2 * time.Hour)
	_, found, err := s.LoadTabs(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteUserAndPing(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.SaveTabs(ctx, "alice", domain.TabState{Tabs: []domain.Tab{}}))
	require.NoError(t, s.SaveBookmarks(ctx, "alice", domain.Bookmarks{}))
	require.NoError(t, s.DeleteUser(ctx, "alice"))

	assert.False(t, mr.Exists(TabsKey("alice")))
	assert.False(t, mr.Exists(BookmarksKey("alice")))

	mr.Close()
	assert.Error(t, s.Ping(ctx))
}

func TestKeys(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: TabsKey("alice"), want: "alice"},
		{key: BookmarksKey("bob"), want: "bob"},
		{key: "chantabs:tabs:", wantErr: true},
		{key: "other:tabs:x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ExtractUserID(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "chantabs:tabs:alice", TabsKey("alice"))
	assert.Equal(t, "chantabs:bookmarks:alice", BookmarksKey("alice"))
}
