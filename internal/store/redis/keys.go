package redis

import "fmt"

const (
	// KeyPrefixTabs is the prefix for per-user tab state keys
	KeyPrefixTabs = "chantabs:tabs:"
	// KeyPrefixBookmarks is the prefix for per-user bookmark keys
	KeyPrefixBookmarks = "chantabs:bookmarks:"
)

// TabsKey returns the Redis key holding a user's tab state
func TabsKey(userID string) string {
	return KeyPrefixTabs + userID
}

// BookmarksKey returns the Redis key holding a user's bookmarks
func BookmarksKey(userID string) string {
	return KeyPrefixBookmarks + userID
}

// ExtractUserID returns the user id of a tabs or bookmarks key
func ExtractUserID(key string) (string, error) {
	for _, prefix := range []string{KeyPrefixTabs, KeyPrefixBookmarks} {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return key[len(prefix):], nil
		}
	}
	return "", fmt.Errorf("invalid state key: %s", key)
}
