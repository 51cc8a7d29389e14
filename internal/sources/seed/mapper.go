package seed

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
)

// MapBookmarks converts a seed file into a bookmark collection.
//
// Links without a resolvable channel are skipped. A folder survives even when
// all its links are skipped.
func MapBookmarks(file File) (domain.Bookmarks, error) {
	out := make(domain.Bookmarks, 0, len(file))

	for _, entry := range file {
		if entry.Folder != "" {
			bms := make([]domain.Bookmark, 0, len(entry.Bookmarks))
			for _, link := range entry.Bookmarks {
				if bm, ok := mapLink(link); ok {
					bms = append(bms, bm)
				}
			}
			out = append(out, domain.FolderEntry(domain.Folder{
				Name:      entry.Folder,
				IconColor: entry.Color,
				Bookmarks: bms,
			}))
			continue
		}

		if bm, ok := mapLink(entry.Link); ok {
			out = append(out, domain.LeafEntry(bm))
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid entries found in seed")
	}

	return out, nil
}

func mapLink(l Link) (domain.Bookmark, bool) {
	loc := domain.NewLocation(l.Guild, l.Channel)
	if l.URL != "" {
		parsed, ok := ParseChannelURL(l.URL)
		if !ok {
			return domain.Bookmark{}, false
		}
		loc = parsed
	}
	if loc.IsZero() {
		return domain.Bookmark{}, false
	}

	name := l.Name
	if name == "" {
		name = loc.ChannelID
	}
	return domain.Bookmark{Name: name, Location: loc}, true
}

// ParseChannelURL extracts the location of a channel link such as
// https://discord.com/channels/<guild|@me>/<channel>[/<message>].
func ParseChannelURL(raw string) (domain.Location, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return domain.Location{}, false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "channels" || parts[1] == "" || parts[2] == "" {
		return domain.Location{}, false
	}
	return domain.NewLocation(parts[1], parts[2]), true
}
