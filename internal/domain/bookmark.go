package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// EntryKind discriminates the elements of a Bookmarks collection.
type EntryKind string

const (
	KindLeaf   EntryKind = "leaf"
	KindFolder EntryKind = "folder"
)

// Bookmark is a saved reference to a location.
type Bookmark struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// Folder is a named, coloured, one-level container of bookmarks.
// It holds leaves only, so folders cannot nest.
type Folder struct {
	Name      string
	IconColor string
	Bookmarks []Bookmark
}

// Entry is one top-level element of a Bookmarks collection: a leaf or a folder.
//
// Kind is authoritative. Location is only meaningful for leaves, IconColor and
// Bookmarks only for folders.
type Entry struct {
	Kind      EntryKind
	Name      string
	Location  Location
	IconColor string
	Bookmarks []Bookmark
}

// LeafEntry wraps a bookmark as a top-level entry.
func LeafEntry(b Bookmark) Entry {
	return Entry{Kind: KindLeaf, Name: b.Name, Location: b.Location}
}

// FolderEntry wraps a folder as a top-level entry.
func FolderEntry(f Folder) Entry {
	bms := slices.Clone(f.Bookmarks)
	if bms == nil {
		bms = []Bookmark{}
	}
	return Entry{Kind: KindFolder, Name: f.Name, IconColor: f.IconColor, Bookmarks: bms}
}

func (e Entry) IsFolder() bool { return e.Kind == KindFolder }

// AsLeaf returns the bookmark carried by a leaf entry.
func (e Entry) AsLeaf() (Bookmark, bool) {
	if e.Kind != KindLeaf {
		return Bookmark{}, false
	}
	return Bookmark{Name: e.Name, Location: e.Location}, true
}

// AsFolder returns the folder carried by a folder entry.
func (e Entry) AsFolder() (Folder, bool) {
	if e.Kind != KindFolder {
		return Folder{}, false
	}
	return Folder{Name: e.Name, IconColor: e.IconColor, Bookmarks: slices.Clone(e.Bookmarks)}, true
}

func (e Entry) clone() Entry {
	if e.Kind == KindFolder {
		e.Bookmarks = slices.Clone(e.Bookmarks)
		if e.Bookmarks == nil {
			e.Bookmarks = []Bookmark{}
		}
	}
	return e
}

// Bookmarks is the ordered top-level collection. Display order is slice order.
type Bookmarks []Entry

// Clone deep-copies the collection, folder contents included.
func (b Bookmarks) Clone() Bookmarks {
	out := make(Bookmarks, len(b))
	for i, e := range b {
		out[i] = e.clone()
	}
	return out
}

// Find locates the first bookmark pointing at loc.
// folder is -1 when the bookmark sits at the top level.
func (b Bookmarks) Find(loc Location) (index, folder int, ok bool) {
	for i, e := range b {
		switch e.Kind {
		case KindLeaf:
			if e.Location == loc {
				return i, -1, true
			}
		case KindFolder:
			for j, bm := range e.Bookmarks {
				if bm.Location == loc {
					return j, i, true
				}
			}
		}
	}
	return -1, -1, false
}

// ─────────────────────────────────────────────────────────────────
// JSON layout
// ─────────────────────────────────────────────────────────────────

type leafJSON struct {
	Kind     EntryKind `json:"kind"`
	Name     string    `json:"name"`
	Location Location  `json:"location"`
}

type folderJSON struct {
	Kind      EntryKind  `json:"kind"`
	Name      string     `json:"name"`
	IconColor string     `json:"iconColor"`
	Bookmarks []Bookmark `json:"bookmarks"`
}

// entryJSON accepts both the tagged layout and the untagged one, where a
// folder is recognised by its bookmarks field and a leaf may carry
// guildId/channelId inline.
type entryJSON struct {
	Kind      EntryKind   `json:"kind"`
	Name      string      `json:"name"`
	Location  *Location   `json:"location"`
	GuildID   *string     `json:"guildId"`
	ChannelID string      `json:"channelId"`
	IconColor string      `json:"iconColor"`
	Bookmarks *[]Bookmark `json:"bookmarks"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindFolder:
		bms := e.Bookmarks
		if bms == nil {
			bms = []Bookmark{}
		}
		return json.Marshal(folderJSON{Kind: KindFolder, Name: e.Name, IconColor: e.IconColor, Bookmarks: bms})
	case KindLeaf:
		return json.Marshal(leafJSON{Kind: KindLeaf, Name: e.Name, Location: e.Location})
	default:
		return nil, fmt.Errorf("unknown bookmark entry kind %q", e.Kind)
	}
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	kind := in.Kind
	if kind == "" {
		kind = KindLeaf
		if in.Bookmarks != nil {
			kind = KindFolder
		}
	}

	switch kind {
	case KindFolder:
		var bms []Bookmark
		if in.Bookmarks != nil {
			bms = *in.Bookmarks
		}
		*e = FolderEntry(Folder{Name: in.Name, IconColor: in.IconColor, Bookmarks: bms})
	case KindLeaf:
		loc := NewLocation(deref(in.GuildID), in.ChannelID)
		if in.Location != nil {
			loc = *in.Location
		}
		*e = LeafEntry(Bookmark{Name: in.Name, Location: loc})
	default:
		return fmt.Errorf("unknown bookmark entry kind %q", kind)
	}
	return nil
}

type bookmarkJSON struct {
	Name      string    `json:"name"`
	Location  *Location `json:"location"`
	GuildID   *string   `json:"guildId"`
	ChannelID string    `json:"channelId"`
}

func (b *Bookmark) UnmarshalJSON(data []byte) error {
	var in bookmarkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	b.Name = in.Name
	if in.Location != nil {
		b.Location = *in.Location
	} else {
		b.Location = NewLocation(deref(in.GuildID), in.ChannelID)
	}
	return nil
}
