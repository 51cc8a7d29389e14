package seed

// File is the root structure of the seed file: an ordered list of entries.
//
//	- name: announcements
//	  guild: "1015060230222131221"
//	  channel: "1015060231082950676"
//	- folder: Projects
//	  color: "#5865f2"
//	  bookmarks:
//	    - link: https://discord.com/channels/@me/1022218563221667840
type File []Entry

// Entry is a top-level item. It is a folder when Folder is set.
type Entry struct {
	Link      `yaml:",inline"`
	Folder    string `yaml:"folder,omitempty"`
	Color     string `yaml:"color,omitempty"`
	Bookmarks []Link `yaml:"bookmarks,omitempty"`
}

// Link points at a channel, either by ids or by a channel URL.
type Link struct {
	Name    string `yaml:"name,omitempty"`
	Guild   string `yaml:"guild,omitempty"`
	Channel string `yaml:"channel,omitempty"`
	URL     string `yaml:"link,omitempty"`
}
