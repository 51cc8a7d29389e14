package domain

import (
	"encoding/json"
	"fmt"
)

// DirectMessagesGuild is the guild segment used by message links that point at
// direct messages. It is folded into the empty GuildID.
const DirectMessagesGuild = "@me"

// Location identifies a place to navigate to.
//
// An empty GuildID marks a direct-message style location. Locations are
// immutable values and are compared with == for dedupe.
type Location struct {
	GuildID   string
	ChannelID string
}

// NewLocation builds a Location, folding the "@me" guild into the DM sentinel.
func NewLocation(guildID, channelID string) Location {
	if guildID == DirectMessagesGuild {
		guildID = ""
	}
	return Location{GuildID: guildID, ChannelID: channelID}
}

// IsDirect reports whether the location has no guild.
func (l Location) IsDirect() bool { return l.GuildID == "" }

// IsZero reports whether the location points nowhere.
func (l Location) IsZero() bool { return l.ChannelID == "" }

func (l Location) String() string {
	if l.IsDirect() {
		return DirectMessagesGuild + "/" + l.ChannelID
	}
	return l.GuildID + "/" + l.ChannelID
}

type locationJSON struct {
	GuildID   *string `json:"guildId"`
	ChannelID string  `json:"channelId"`
}

// MarshalJSON writes a null guildId for direct-message locations.
func (l Location) MarshalJSON() ([]byte, error) {
	out := locationJSON{ChannelID: l.ChannelID}
	if l.GuildID != "" {
		g := l.GuildID
		out.GuildID = &g
	}
	return json.Marshal(out)
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var in locationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = NewLocation(deref(in.GuildID), in.ChannelID)
	return nil
}

// MessageRef tells navigation where to land inside a channel.
// Latest means "jump to latest", a non-empty ID means a specific message and
// the zero value means no jump at all.
type MessageRef struct {
	ID     string
	Latest bool
}

// JumpToLatest is the MessageRef serialised as a literal true.
var JumpToLatest = MessageRef{Latest: true}

// MessageID returns a reference to a specific message.
func MessageID(id string) MessageRef { return MessageRef{ID: id} }

func (m MessageRef) IsZero() bool { return m.ID == "" && !m.Latest }

func (m MessageRef) MarshalJSON() ([]byte, error) {
	switch {
	case m.ID != "":
		return json.Marshal(m.ID)
	case m.Latest:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

func (m *MessageRef) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*m = MessageRef{}
	case bool:
		*m = MessageRef{Latest: t}
	case string:
		*m = MessageRef{ID: t}
	default:
		return fmt.Errorf("invalid messageId %s: want string, true or null", data)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
