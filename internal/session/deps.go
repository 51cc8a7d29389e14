package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/chantabs/internal/domain"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
	"github.com/MrSnakeDoc/chantabs/internal/reorder"
)

// NoFolder is the folder argument meaning "top level".
const NoFolder = reorder.NoFolder

// Loader reads the persisted state of a user.
// found is false when nothing was stored yet.
type Loader interface {
	LoadTabs(ctx context.Context, userID string) (state domain.TabState, found bool, err error)
	LoadBookmarks(ctx context.Context, userID string) (bms domain.Bookmarks, found bool, err error)
}

// Saver persists snapshots without blocking the caller.
// Failures are the saver's business; sessions never see them.
type Saver interface {
	SaveTabs(userID string, state domain.TabState)
	SaveBookmarks(userID string, bms domain.Bookmarks)
}

// Navigator moves the host application to a location.
type Navigator interface {
	NavigateTo(userID string, loc domain.Location, msg domain.MessageRef)
}

// Namer resolves the label a new bookmark gets when the caller supplies none.
type Namer interface {
	DefaultName(loc domain.Location) string
}

// Locator supplies the location currently visible to a user.
type Locator interface {
	CurrentLocation(userID string) (domain.Location, bool)
}

type NavigatorFunc func(userID string, loc domain.Location, msg domain.MessageRef)

func (f NavigatorFunc) NavigateTo(userID string, loc domain.Location, msg domain.MessageRef) {
	f(userID, loc, msg)
}

type NamerFunc func(loc domain.Location) string

func (f NamerFunc) DefaultName(loc domain.Location) string { return f(loc) }

type LocatorFunc func(userID string) (domain.Location, bool)

func (f LocatorFunc) CurrentLocation(userID string) (domain.Location, bool) { return f(userID) }

// Deps are the collaborators shared by both sessions of a user.
// Every field is optional.
type Deps struct {
	Saver     Saver
	Navigator Navigator
	Namer     Namer
	Logger    logger.Logger
	NewID     func() string // tab id generator, defaults to random UUIDs
}

func (d Deps) withDefaults() Deps {
	if d.Saver == nil {
		d.Saver = discard{}
	}
	if d.Navigator == nil {
		d.Navigator = NavigatorFunc(func(string, domain.Location, domain.MessageRef) {})
	}
	if d.Namer == nil {
		d.Namer = NamerFunc(func(loc domain.Location) string { return loc.ChannelID })
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

type discard struct{}

func (discard) SaveTabs(string, domain.TabState)       {}
func (discard) SaveBookmarks(string, domain.Bookmarks) {}
