// Package watchlist stores tracked movies and shows and applies every change
// to them optimistically: the cached list is updated first, the durable write
// follows, and the cached entry is reverted if that write fails.
package watchlist

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cinetrack/cinetrack/internal/auth"
	"github.com/cinetrack/cinetrack/internal/media"
)

// LocalUserID owns every item of the anonymous, local-only watch list.
const LocalUserID = auth.LocalUserID

const tempIDPrefix = "tmp-"

var (
	ErrItemNotFound     = errors.New("watchlist item not found")
	ErrInvalidStatus    = errors.New("status not valid for item type")
	ErrInvalidType      = errors.New("operation not supported for item type")
	ErrInvalidSeason    = errors.New("invalid season number")
	ErrInvalidDate      = errors.New("invalid date")
	ErrStoreUnavailable = errors.New("no store configured for signed-in users")
	ErrFetchFailed      = errors.New("failed to fetch metadata")
)

// Item is one tracked movie or show.
type Item struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	ExternalID        int            `json:"externalId"`
	Type              media.Type     `json:"type"`
	Title             string         `json:"title"`
	PosterPath        string         `json:"posterPath,omitempty"`
	VoteAverage       float64        `json:"voteAverage"`
	Status            media.Status   `json:"status"`
	Metadata          media.Metadata `json:"metadata"`
	LastWatchedSeason int            `json:"lastWatchedSeason"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// Key identifies an item independently of its store-assigned ID.
type Key struct {
	UserID     string
	ExternalID int
	Type       media.Type
}

// Key returns the item's identity.
func (i Item) Key() Key {
	return Key{UserID: i.UserID, ExternalID: i.ExternalID, Type: i.Type}
}

// HasTempID reports whether the item still carries the placeholder ID given
// to it before its first durable write.
func (i Item) HasTempID() bool {
	return i.ID == "" || strings.HasPrefix(i.ID, tempIDPrefix)
}

// snapshotDisplay copies the display-only fields from the item's metadata.
func (i *Item) snapshotDisplay() {
	i.Title = i.Metadata.DisplayTitle()
	i.PosterPath = i.Metadata.PosterPath
	i.VoteAverage = i.Metadata.VoteAverage
}

func newTempID() string {
	return tempIDPrefix + uuid.NewString()
}

func matches(i Item, externalID int, t media.Type) bool {
	return i.ExternalID == externalID && i.Type == t
}
