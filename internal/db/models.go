package db

import (
	"time"

	"github.com/google/uuid"
)

// StatusPending is the only status a stored friend request ever has;
// resolved requests are deleted.
const StatusPending = "pending"

// User represents a Spotify user who has logged in at least once.
// SpotifyUserID is the key used across every table.
type User struct {
	ID              uuid.UUID
	SpotifyUserID   string
	DisplayName     *string // nullable
	ProfileImageURL *string // nullable
	LastLoginAt     time.Time
	CreatedAt       time.Time
}

// Name returns the display name, or the Spotify id when there is none.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName == nil || *u.DisplayName == "" {
		return u.SpotifyUserID
	}
	return *u.DisplayName
}

// FriendRequest is a pending request from sender to receiver.
type FriendRequest struct {
	ID                uuid.UUID
	SenderSpotifyID   string
	ReceiverSpotifyID string
	Status            string
	CreatedAt         time.Time
}

// Friend is one directed friendship edge. A friendship is stored as two
// edges, one in each direction.
type Friend struct {
	ID              uuid.UUID
	UserSpotifyID   string
	FriendSpotifyID string
	CreatedAt       time.Time
}

// TopTrack is one ranked row of a user's top tracks snapshot for a time range.
type TopTrack struct {
	ID             uuid.UUID
	SpotifyUserID  string
	SpotifyTrackID string
	TrackName      string
	ArtistName     string // Comma-separated artist names
	AlbumName      string
	AlbumImageURL  *string // nullable
	PreviewURL     *string // nullable
	Popularity     int
	Rank           int
	TimeRange      string
}
