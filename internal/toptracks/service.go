// Package toptracks serves the cached top tracks snapshots.
package toptracks

import (
	"context"
	"fmt"
	"strings"

	"github.com/mumraindrop/friendify/internal/apperr"
	"github.com/mumraindrop/friendify/internal/db"
	"github.com/mumraindrop/friendify/internal/spotify"
)

// Track is one ranked entry of a top tracks snapshot.
type Track struct {
	Rank          int
	TrackName     string
	ArtistName    string
	AlbumName     string
	AlbumImageURL *string
	PreviewURL    *string
	Popularity    int
}

// Service reads top tracks snapshots.
type Service struct {
	tracks db.TopTrackStore
}

// New creates a new top tracks service.
func New(store db.Store) *Service {
	return &Service{tracks: store.TopTracks()}
}

// GetTopTracks returns the user's snapshot for timeRange ordered by rank.
// An empty timeRange means the medium term. A range with no rows, including
// an unknown range, yields an empty list.
func (s *Service) GetTopTracks(ctx context.Context, spotifyUserID, timeRange string) ([]Track, error) {
	userID := strings.TrimSpace(spotifyUserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: spotify user id is required", apperr.ErrValidation)
	}
	if timeRange = strings.TrimSpace(timeRange); timeRange == "" {
		timeRange = string(spotify.DefaultTimeRange)
	}

	rows, err := s.tracks.List(ctx, userID, timeRange)
	if err != nil {
		return nil, fmt.Errorf("listing top tracks: %w", err)
	}

	tracks := make([]Track, 0, len(rows))
	for _, r := range rows {
		tracks = append(tracks, Track{
			Rank:          r.Rank,
			TrackName:     r.TrackName,
			ArtistName:    r.ArtistName,
			AlbumName:     r.AlbumName,
			AlbumImageURL: r.AlbumImageURL,
			PreviewURL:    r.PreviewURL,
			Popularity:    r.Popularity,
		})
	}
	return tracks, nil
}
