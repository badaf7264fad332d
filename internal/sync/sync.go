// Package sync refreshes a user's stored profile and top tracks from
// Spotify whenever they complete the login flow.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mumraindrop/friendify/internal/apperr"
	"github.com/mumraindrop/friendify/internal/db"
	"github.com/mumraindrop/friendify/internal/spotify"
)

// Provider exchanges a login code and opens a reader for the resulting token.
// auth.Authenticator implements it.
type Provider interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Reader(ctx context.Context, token *oauth2.Token) spotify.Reader
}

// Service handles syncing data from Spotify to the store.
type Service struct {
	store    db.Store
	provider Provider
	now      func() time.Time
}

// New creates a new sync service.
func New(store db.Store, provider Provider) *Service {
	return &Service{
		store:    store,
		provider: provider,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Result contains the result of a login sync.
type Result struct {
	SpotifyUserID string
	// Tracks is the number of tracks stored per time range.
	Tracks   map[spotify.TimeRange]int
	SyncedAt time.Time
}

// CompleteLogin exchanges the authorization code, upserts the user's
// profile and replaces their top tracks snapshot for every time range.
//
// Time ranges are synced in order and each one is replaced atomically on
// its own. A failure part way leaves earlier ranges refreshed and later
// ranges as they were.
func (s *Service) CompleteLogin(ctx context.Context, code string) (*Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", apperr.ErrValidation)
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchanging code: %w", apperr.ErrUpstreamAuth, err)
	}

	reader := s.provider.Reader(ctx, token)

	profile, err := reader.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrUpstreamProfile, err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", apperr.ErrUpstreamProfile)
	}

	syncedAt := s.now()
	user := &db.User{
		SpotifyUserID:   profile.ID,
		DisplayName:     optional(profile.DisplayName),
		ProfileImageURL: optional(profile.ImageURL),
		LastLoginAt:     syncedAt,
	}
	if err := s.store.Users().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	result := &Result{
		SpotifyUserID: profile.ID,
		Tracks:        make(map[spotify.TimeRange]int, len(spotify.TimeRanges)),
		SyncedAt:      syncedAt,
	}

	for _, tr := range spotify.TimeRanges {
		n, err := s.syncTopTracks(ctx, reader, profile.ID, tr)
		if err != nil {
			return nil, err
		}
		result.Tracks[tr] = n
	}

	return result, nil
}

// syncTopTracks replaces the stored snapshot for one time range and
// returns how many tracks were stored.
func (s *Service) syncTopTracks(ctx context.Context, reader spotify.Reader, spotifyUserID string, tr spotify.TimeRange) (int, error) {
	fetched, err := reader.TopTracks(ctx, tr, spotify.TopTracksLimit)
	if err != nil {
		return 0, err
	}

	tracks := rankTracks(fetched)
	if err := s.store.TopTracks().Replace(ctx, spotifyUserID, string(tr), tracks); err != nil {
		return 0, fmt.Errorf("replacing %s top tracks: %w", tr, err)
	}
	return len(tracks), nil
}

// rankTracks drops tracks without an id and ranks the rest 1..n in the
// order Spotify returned them.
func rankTracks(fetched []spotify.TopTrack) []db.TopTrack {
	tracks := make([]db.TopTrack, 0, len(fetched))
	for _, t := range fetched {
		if t.ID == "" {
			continue
		}
		tracks = append(tracks, db.TopTrack{
			SpotifyTrackID: t.ID,
			TrackName:      t.Name,
			ArtistName:     t.Artist,
			AlbumName:      t.Album,
			AlbumImageURL:  optional(t.AlbumImageURL),
			PreviewURL:     optional(t.PreviewURL),
			Popularity:     t.Popularity,
			Rank:           len(tracks) + 1,
		})
	}
	return tracks
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
