package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// TopTracks retrieves the user's top tracks for a time range, at most limit
// of them (Spotify caps a page at 50).
func (c *Client) TopTracks(ctx context.Context, timeRange TimeRange, limit int) ([]TopTrack, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx,
		spotify.Limit(limit),
		spotify.Timerange(spotify.Range(timeRange)),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching %s top tracks: %w", timeRange, err)
	}

	tracks := make([]TopTrack, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		tracks = append(tracks, convertTopTrack(t))
	}
	return tracks, nil
}

// convertTopTrack converts a Spotify FullTrack to a TopTrack.
func convertTopTrack(t spotify.FullTrack) TopTrack {
	// Join artist names
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	track := TopTrack{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      t.Album.Name,
		PreviewURL: t.PreviewURL,
		Popularity: int(t.Popularity),
	}
	if len(t.Album.Images) > 0 {
		track.AlbumImageURL = t.Album.Images[0].URL
	}
	return track
}
