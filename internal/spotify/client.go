// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// Reader is the read-only view of a signed-in user's Spotify account.
type Reader interface {
	Profile(ctx context.Context) (*Profile, error)
	TopTracks(ctx context.Context, timeRange TimeRange, limit int) ([]TopTrack, error)
}

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// Profile returns the current user's id, display name and first profile image.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	return convertProfile(user), nil
}

func convertProfile(user *spotify.PrivateUser) *Profile {
	p := &Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	}
	if len(user.Images) > 0 {
		p.ImageURL = user.Images[0].URL
	}
	return p
}

var _ Reader = (*Client)(nil)
