// Package auth handles the Spotify OAuth2 authorization code flow for the
// web server: building the authorize URL, exchanging the callback code,
// and producing API readers for the resulting token.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/mumraindrop/friendify/internal/config"
	spotifyclient "github.com/mumraindrop/friendify/internal/spotify"
)

const httpTimeout = 15 * time.Second

var (
	// ErrMissingCredentials is returned when SPOTIFY_ID, SPOTIFY_SECRET or
	// SPOTIFY_REDIRECT_URI is not set.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID, SPOTIFY_SECRET or SPOTIFY_REDIRECT_URI")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserTopRead,
}

// Authenticator handles Spotify OAuth2 authentication.
type Authenticator struct {
	auth       *spotifyauth.Authenticator
	cfg        config.SpotifyConfig
	httpClient *http.Client
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithHTTPClient sets the HTTP client used for token exchange and API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authenticator) {
		a.httpClient = c
	}
}

// New creates an Authenticator from the Spotify config. Missing credentials
// are not an error here; AuthURL and Exchange report ErrMissingCredentials.
func New(cfg config.SpotifyConfig, opts ...Option) *Authenticator {
	a := &Authenticator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: httpTimeout},
		auth: spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithRedirectURL(cfg.RedirectURI),
			spotifyauth.WithScopes(Scopes...),
		),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether every credential needed for the flow is set.
func (a *Authenticator) Configured() bool {
	return a.cfg.Configured()
}

// AuthURL returns the Spotify authorize URL for state. The consent dialog
// is always shown so users can switch accounts.
func (a *Authenticator) AuthURL(state string) (string, error) {
	if a.cfg.ClientID == "" || a.cfg.RedirectURI == "" {
		return "", ErrMissingCredentials
	}
	return a.auth.AuthURL(state, spotifyauth.ShowDialog), nil
}

// Exchange trades an authorization code for a token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !a.Configured() {
		return nil, ErrMissingCredentials
	}
	return a.auth.Exchange(a.withHTTPClient(ctx), code)
}

// Reader returns a Spotify reader authorized with token. The token is
// refreshed automatically by oauth2 when it expires. Rate-limited calls
// are not retried.
func (a *Authenticator) Reader(ctx context.Context, token *oauth2.Token) spotifyclient.Reader {
	httpClient := a.auth.Client(a.withHTTPClient(ctx), token)
	return spotifyclient.New(spotify.New(httpClient))
}

// withHTTPClient makes oauth2 reuse the shared client and its transport.
func (a *Authenticator) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// GenerateState creates a random state string for OAuth.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
