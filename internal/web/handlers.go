package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mumraindrop/friendify/internal/apperr"
	"github.com/mumraindrop/friendify/internal/auth"
	"github.com/mumraindrop/friendify/internal/friends"
	"github.com/mumraindrop/friendify/internal/spotify"
	"github.com/mumraindrop/friendify/internal/sync"
	"github.com/mumraindrop/friendify/internal/toptracks"
)

const (
	stateCookie = "oauth_state"
	apiBase     = "/api"
)

// Authorizer builds the Spotify authorize URL. auth.Authenticator implements it.
type Authorizer interface {
	AuthURL(state string) (string, error)
}

// LoginCompleter finishes a login from the callback code. sync.Service implements it.
type LoginCompleter interface {
	CompleteLogin(ctx context.Context, code string) (*sync.Result, error)
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth          Authorizer
	logins        LoginCompleter
	friends       *friends.Service
	topTracks     *toptracks.Service
	templates     *Templates
	logger        *zap.Logger
	frontendURL   string
	secureCookies bool
	now           func() time.Time
}

// NewHandlers creates a new Handlers instance from the server config.
func NewHandlers(cfg ServerConfig, templates *Templates) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		auth:          cfg.Auth,
		logins:        cfg.Logins,
		friends:       cfg.Friends,
		topTracks:     cfg.TopTracks,
		templates:     templates,
		logger:        logger,
		frontendURL:   strings.TrimSuffix(cfg.FrontendURL, "/"),
		secureCookies: cfg.SecureCookies,
		now:           time.Now,
	}
}

// ============================================================================
// Auth
// ============================================================================

// Login initiates the Spotify OAuth flow (GET /api/spotify/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	// Generate state for CSRF protection
	state, err := auth.GenerateState()
	if err != nil {
		h.fail(w, r, "spotify.login", fmt.Errorf("generating state: %w", err))
		return
	}

	authURL, err := h.auth.AuthURL(state)
	if err != nil {
		h.fail(w, r, "spotify.login", err)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles the OAuth callback from Spotify (GET /api/spotify/callback).
// It syncs the user and redirects to the home screen with their Spotify id.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	// Check for error from Spotify
	if errMsg := query(r, "error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Spotify auth error: %s", errMsg), http.StatusBadRequest)
		return
	}

	// The state is only checked when this browser started the login.
	if cookie, err := r.Cookie(stateCookie); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
		if query(r, "state") != cookie.Value {
			http.Error(w, auth.ErrStateMismatch.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := h.logins.CompleteLogin(r.Context(), query(r, "code"))
	if err != nil {
		h.fail(w, r, "spotify.callback", err)
		return
	}

	h.logger.Info("login synced",
		zap.String("spotify_user_id", result.SpotifyUserID),
		zap.Int(string(spotify.ShortTerm), result.Tracks[spotify.ShortTerm]),
		zap.Int(string(spotify.MediumTerm), result.Tracks[spotify.MediumTerm]),
		zap.Int(string(spotify.LongTerm), result.Tracks[spotify.LongTerm]),
	)

	target := h.frontendURL + "/home?spotifyUserId=" + url.QueryEscape(result.SpotifyUserID)
	http.Redirect(w, r, target, http.StatusFound)
}

// ============================================================================
// Pages
// ============================================================================

func (h *Handlers) pageData(r *http.Request, title string) PageData {
	return PageData{
		Title:         title,
		CurrentPath:   r.URL.Path,
		SpotifyUserID: query(r, "spotifyUserId"),
		APIBase:       apiBase,
	}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		h.logger.Error("rendering template", zap.String("page", page), zap.Error(err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// LoginPage handles the login screen (GET /).
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", h.pageData(r, "Friendify"))
}

// CallbackPage handles the frontend callback screen (GET /callback). A
// Spotify redirect carrying a code is forwarded to the API callback; a
// redirect carrying the resolved id is stored by the page script.
func (h *Handlers) CallbackPage(w http.ResponseWriter, r *http.Request) {
	if query(r, "code") != "" || query(r, "error") != "" {
		http.Redirect(w, r, apiBase+"/spotify/callback?"+r.URL.RawQuery, http.StatusFound)
		return
	}
	h.render(w, r, "callback", h.pageData(r, "Signing in"))
}

// HomePage handles the home screen (GET /home).
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home", h.pageData(r, "Home"))
}

// TopTracksPage handles the top tracks screen (GET /top-tracks).
func (h *Handlers) TopTracksPage(w http.ResponseWriter, r *http.Request) {
	selected := spotify.TimeRange(query(r, "timeRange"))
	if selected == "" {
		selected = spotify.DefaultTimeRange
	}
	h.render(w, r, "top_tracks", TopTracksPageData{
		PageData:   h.pageData(r, "Top Tracks"),
		TimeRanges: spotify.TimeRanges,
		Selected:   selected,
	})
}

// FriendsPage handles the friends screen (GET /friends).
func (h *Handlers) FriendsPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "friends", h.pageData(r, "Friends"))
}

// HelpPage handles the help screen (GET /help).
func (h *Handlers) HelpPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "help", h.pageData(r, "Help"))
}

// ============================================================================
// Helpers
// ============================================================================

// query returns the named query parameter, matching the name without
// regard to case when there is no exact match.
func query(r *http.Request, name string) string {
	values := r.URL.Query()
	if v, ok := values[name]; ok && len(v) > 0 {
		return v[0]
	}
	for key, v := range values {
		if strings.EqualFold(key, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// fail logs err under op and writes its message with the matching status.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := apperr.Status(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}
	http.Error(w, err.Error(), status)
}
