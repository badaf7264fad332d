package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mumraindrop/friendify/internal/apperr"
	"github.com/mumraindrop/friendify/internal/auth"
	"github.com/mumraindrop/friendify/internal/db"
	"github.com/mumraindrop/friendify/internal/friends"
	"github.com/mumraindrop/friendify/internal/spotify"
	"github.com/mumraindrop/friendify/internal/sync"
	"github.com/mumraindrop/friendify/internal/toptracks"
	webfs "github.com/mumraindrop/friendify/web"
)

const testFrontend = "http://localhost:5173"

type fakeAuth struct {
	err error
}

func (f fakeAuth) AuthURL(state string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://accounts.spotify.com/authorize?state=" + state, nil
}

type fakeLogins struct {
	codes []string
	err   error
}

func (f *fakeLogins) CompleteLogin(_ context.Context, code string) (*sync.Result, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", apperr.ErrValidation)
	}
	return &sync.Result{
		SpotifyUserID: "alice smith",
		Tracks:        map[spotify.TimeRange]int{spotify.ShortTerm: 10},
	}, nil
}

type testEnv struct {
	handler http.Handler
	store   *db.Memory
	logins  *fakeLogins
}

func newTestEnv(t *testing.T, authorizer Authorizer) *testEnv {
	t.Helper()

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	require.NoError(t, err)
	static, err := fs.Sub(webfs.StaticFS, "static")
	require.NoError(t, err)

	store := db.NewMemory()
	logins := &fakeLogins{}
	srv, err := NewServer(ServerConfig{
		FrontendURL: testFrontend + "/",
		CORSOrigins: []string{testFrontend},
		TemplatesFS: templates,
		StaticFS:    static,
		Auth:        authorizer,
		Logins:      logins,
		Friends:     friends.New(store),
		TopTracks:   toptracks.New(store),
	})
	require.NoError(t, err)

	return &testEnv{handler: srv.Handler(), store: store, logins: logins}
}

func (e *testEnv) do(t *testing.T, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestFriendRequestFlow(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodPost, "/api/friends/request?senderSpotifyId=u1&receiverSpotifyId=u2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Friend request sent.", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/friends/requests?spotifyUserId=u2")
	require.Equal(t, http.StatusOK, rec.Code)
	requests := decode[[]map[string]any](t, rec)
	require.Len(t, requests, 1)
	assert.Equal(t, "u1", requests[0]["senderSpotifyId"])
	assert.Equal(t, "u1", requests[0]["senderDisplayName"])
	assert.NotEmpty(t, requests[0]["createdAt"])
	requestID, ok := requests[0]["id"].(string)
	require.True(t, ok)

	rec = env.do(t, http.MethodPost, "/api/friends/accept?requestId="+requestID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Friend request accepted.", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/friends?spotifyUserId=u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []map[string]any{{"spotifyId": "u2", "displayName": "u2"}}, decode[[]map[string]any](t, rec))

	rec = env.do(t, http.MethodGet, "/api/friends?spotifyUserId=u2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []map[string]any{{"spotifyId": "u1", "displayName": "u1"}}, decode[[]map[string]any](t, rec))

	rec = env.do(t, http.MethodGet, "/api/friends/requests?spotifyUserId=u2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	// Accepting again reports the request as gone.
	rec = env.do(t, http.MethodPost, "/api/friends/accept?requestId="+requestID)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/friends/remove?spotifyUserId=u2&friendSpotifyId=u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Friend removed.", rec.Body.String())

	for _, u := range []string{"u1", "u2"} {
		rec = env.do(t, http.MethodGet, "/api/friends?spotifyUserId="+u)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	}
}

func TestSendFriendRequest_Errors(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"self request", "/api/friends/request?senderSpotifyId=u1&receiverSpotifyId=u1", http.StatusBadRequest, "you cannot add yourself"},
		{"missing receiver", "/api/friends/request?senderSpotifyId=u1", http.StatusBadRequest, "receiver spotify id is required"},
		{"missing both", "/api/friends/request", http.StatusBadRequest, "sender spotify id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}

	rec := env.do(t, http.MethodGet, "/api/friends/requests?spotifyUserId=u1")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestSendFriendRequest_ParamCase(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodPost, "/api/friends/request?SenderSpotifyId=u1&ReceiverSpotifyId=u2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/friends/requests?spotifyUserId=u2")
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestRejectAndRemove_Idempotent(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodPost, "/api/friends/request?senderSpotifyId=u1&receiverSpotifyId=u2")
	require.Equal(t, http.StatusOK, rec.Code)
	requests := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/friends/requests?spotifyUserId=u2"))
	require.Len(t, requests, 1)
	id := requests[0]["id"].(string)

	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/api/friends/reject?requestId="+id)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Friend request rejected.", rec.Body.String())

		rec = env.do(t, http.MethodDelete, "/api/friends/remove?spotifyUserId=u1&friendSpotifyId=u2")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/friends/reject")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Friend request rejected.", rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/friends/remove?spotifyUserId=u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListsWithoutUser(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	for _, target := range []string{"/api/friends/requests", "/api/friends"} {
		rec := env.do(t, http.MethodGet, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "[]\n", rec.Body.String(), target)
	}
}

func TestUserLookupAndSearch(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})
	name := "Alice"
	require.NoError(t, env.store.Users().Upsert(context.Background(), &db.User{SpotifyUserID: "alice", DisplayName: &name}))

	rec := env.do(t, http.MethodGet, "/api/friends/user?spotifyUserId=alice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"displayName": "Alice", "spotifyUserId": "alice"}, decode[map[string]any](t, rec))

	require.NoError(t, env.store.Users().Upsert(context.Background(), &db.User{SpotifyUserID: "carol"}))
	rec = env.do(t, http.MethodGet, "/api/friends/user?spotifyUserId=carol")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"displayName": nil, "spotifyUserId": "carol"}, decode[map[string]any](t, rec))

	rec = env.do(t, http.MethodGet, "/api/friends/user?spotifyUserId=nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/friends/user")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/friends/search?displayName=Alice")
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]map[string]any](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0]["spotifyUserId"])
	assert.Equal(t, "Alice", users[0]["displayName"])
	assert.NotEmpty(t, users[0]["id"])

	rec = env.do(t, http.MethodGet, "/api/friends/search?displayName=%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopTracks(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})
	ctx := context.Background()

	img := "https://img/1"
	var rows []db.TopTrack
	for i := 1; i <= 4; i++ {
		rows = append(rows, db.TopTrack{
			SpotifyTrackID: fmt.Sprintf("t%d", i),
			TrackName:      fmt.Sprintf("Track %d", i),
			AlbumImageURL:  &img,
			Rank:           i,
		})
	}
	require.NoError(t, env.store.TopTracks().Replace(ctx, "u1", "short_term", rows))
	require.NoError(t, env.store.TopTracks().Replace(ctx, "u1", "medium_term", rows[:1]))

	rec := env.do(t, http.MethodGet, "/api/spotify/me/top-tracks?spotifyUserId=u1&timeRange=short_term")
	require.Equal(t, http.StatusOK, rec.Code)
	tracks := decode[[]map[string]any](t, rec)
	require.Len(t, tracks, 4)
	for i, tr := range tracks {
		assert.Equal(t, float64(i+1), tr["rank"], "ranks increase from 1")
		assert.Equal(t, fmt.Sprintf("Track %d", i+1), tr["trackName"])
		assert.Equal(t, img, tr["albumImageUrl"])
		assert.Nil(t, tr["previewUrl"])
		assert.Contains(t, tr, "popularity")
	}

	rec = env.do(t, http.MethodGet, "/api/spotify/me/top-tracks?spotifyUserId=u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1, "defaults to medium_term")

	rec = env.do(t, http.MethodGet, "/api/spotify/me/top-tracks?spotifyUserId=u1&timeRange=long_term")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/spotify/me/top-tracks?timeRange=short_term")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodGet, "/api/spotify/login")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.spotify.com", loc.Host)

	var state *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookie {
			state = c
		}
	}
	require.NotNil(t, state, "state cookie is set")
	assert.Equal(t, loc.Query().Get("state"), state.Value)
	assert.True(t, state.HttpOnly)
}

func TestLogin_MissingCredentials(t *testing.T) {
	env := newTestEnv(t, fakeAuth{err: auth.ErrMissingCredentials})

	rec := env.do(t, http.MethodGet, "/api/spotify/login")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing SPOTIFY_ID")
}

func TestCallback(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodGet, "/api/spotify/callback?code=abc&state=s1",
		&http.Cookie{Name: stateCookie, Value: "s1"})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, testFrontend+"/home?spotifyUserId=alice+smith", rec.Header().Get("Location"))
	assert.Equal(t, []string{"abc"}, env.logins.codes)

	// Without a state cookie the code is still accepted.
	rec = env.do(t, http.MethodGet, "/api/spotify/callback?code=def")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestCallback_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		cookie   *http.Cookie
		loginErr error
		wantBody string
	}{
		{name: "missing code", target: "/api/spotify/callback", wantBody: "missing authorization code"},
		{name: "provider error", target: "/api/spotify/callback?error=access_denied", wantBody: "access_denied"},
		{
			name:     "state mismatch",
			target:   "/api/spotify/callback?code=abc&state=other",
			cookie:   &http.Cookie{Name: stateCookie, Value: "s1"},
			wantBody: "state mismatch",
		},
		{
			name:     "exchange rejected",
			target:   "/api/spotify/callback?code=abc",
			loginErr: fmt.Errorf("%w: invalid_grant", apperr.ErrUpstreamAuth),
			wantBody: "invalid_grant",
		},
		{
			name:     "profile missing id",
			target:   "/api/spotify/callback?code=abc",
			loginErr: fmt.Errorf("%w: profile has no id", apperr.ErrUpstreamProfile),
			wantBody: "profile has no id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, fakeAuth{})
			env.logins.err = tt.loginErr

			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			rec := env.do(t, http.MethodGet, tt.target, cookies...)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, strings.ToLower(rec.Body.String()), strings.ToLower(tt.wantBody))
		})
	}
}

func TestCallback_StoreFailure(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})
	env.logins.err = fmt.Errorf("upserting user: %w", errors.Join(apperr.ErrStore, errors.New("connection refused")))

	rec := env.do(t, http.MethodGet, "/api/spotify/callback?code=abc")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestPages(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	tests := []struct {
		path string
		want string
	}{
		{"/", "Log in with Spotify"},
		{"/callback?spotifyUserId=alice", "Signing you in"},
		{"/home?spotifyUserId=alice", `data-user="alice"`},
		{"/top-tracks?spotifyUserId=alice", "Last 4 Weeks"},
		{"/top-tracks?timeRange=long_term", `data-range="long_term" class="active"`},
		{"/friends", "Friend requests"},
		{"/help", "How does it work?"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestCallbackPage_ForwardsCode(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodGet, "/callback?code=abc&state=s1")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/api/spotify/callback?code=abc&state=s1", rec.Header().Get("Location"))
}

func TestStatic(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	rec := env.do(t, http.MethodGet, "/static/js/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spotify_user_id")
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, fakeAuth{})

	req := httptest.NewRequest(http.MethodOptions, "/api/friends/request", nil)
	req.Header.Set("Origin", testFrontend)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testFrontend, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestQuery(t *testing.T) {
	tests := []struct {
		rawQuery string
		name     string
		want     string
	}{
		{"spotifyUserId=a", "spotifyUserId", "a"},
		{"SpotifyUserId=b", "spotifyUserId", "b"},
		{"spotifyuserid=c&spotifyUserId=d", "spotifyUserId", "d"},
		{"other=e", "spotifyUserId", ""},
	}

	for _, tt := range tests {
		t.Run(tt.rawQuery, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.rawQuery, nil)
			if got := query(r, tt.name); got != tt.want {
				t.Errorf("query(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
