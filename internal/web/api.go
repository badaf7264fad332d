package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mumraindrop/friendify/internal/friends"
	"github.com/mumraindrop/friendify/internal/toptracks"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type trackResponse struct {
	Rank          int     `json:"rank"`
	TrackName     string  `json:"trackName"`
	ArtistName    string  `json:"artistName"`
	AlbumName     string  `json:"albumName"`
	AlbumImageURL *string `json:"albumImageUrl"`
	PreviewURL    *string `json:"previewUrl"`
	Popularity    int     `json:"popularity"`
}

type incomingRequestResponse struct {
	ID                uuid.UUID `json:"id"`
	SenderSpotifyID   string    `json:"senderSpotifyId"`
	SenderDisplayName string    `json:"senderDisplayName"`
	CreatedAt         time.Time `json:"createdAt"`
}

type friendResponse struct {
	SpotifyID   string `json:"spotifyId"`
	DisplayName string `json:"displayName"`
}

type userResponse struct {
	ID            uuid.UUID `json:"id"`
	SpotifyUserID string    `json:"spotifyUserId"`
	DisplayName   *string   `json:"displayName"`
}

type userLookupResponse struct {
	DisplayName   *string `json:"displayName"`
	SpotifyUserID string  `json:"spotifyUserId"`
}

// Health reports that the server is up (GET /api/health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, healthResponse{Status: "Healthy", Timestamp: h.now().UTC()})
}

// TopTracks returns a user's cached top tracks (GET /api/spotify/me/top-tracks).
func (h *Handlers) TopTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.topTracks.GetTopTracks(r.Context(), query(r, "spotifyUserId"), query(r, "timeRange"))
	if err != nil {
		h.fail(w, r, "spotify.top_tracks", err)
		return
	}
	h.writeJSON(w, toTrackResponses(tracks))
}

// SendFriendRequest handles POST /api/friends/request.
func (h *Handlers) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	_, err := h.friends.SendRequest(r.Context(), query(r, "senderSpotifyId"), query(r, "receiverSpotifyId"))
	if err != nil {
		h.fail(w, r, "friends.request", err)
		return
	}
	writeText(w, "Friend request sent.")
}

// IncomingRequests handles GET /api/friends/requests.
func (h *Handlers) IncomingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.friends.ListIncomingRequests(r.Context(), query(r, "spotifyUserId"))
	if err != nil {
		h.fail(w, r, "friends.requests", err)
		return
	}

	resp := make([]incomingRequestResponse, 0, len(requests))
	for _, req := range requests {
		resp = append(resp, incomingRequestResponse{
			ID:                req.ID,
			SenderSpotifyID:   req.SenderSpotifyID,
			SenderDisplayName: req.SenderDisplayName,
			CreatedAt:         req.CreatedAt,
		})
	}
	h.writeJSON(w, resp)
}

// AcceptFriendRequest handles POST /api/friends/accept.
func (h *Handlers) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	if _, err := h.friends.AcceptRequest(r.Context(), query(r, "requestId")); err != nil {
		h.fail(w, r, "friends.accept", err)
		return
	}
	writeText(w, "Friend request accepted.")
}

// RejectFriendRequest handles POST /api/friends/reject.
func (h *Handlers) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.friends.RejectRequest(r.Context(), query(r, "requestId")); err != nil {
		h.fail(w, r, "friends.reject", err)
		return
	}
	writeText(w, "Friend request rejected.")
}

// ListFriends handles GET /api/friends.
func (h *Handlers) ListFriends(w http.ResponseWriter, r *http.Request) {
	list, err := h.friends.ListFriends(r.Context(), query(r, "spotifyUserId"))
	if err != nil {
		h.fail(w, r, "friends.list", err)
		return
	}

	resp := make([]friendResponse, 0, len(list))
	for _, f := range list {
		resp = append(resp, friendResponse{SpotifyID: f.SpotifyID, DisplayName: f.DisplayName})
	}
	h.writeJSON(w, resp)
}

// SearchUsers handles GET /api/friends/search.
func (h *Handlers) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.friends.SearchUsers(r.Context(), query(r, "displayName"))
	if err != nil {
		h.fail(w, r, "friends.search", err)
		return
	}
	h.writeJSON(w, toUserResponses(users))
}

// GetUser handles GET /api/friends/user.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.friends.GetUser(r.Context(), query(r, "spotifyUserId"))
	if err != nil {
		h.fail(w, r, "friends.user", err)
		return
	}
	h.writeJSON(w, userLookupResponse{DisplayName: u.DisplayName, SpotifyUserID: u.SpotifyUserID})
}

// RemoveFriend handles DELETE /api/friends/remove.
func (h *Handlers) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	if err := h.friends.RemoveFriend(r.Context(), query(r, "spotifyUserId"), query(r, "friendSpotifyId")); err != nil {
		h.fail(w, r, "friends.remove", err)
		return
	}
	writeText(w, "Friend removed.")
}

func toTrackResponses(tracks []toptracks.Track) []trackResponse {
	resp := make([]trackResponse, 0, len(tracks))
	for _, t := range tracks {
		resp = append(resp, trackResponse{
			Rank:          t.Rank,
			TrackName:     t.TrackName,
			ArtistName:    t.ArtistName,
			AlbumName:     t.AlbumName,
			AlbumImageURL: t.AlbumImageURL,
			PreviewURL:    t.PreviewURL,
			Popularity:    t.Popularity,
		})
	}
	return resp
}

func toUserResponses(users []friends.User) []userResponse {
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userResponse{
			ID:            u.ID,
			SpotifyUserID: u.SpotifyUserID,
			DisplayName:   u.DisplayName,
		})
	}
	return resp
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("writing response", zap.Error(err))
	}
}

func writeText(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(msg))
}
