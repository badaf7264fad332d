package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// In-Memory Store (for development/testing)
// ============================================================================

// Memory is a Store that keeps all rows in process memory. Slices keep
// insertion order, which is the order the list operations return.
type Memory struct {
	mu        sync.RWMutex
	users     []User
	requests  []FriendRequest
	friends   []Friend
	topTracks []TopTrack

	now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Users returns the user store.
func (m *Memory) Users() UserStore { return memoryUsers{m} }

// FriendRequests returns the friend request store.
func (m *Memory) FriendRequests() FriendRequestStore { return memoryRequests{m} }

// Friends returns the friend store.
func (m *Memory) Friends() FriendStore { return memoryFriends{m} }

// TopTracks returns the top track store.
func (m *Memory) TopTracks() TopTrackStore { return memoryTopTracks{m} }

// Close is a no-op.
func (m *Memory) Close() {}

type memoryUsers struct{ m *Memory }

func (s memoryUsers) Upsert(_ context.Context, user *User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i := range s.m.users {
		existing := &s.m.users[i]
		if existing.SpotifyUserID != user.SpotifyUserID {
			continue
		}
		existing.DisplayName = cloneString(user.DisplayName)
		existing.ProfileImageURL = cloneString(user.ProfileImageURL)
		existing.LastLoginAt = user.LastLoginAt
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		return nil
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = s.m.now()
	row := *user
	row.DisplayName = cloneString(user.DisplayName)
	row.ProfileImageURL = cloneString(user.ProfileImageURL)
	s.m.users = append(s.m.users, row)
	return nil
}

func (s memoryUsers) Get(_ context.Context, spotifyUserID string) (*User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, u := range s.m.users {
		if u.SpotifyUserID == spotifyUserID {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s memoryUsers) FindByDisplayName(_ context.Context, name string) ([]User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var users []User
	for _, u := range s.m.users {
		if u.DisplayName != nil && *u.DisplayName == name {
			users = append(users, u)
		}
	}
	return users, nil
}

type memoryRequests struct{ m *Memory }

func (s memoryRequests) Create(_ context.Context, req *FriendRequest) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = StatusPending
	}
	req.CreatedAt = s.m.now()
	s.m.requests = append(s.m.requests, *req)
	return nil
}

func (s memoryRequests) ListIncoming(_ context.Context, receiverSpotifyID string) ([]FriendRequest, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var requests []FriendRequest
	for _, r := range s.m.requests {
		if r.ReceiverSpotifyID == receiverSpotifyID {
			requests = append(requests, r)
		}
	}
	return requests, nil
}

func (s memoryRequests) Accept(_ context.Context, id uuid.UUID) (*FriendRequest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for i, r := range s.m.requests {
		if r.ID != id {
			continue
		}
		s.m.requests = append(s.m.requests[:i], s.m.requests[i+1:]...)

		now := s.m.now()
		s.m.friends = append(s.m.friends,
			Friend{ID: uuid.New(), UserSpotifyID: r.SenderSpotifyID, FriendSpotifyID: r.ReceiverSpotifyID, CreatedAt: now},
			Friend{ID: uuid.New(), UserSpotifyID: r.ReceiverSpotifyID, FriendSpotifyID: r.SenderSpotifyID, CreatedAt: now},
		)
		return &r, nil
	}
	return nil, fmt.Errorf("friend request %s: %w", id, ErrNotFound)
}

func (s memoryRequests) Delete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	kept := s.m.requests[:0]
	for _, r := range s.m.requests {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.m.requests = kept
	return nil
}

type memoryFriends struct{ m *Memory }

func (s memoryFriends) ListFriendIDs(_ context.Context, spotifyUserID string) ([]string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var ids []string
	for _, f := range s.m.friends {
		if f.UserSpotifyID == spotifyUserID {
			ids = append(ids, f.FriendSpotifyID)
		}
	}
	return ids, nil
}

func (s memoryFriends) Remove(_ context.Context, spotifyUserID, friendSpotifyID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	kept := s.m.friends[:0]
	for _, f := range s.m.friends {
		forward := f.UserSpotifyID == spotifyUserID && f.FriendSpotifyID == friendSpotifyID
		backward := f.UserSpotifyID == friendSpotifyID && f.FriendSpotifyID == spotifyUserID
		if !forward && !backward {
			kept = append(kept, f)
		}
	}
	s.m.friends = kept
	return nil
}

type memoryTopTracks struct{ m *Memory }

func (s memoryTopTracks) Replace(_ context.Context, spotifyUserID, timeRange string, tracks []TopTrack) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	kept := s.m.topTracks[:0]
	for _, t := range s.m.topTracks {
		if t.SpotifyUserID != spotifyUserID || t.TimeRange != timeRange {
			kept = append(kept, t)
		}
	}
	for i := range tracks {
		t := &tracks[i]
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.SpotifyUserID = spotifyUserID
		t.TimeRange = timeRange
		kept = append(kept, *t)
	}
	s.m.topTracks = kept
	return nil
}

func (s memoryTopTracks) List(_ context.Context, spotifyUserID, timeRange string) ([]TopTrack, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var tracks []TopTrack
	for _, t := range s.m.topTracks {
		if t.SpotifyUserID == spotifyUserID && t.TimeRange == timeRange {
			tracks = append(tracks, t)
		}
	}
	sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].Rank < tracks[j].Rank })
	return tracks, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
