// Package friends implements the friend graph: requests, their resolution
// into symmetric friendships, friend lists and user lookup.
package friends

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mumraindrop/friendify/internal/apperr"
	"github.com/mumraindrop/friendify/internal/db"
)

// IncomingRequest is a pending request addressed to the current user.
type IncomingRequest struct {
	ID                uuid.UUID
	SenderSpotifyID   string
	SenderDisplayName string
	CreatedAt         time.Time
}

// Friend is one entry of a friend list.
type Friend struct {
	SpotifyID   string
	DisplayName string
}

// User is a public user record returned by search and lookup. DisplayName
// is the stored value and may be nil.
type User struct {
	ID            uuid.UUID
	SpotifyUserID string
	DisplayName   *string
}

// Service handles friend graph operations.
type Service struct {
	store db.Store
}

// New creates a new friends service.
func New(store db.Store) *Service {
	return &Service{store: store}
}

// SendRequest records a pending request from sender to receiver.
// Duplicate requests and requests between existing friends are accepted.
func (s *Service) SendRequest(ctx context.Context, senderSpotifyID, receiverSpotifyID string) (*db.FriendRequest, error) {
	sender, err := required("sender spotify id", senderSpotifyID)
	if err != nil {
		return nil, err
	}
	receiver, err := required("receiver spotify id", receiverSpotifyID)
	if err != nil {
		return nil, err
	}
	if sender == receiver {
		return nil, apperr.ErrSelfRequest
	}

	req := &db.FriendRequest{
		SenderSpotifyID:   sender,
		ReceiverSpotifyID: receiver,
		Status:            db.StatusPending,
	}
	if err := s.store.FriendRequests().Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}
	return req, nil
}

// ListIncomingRequests returns requests addressed to the user, oldest first,
// with each sender's display name resolved. A blank id has no requests.
func (s *Service) ListIncomingRequests(ctx context.Context, spotifyUserID string) ([]IncomingRequest, error) {
	userID := strings.TrimSpace(spotifyUserID)
	if userID == "" {
		return []IncomingRequest{}, nil
	}

	requests, err := s.store.FriendRequests().ListIncoming(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}

	incoming := make([]IncomingRequest, 0, len(requests))
	for _, r := range requests {
		name, err := s.displayName(ctx, r.SenderSpotifyID)
		if err != nil {
			return nil, err
		}
		incoming = append(incoming, IncomingRequest{
			ID:                r.ID,
			SenderSpotifyID:   r.SenderSpotifyID,
			SenderDisplayName: name,
			CreatedAt:         r.CreatedAt,
		})
	}
	return incoming, nil
}

// AcceptRequest turns a pending request into a friendship. Both edges are
// created and the request is removed together.
func (s *Service) AcceptRequest(ctx context.Context, requestID string) (*db.FriendRequest, error) {
	raw, err := required("request id", requestID)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("friend request %s: %w", raw, apperr.ErrNotFound)
	}

	req, err := s.store.FriendRequests().Accept(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("accepting friend request: %w", err)
	}
	return req, nil
}

// RejectRequest deletes a request. Rejecting an unknown, blank or malformed
// id is not an error.
func (s *Service) RejectRequest(ctx context.Context, requestID string) error {
	id, err := uuid.Parse(strings.TrimSpace(requestID))
	if err != nil {
		// No row can have this id.
		return nil
	}

	if err := s.store.FriendRequests().Delete(ctx, id); err != nil {
		return fmt.Errorf("rejecting friend request: %w", err)
	}
	return nil
}

// ListFriends returns the user's friends, oldest friendship first. A blank
// id has no friends.
func (s *Service) ListFriends(ctx context.Context, spotifyUserID string) ([]Friend, error) {
	userID := strings.TrimSpace(spotifyUserID)
	if userID == "" {
		return []Friend{}, nil
	}

	ids, err := s.store.Friends().ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}

	friends := make([]Friend, 0, len(ids))
	for _, id := range ids {
		name, err := s.displayName(ctx, id)
		if err != nil {
			return nil, err
		}
		friends = append(friends, Friend{SpotifyID: id, DisplayName: name})
	}
	return friends, nil
}

// RemoveFriend deletes the friendship in both directions. Removing a
// friendship that does not exist is not an error.
func (s *Service) RemoveFriend(ctx context.Context, spotifyUserID, friendSpotifyID string) error {
	userID, err := required("spotify user id", spotifyUserID)
	if err != nil {
		return err
	}
	friendID, err := required("friend spotify id", friendSpotifyID)
	if err != nil {
		return err
	}

	if err := s.store.Friends().Remove(ctx, userID, friendID); err != nil {
		return fmt.Errorf("removing friend: %w", err)
	}
	return nil
}

// SearchUsers returns every user whose display name equals displayName exactly.
func (s *Service) SearchUsers(ctx context.Context, displayName string) ([]User, error) {
	name, err := required("display name", displayName)
	if err != nil {
		return nil, err
	}

	found, err := s.store.Users().FindByDisplayName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}

	users := make([]User, 0, len(found))
	for _, u := range found {
		users = append(users, User{
			ID:            u.ID,
			SpotifyUserID: u.SpotifyUserID,
			DisplayName:   u.DisplayName,
		})
	}
	return users, nil
}

// GetUser returns a single user by Spotify id with the display name as stored.
func (s *Service) GetUser(ctx context.Context, spotifyUserID string) (*User, error) {
	userID, err := required("spotify user id", spotifyUserID)
	if err != nil {
		return nil, err
	}

	u, err := s.store.Users().Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &User{
		ID:            u.ID,
		SpotifyUserID: u.SpotifyUserID,
		DisplayName:   u.DisplayName,
	}, nil
}

// displayName resolves a Spotify id to a display name, falling back to
// the id itself when the user is unknown or has no name.
func (s *Service) displayName(ctx context.Context, spotifyUserID string) (string, error) {
	u, err := s.store.Users().Get(ctx, spotifyUserID)
	if errors.Is(err, db.ErrNotFound) {
		return spotifyUserID, nil
	}
	if err != nil {
		return "", fmt.Errorf("getting user %s: %w", spotifyUserID, err)
	}
	return u.Name(), nil
}

// required trims value and rejects it when blank.
func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", apperr.ErrValidation, field)
	}
	return v, nil
}
