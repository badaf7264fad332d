package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRequestRepository handles friend request database operations.
type FriendRequestRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new pending friend request.
func (r *FriendRequestRepository) Create(ctx context.Context, req *FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, sender_spotify_id, receiver_spotify_id, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = StatusPending
	}
	err := r.pool.QueryRow(ctx, query,
		req.ID,
		req.SenderSpotifyID,
		req.ReceiverSpotifyID,
		req.Status,
	).Scan(&req.CreatedAt)
	if err != nil {
		return storeError("inserting friend request", err)
	}
	return nil
}

// ListIncoming retrieves all requests addressed to a user, oldest first.
func (r *FriendRequestRepository) ListIncoming(ctx context.Context, receiverSpotifyID string) ([]FriendRequest, error) {
	query := `
		SELECT id, sender_spotify_id, receiver_spotify_id, status, created_at
		FROM friend_requests
		WHERE receiver_spotify_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, receiverSpotifyID)
	if err != nil {
		return nil, storeError("querying friend requests", err)
	}
	defer rows.Close()

	var requests []FriendRequest
	for rows.Next() {
		var req FriendRequest
		if err := rows.Scan(
			&req.ID,
			&req.SenderSpotifyID,
			&req.ReceiverSpotifyID,
			&req.Status,
			&req.CreatedAt,
		); err != nil {
			return nil, storeError("scanning friend request", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("querying friend requests", err)
	}
	return requests, nil
}

// Accept removes the request and inserts the friendship in both directions.
// Concurrent accepts of the same request race on the delete, so only one
// of them creates edges.
func (r *FriendRequestRepository) Accept(ctx context.Context, id uuid.UUID) (*FriendRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storeError("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `
		DELETE FROM friend_requests
		WHERE id = $1
		RETURNING id, sender_spotify_id, receiver_spotify_id, status, created_at
	`
	var req FriendRequest
	err = tx.QueryRow(ctx, deleteQuery, id).Scan(
		&req.ID,
		&req.SenderSpotifyID,
		&req.ReceiverSpotifyID,
		&req.Status,
		&req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("friend request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, storeError("deleting friend request", err)
	}

	edgesQuery := `
		INSERT INTO friends (id, user_spotify_id, friend_spotify_id, created_at)
		VALUES ($1, $2, $3, NOW()), ($4, $3, $2, NOW())
	`
	_, err = tx.Exec(ctx, edgesQuery,
		uuid.New(),
		req.SenderSpotifyID,
		req.ReceiverSpotifyID,
		uuid.New(),
	)
	if err != nil {
		return nil, storeError("inserting friendship", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeError("committing transaction", err)
	}
	return &req, nil
}

// Delete removes a friend request by ID.
func (r *FriendRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM friend_requests WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return storeError("deleting friend request", err)
	}
	return nil
}
