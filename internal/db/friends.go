package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository handles friendship edge database operations.
type FriendRepository struct {
	pool *pgxpool.Pool
}

// ListFriendIDs retrieves the Spotify ids a user is friends with, oldest friendship first.
func (r *FriendRepository) ListFriendIDs(ctx context.Context, spotifyUserID string) ([]string, error) {
	query := `
		SELECT friend_spotify_id
		FROM friends
		WHERE user_spotify_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, spotifyUserID)
	if err != nil {
		return nil, storeError("querying friends", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeError("scanning friend", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("querying friends", err)
	}
	return ids, nil
}

// Remove deletes the friendship edges in both directions.
func (r *FriendRepository) Remove(ctx context.Context, spotifyUserID, friendSpotifyID string) error {
	query := `
		DELETE FROM friends
		WHERE (user_spotify_id = $1 AND friend_spotify_id = $2)
		   OR (user_spotify_id = $2 AND friend_spotify_id = $1)
	`
	_, err := r.pool.Exec(ctx, query, spotifyUserID, friendSpotifyID)
	if err != nil {
		return storeError("deleting friendship", err)
	}
	return nil
}
