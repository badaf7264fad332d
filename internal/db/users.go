package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles user database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, spotify_user_id, display_name, profile_image_url, last_login_at, created_at`

// Upsert creates or updates a user keyed by Spotify user id.
func (r *UserRepository) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, spotify_user_id, display_name, profile_image_url, last_login_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (spotify_user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			profile_image_url = EXCLUDED.profile_image_url,
			last_login_at = EXCLUDED.last_login_at
		RETURNING id, created_at
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.SpotifyUserID,
		user.DisplayName,
		user.ProfileImageURL,
		user.LastLoginAt,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return storeError("upserting user", err)
	}
	return nil
}

// Get retrieves a user by Spotify user id.
func (r *UserRepository) Get(ctx context.Context, spotifyUserID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE spotify_user_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, spotifyUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeError("querying user", err)
	}
	return user, nil
}

// FindByDisplayName retrieves all users with exactly this display name.
func (r *UserRepository) FindByDisplayName(ctx context.Context, name string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE display_name = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return nil, storeError("searching users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storeError("scanning user", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("searching users", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.SpotifyUserID,
		&user.DisplayName,
		&user.ProfileImageURL,
		&user.LastLoginAt,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
