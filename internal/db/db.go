// Package db provides storage for Friendify: PostgreSQL repositories built
// on pgx and an in-memory store with the same contract.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mumraindrop/friendify/internal/apperr"
)

// Common errors.
var (
	ErrNotFound = apperr.ErrNotFound
)

// UserStore persists user profiles keyed by Spotify user id.
type UserStore interface {
	// Upsert inserts the user or overwrites display name, image and
	// last login of the existing row with the same Spotify id.
	Upsert(ctx context.Context, user *User) error
	Get(ctx context.Context, spotifyUserID string) (*User, error)
	// FindByDisplayName returns users whose display name equals name exactly.
	FindByDisplayName(ctx context.Context, name string) ([]User, error)
}

// FriendRequestStore persists pending friend requests.
type FriendRequestStore interface {
	Create(ctx context.Context, req *FriendRequest) error
	// ListIncoming returns requests addressed to the receiver in insertion order.
	ListIncoming(ctx context.Context, receiverSpotifyID string) ([]FriendRequest, error)
	// Accept deletes the request and creates both friendship edges in one
	// transaction. Returns ErrNotFound if the request does not exist.
	Accept(ctx context.Context, id uuid.UUID) (*FriendRequest, error)
	// Delete removes the request. Deleting a missing request is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// FriendStore reads and removes friendship edges.
type FriendStore interface {
	// ListFriendIDs returns the friend ids of a user in insertion order.
	ListFriendIDs(ctx context.Context, spotifyUserID string) ([]string, error)
	// Remove deletes both edges between the two users. Missing edges are not an error.
	Remove(ctx context.Context, spotifyUserID, friendSpotifyID string) error
}

// TopTrackStore persists top track snapshots.
type TopTrackStore interface {
	// Replace swaps the snapshot for (user, time range) for tracks in one transaction.
	Replace(ctx context.Context, spotifyUserID, timeRange string, tracks []TopTrack) error
	// List returns the snapshot for (user, time range) ordered by rank.
	List(ctx context.Context, spotifyUserID, timeRange string) ([]TopTrack, error)
}

// Store groups the repositories the services depend on.
type Store interface {
	Users() UserStore
	FriendRequests() FriendRequestStore
	Friends() FriendStore
	TopTracks() TopTrackStore
	Close()
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Users returns a UserRepository.
func (db *DB) Users() UserStore {
	return &UserRepository{pool: db.pool}
}

// FriendRequests returns a FriendRequestRepository.
func (db *DB) FriendRequests() FriendRequestStore {
	return &FriendRequestRepository{pool: db.pool}
}

// Friends returns a FriendRepository.
func (db *DB) Friends() FriendStore {
	return &FriendRepository{pool: db.pool}
}

// TopTracks returns a TopTrackRepository.
func (db *DB) TopTracks() TopTrackStore {
	return &TopTrackRepository{pool: db.pool}
}

// storeError tags a failed query as a store error while keeping the cause.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperr.ErrStore, op, err)
}

// Ensure both stores implement Store.
var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)
