package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TopTrackRepository handles top track snapshot database operations.
type TopTrackRepository struct {
	pool *pgxpool.Pool
}

// Replace deletes the snapshot for (user, time range) and inserts tracks
// in its place. Readers see either the old or the new snapshot.
func (r *TopTrackRepository) Replace(ctx context.Context, spotifyUserID, timeRange string, tracks []TopTrack) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeError("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `DELETE FROM top_tracks WHERE spotify_user_id = $1 AND time_range = $2`
	if _, err := tx.Exec(ctx, deleteQuery, spotifyUserID, timeRange); err != nil {
		return storeError("deleting top tracks", err)
	}

	if len(tracks) > 0 {
		insertQuery := `
			INSERT INTO top_tracks (
				id, spotify_user_id, spotify_track_id, track_name, artist_name, album_name,
				album_image_url, preview_url, popularity, rank, time_range
			)
			SELECT t.id, $2, t.track_id, t.track_name, t.artist_name, t.album_name,
				t.album_image_url, t.preview_url, t.popularity, t.rank, $3
			FROM unnest(
				$1::uuid[], $4::text[], $5::text[], $6::text[], $7::text[],
				$8::text[], $9::text[], $10::int[], $11::int[]
			) AS t(id, track_id, track_name, artist_name, album_name, album_image_url, preview_url, popularity, rank)
		`

		ids := make([]string, len(tracks))
		trackIDs := make([]string, len(tracks))
		names := make([]string, len(tracks))
		artists := make([]string, len(tracks))
		albums := make([]string, len(tracks))
		images := make([]*string, len(tracks))
		previews := make([]*string, len(tracks))
		popularity := make([]int, len(tracks))
		ranks := make([]int, len(tracks))

		for i := range tracks {
			t := &tracks[i]
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			t.SpotifyUserID = spotifyUserID
			t.TimeRange = timeRange

			ids[i] = t.ID.String()
			trackIDs[i] = t.SpotifyTrackID
			names[i] = t.TrackName
			artists[i] = t.ArtistName
			albums[i] = t.AlbumName
			images[i] = t.AlbumImageURL
			previews[i] = t.PreviewURL
			popularity[i] = t.Popularity
			ranks[i] = t.Rank
		}

		_, err := tx.Exec(ctx, insertQuery,
			ids, spotifyUserID, timeRange,
			trackIDs, names, artists, albums, images, previews, popularity, ranks,
		)
		if err != nil {
			return storeError("inserting top tracks", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("committing transaction", err)
	}
	return nil
}

// List retrieves the snapshot for (user, time range) ordered by rank.
func (r *TopTrackRepository) List(ctx context.Context, spotifyUserID, timeRange string) ([]TopTrack, error) {
	query := `
		SELECT id, spotify_user_id, spotify_track_id, track_name, artist_name, album_name,
			album_image_url, preview_url, popularity, rank, time_range
		FROM top_tracks
		WHERE spotify_user_id = $1 AND time_range = $2
		ORDER BY rank ASC
	`
	rows, err := r.pool.Query(ctx, query, spotifyUserID, timeRange)
	if err != nil {
		return nil, storeError("querying top tracks", err)
	}
	defer rows.Close()

	var tracks []TopTrack
	for rows.Next() {
		var t TopTrack
		if err := rows.Scan(
			&t.ID,
			&t.SpotifyUserID,
			&t.SpotifyTrackID,
			&t.TrackName,
			&t.ArtistName,
			&t.AlbumName,
			&t.AlbumImageURL,
			&t.PreviewURL,
			&t.Popularity,
			&t.Rank,
			&t.TimeRange,
		); err != nil {
			return nil, storeError("scanning top track", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("querying top tracks", err)
	}
	return tracks, nil
}
