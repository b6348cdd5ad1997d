package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/streamhub/internal/apperror"
	"github.com/sakif/streamhub/internal/model"
	"github.com/sakif/streamhub/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// GetChannelProfile builds the channel view in a single query.
//
// The original design expressed this as a document-store aggregation
// pipeline ($lookup into subscriptions twice, then $addFields for the
// counts and a membership test). Here the same field semantics come from
// correlated subqueries: counts are relation cardinality, IsSubscribed is an
// EXISTS membership test against the viewer. viewerID is "" for anonymous
// viewers, which matches no subscription row.
func (db *DB) GetChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	var p model.ChannelProfile

	err := db.conn.QueryRowContext(ctx, `
		SELECT
			u.id,
			u.username,
			u.full_name,
			u.avatar_url,
			u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
			EXISTS (
				SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND s.subscriber_id = ?
			)
		FROM users u
		WHERE u.username = ?`,
		viewerID, strings.ToLower(username),
	).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.CoverImageURL,
		&p.SubscribersCount,
		&p.ChannelsSubscribedToCount,
		&p.IsSubscribed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("channel", username)
		}
		return nil, fmt.Errorf("sqlite: getting channel profile %s: %w", username, err)
	}

	return &p, nil
}

// GetWatchHistory returns the user's history in watch order, joining each
// video with its owner's minimal view. An empty history is an empty slice,
// not an error.
func (db *DB) GetWatchHistory(ctx context.Context, userID string) ([]model.WatchEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			v.id, v.owner_id, v.title, v.thumbnail_url, v.duration_secs, v.views, v.created_at,
			o.full_name, o.username, o.avatar_url
		FROM watch_history h
		JOIN videos v ON v.id = h.video_id
		JOIN users  o ON o.id = v.owner_id
		WHERE h.user_id = ?
		ORDER BY h.position`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting watch history for %s: %w", userID, err)
	}
	defer rows.Close()

	entries := make([]model.WatchEntry, 0)
	for rows.Next() {
		var e model.WatchEntry
		if err := rows.Scan(
			&e.Video.ID,
			&e.Video.OwnerID,
			&e.Video.Title,
			&e.Video.ThumbnailURL,
			&e.Video.DurationSecs,
			&e.Video.Views,
			&e.Video.CreatedAt,
			&e.Owner.FullName,
			&e.Owner.Username,
			&e.Owner.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning watch history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating watch history: %w", err)
	}

	return entries, nil
}

// CreateVideo inserts a video record. The video upload pipeline lives in a
// separate service; this write path exists for that service and for seeding
// the aggregation queries in tests.
func (db *DB) CreateVideo(ctx context.Context, v *model.Video) error {
	v.ID = xid.New().String()
	v.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO videos (id, owner_id, title, thumbnail_url, duration_secs, views, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.OwnerID, v.Title, v.ThumbnailURL, v.DurationSecs, v.Views, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting video %q: %w", v.Title, err)
	}
	return nil
}

// Subscribe records subscriberID following channelID. Subscribing twice is a
// no-op thanks to the composite primary key.
func (db *DB) Subscribe(ctx context.Context, channelID, subscriberID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (channel_id, subscriber_id, created_at)
		 VALUES (?, ?, ?)`,
		channelID, subscriberID, time.Now())
	if err != nil {
		return fmt.Errorf("sqlite: subscribing %s to %s: %w", subscriberID, channelID, err)
	}
	return nil
}

// AddWatchEntry appends a video to the user's watch history.
func (db *DB) AddWatchEntry(ctx context.Context, userID, videoID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO watch_history (user_id, video_id, position, watched_at)
		 VALUES (?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM watch_history WHERE user_id = ?),
			?)`,
		userID, videoID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("sqlite: adding watch entry for %s: %w", userID, err)
	}
	return nil
}
