package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccalu/channelpulse/internal/model"
)

// ErrEmptySnapshot is returned when every windowed view count is zero,
// which means the fetch silently failed and nothing should be written.
var ErrEmptySnapshot = errors.New("repository: snapshot has no views in any window")

type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// SaveCollection persists one channel's daily snapshot and its video rows
// in a single transaction. Re-running the same day overwrites in place, so
// a retried run never duplicates rows. Owned channels get subscribers_diff
// computed against yesterday's row inside the same transaction.
func (r *SnapshotRepo) SaveCollection(ctx context.Context, channel *model.Channel, snap *model.ChannelSnapshot, videos []model.VideoSnapshot) error {
	if snap.AllViewsZero() {
		return ErrEmptySnapshot
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if channel.Kind == model.KindOwned {
		var prevSubs int64
		var yesterday *int64
		err := tx.QueryRow(ctx, `
			SELECT subscribers FROM channel_history
			WHERE channel_id = $1 AND collection_date = $2::date - 1`,
			snap.ChannelID, snap.CollectionDate).Scan(&prevSubs)
		switch {
		case err == nil:
			yesterday = &prevSubs
		case errors.Is(err, pgx.ErrNoRows):
			// No row for yesterday: the diff is zero, not missing.
		default:
			return err
		}
		snap.SubscribersDiff = DeriveSubscribersDiff(channel.Kind, snap.Subscribers, yesterday)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO channel_history
			(channel_id, collection_date, subscribers, subscribers_diff,
			 views_30d, views_15d, views_7d, videos_published_7d, engagement_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (channel_id, collection_date) DO UPDATE
		SET subscribers = EXCLUDED.subscribers,
		    subscribers_diff = EXCLUDED.subscribers_diff,
		    views_30d = EXCLUDED.views_30d,
		    views_15d = EXCLUDED.views_15d,
		    views_7d = EXCLUDED.views_7d,
		    videos_published_7d = EXCLUDED.videos_published_7d,
		    engagement_rate = EXCLUDED.engagement_rate`,
		snap.ChannelID, snap.CollectionDate, snap.Subscribers, snap.SubscribersDiff,
		snap.Views30d, snap.Views15d, snap.Views7d, snap.VideosPublished7d, snap.EngagementRate)
	if err != nil {
		return err
	}

	for _, v := range videos {
		_, err = tx.Exec(ctx, `
			INSERT INTO videos_history
				(video_id, channel_id, collection_date, title, url,
				 published_at, current_views, likes, comments, duration_seconds)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (video_id, collection_date) DO UPDATE
			SET title = EXCLUDED.title,
			    current_views = EXCLUDED.current_views,
			    likes = EXCLUDED.likes,
			    comments = EXCLUDED.comments,
			    duration_seconds = EXCLUDED.duration_seconds`,
			v.VideoID, v.ChannelID, v.CollectionDate, v.Title, v.URL,
			v.PublishedAt, v.CurrentViews, v.Likes, v.Comments, v.DurationSeconds)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeriveSubscribersDiff computes the day-over-day subscriber change. Only
// owned channels track the diff; mined channels get NULL. An owned channel
// with no snapshot for yesterday gets 0, so the first collection day and a
// gap after downtime both show a flat day rather than a hole.
func DeriveSubscribersDiff(kind string, subscribers int64, yesterday *int64) *int64 {
	if kind != model.KindOwned {
		return nil
	}
	diff := int64(0)
	if yesterday != nil {
		diff = subscribers - *yesterday
	}
	return &diff
}

// SaveComments upserts harvested comments for a video.
func (r *SnapshotRepo) SaveComments(ctx context.Context, comments []model.Comment) error {
	for _, c := range comments {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO video_comments
				(comment_id, video_id, author_name, author_channel_id, text,
				 like_count, published_at, is_reply, parent_comment_id, reply_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (comment_id) DO UPDATE
			SET text = EXCLUDED.text,
			    like_count = EXCLUDED.like_count,
			    reply_count = EXCLUDED.reply_count`,
			c.CommentID, c.VideoID, c.AuthorName, nullable(c.AuthorChannelID), c.Text,
			c.LikeCount, c.PublishedAt, c.IsReply, nullable(c.ParentCommentID), c.ReplyCount)
		if err != nil {
			return err
		}
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot for a channel.
func (r *SnapshotRepo) LatestSnapshot(ctx context.Context, channelID int64) (*model.ChannelSnapshot, error) {
	query := `
		SELECT channel_id, collection_date, subscribers, subscribers_diff,
		       views_30d, views_15d, views_7d, videos_published_7d, engagement_rate
		FROM channel_history
		WHERE channel_id = $1
		ORDER BY collection_date DESC
		LIMIT 1`

	var snap model.ChannelSnapshot
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&snap.ChannelID, &snap.CollectionDate, &snap.Subscribers, &snap.SubscribersDiff,
		&snap.Views30d, &snap.Views15d, &snap.Views7d,
		&snap.VideosPublished7d, &snap.EngagementRate,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// History returns a channel's snapshots within the last N days, oldest first.
func (r *SnapshotRepo) History(ctx context.Context, channelID int64, days int) ([]model.ChannelSnapshot, error) {
	query := `
		SELECT channel_id, collection_date, subscribers, subscribers_diff,
		       views_30d, views_15d, views_7d, videos_published_7d, engagement_rate
		FROM channel_history
		WHERE channel_id = $1 AND collection_date >= $2
		ORDER BY collection_date ASC`

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := r.pool.Query(ctx, query, channelID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []model.ChannelSnapshot
	for rows.Next() {
		var snap model.ChannelSnapshot
		if err := rows.Scan(
			&snap.ChannelID, &snap.CollectionDate, &snap.Subscribers, &snap.SubscribersDiff,
			&snap.Views30d, &snap.Views15d, &snap.Views7d,
			&snap.VideosPublished7d, &snap.EngagementRate,
		); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// PurgeHistory deletes snapshot rows older than the retention window and
// returns how many went away.
func (r *SnapshotRepo) PurgeHistory(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	tagVideos, err := r.pool.Exec(ctx,
		`DELETE FROM videos_history WHERE collection_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	tagChannels, err := r.pool.Exec(ctx,
		`DELETE FROM channel_history WHERE collection_date < $1`, cutoff)
	if err != nil {
		return tagVideos.RowsAffected(), err
	}
	return tagVideos.RowsAffected() + tagChannels.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
