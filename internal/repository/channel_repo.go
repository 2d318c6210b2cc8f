package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccalu/channelpulse/internal/model"
)

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

// ListForCollection returns the active channels in a stable order so
// successive runs walk the roster identically.
func (r *ChannelRepo) ListForCollection(ctx context.Context) ([]model.Channel, error) {
	query := `
		SELECT id, url, name, kind, subgenre, language, status, monetized,
		       last_collection_at, consecutive_failures, last_error
		FROM channels_monitored
		WHERE status = 'active' AND kind <> 'disabled'
		ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var ch model.Channel
		if err := rows.Scan(
			&ch.ID, &ch.URL, &ch.Name, &ch.Kind, &ch.Subgenre, &ch.Language,
			&ch.Status, &ch.Monetized, &ch.LastCollectionAt,
			&ch.ConsecutiveFailures, &ch.LastError,
		); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// FindByID returns a single monitored channel.
func (r *ChannelRepo) FindByID(ctx context.Context, id int64) (*model.Channel, error) {
	query := `
		SELECT id, url, name, kind, subgenre, language, status, monetized,
		       last_collection_at, consecutive_failures, last_error
		FROM channels_monitored
		WHERE id = $1`

	var ch model.Channel
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ch.ID, &ch.URL, &ch.Name, &ch.Kind, &ch.Subgenre, &ch.Language,
		&ch.Status, &ch.Monetized, &ch.LastCollectionAt,
		&ch.ConsecutiveFailures, &ch.LastError,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// MarkCollectionSuccess stamps the channel and clears its failure streak.
func (r *ChannelRepo) MarkCollectionSuccess(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE channels_monitored
		SET last_collection_at = NOW(), consecutive_failures = 0, last_error = NULL
		WHERE id = $1`, id)
	return err
}

// MarkCollectionFailure bumps the failure streak and records the error,
// truncated so a runaway message cannot bloat the row.
func (r *ChannelRepo) MarkCollectionFailure(ctx context.Context, id int64, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE channels_monitored
		SET consecutive_failures = consecutive_failures + 1, last_error = $2
		WHERE id = $1`, id, truncate(errMsg, 500))
	return err
}

// ListProblemChannels returns channels with repeated consecutive failures,
// worst offenders first.
func (r *ChannelRepo) ListProblemChannels(ctx context.Context, minFailures int) ([]model.Channel, error) {
	query := `
		SELECT id, url, name, kind, subgenre, language, status, monetized,
		       last_collection_at, consecutive_failures, last_error
		FROM channels_monitored
		WHERE consecutive_failures >= $1
		ORDER BY consecutive_failures DESC, id ASC`

	rows, err := r.pool.Query(ctx, query, minFailures)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var ch model.Channel
		if err := rows.Scan(
			&ch.ID, &ch.URL, &ch.Name, &ch.Kind, &ch.Subgenre, &ch.Language,
			&ch.Status, &ch.Monetized, &ch.LastCollectionAt,
			&ch.ConsecutiveFailures, &ch.LastError,
		); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// ListStale returns active channels whose last collection is older than the
// given number of hours (or was never stamped).
func (r *ChannelRepo) ListStale(ctx context.Context, hours int) ([]model.Channel, error) {
	query := `
		SELECT id, url, name, kind, subgenre, language, status, monetized,
		       last_collection_at, consecutive_failures, last_error
		FROM channels_monitored
		WHERE status = 'active'
		  AND (last_collection_at IS NULL OR last_collection_at < NOW() - make_interval(hours => $1))
		ORDER BY last_collection_at ASC NULLS FIRST`

	rows, err := r.pool.Query(ctx, query, hours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var ch model.Channel
		if err := rows.Scan(
			&ch.ID, &ch.URL, &ch.Name, &ch.Kind, &ch.Subgenre, &ch.Language,
			&ch.Status, &ch.Monetized, &ch.LastCollectionAt,
			&ch.ConsecutiveFailures, &ch.LastError,
		); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// TableRows builds the dashboard view: each channel joined to its most
// recent snapshot, with week-over-week and month-over-month view growth.
func (r *ChannelRepo) TableRows(ctx context.Context) ([]model.ChannelTableRow, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (channel_id)
			       channel_id, collection_date, subscribers, subscribers_diff,
			       views_30d, views_15d, views_7d, videos_published_7d, engagement_rate
			FROM channel_history
			ORDER BY channel_id, collection_date DESC
		),
		prior7 AS (
			SELECT DISTINCT ON (h.channel_id) h.channel_id, h.views_7d
			FROM channel_history h
			JOIN latest l ON l.channel_id = h.channel_id
			WHERE h.collection_date <= l.collection_date - INTERVAL '7 days'
			ORDER BY h.channel_id, h.collection_date DESC
		),
		prior30 AS (
			SELECT DISTINCT ON (h.channel_id) h.channel_id, h.views_30d
			FROM channel_history h
			JOIN latest l ON l.channel_id = h.channel_id
			WHERE h.collection_date <= l.collection_date - INTERVAL '30 days'
			ORDER BY h.channel_id, h.collection_date DESC
		)
		SELECT c.id, c.url, c.name, c.kind, c.subgenre, c.language, c.status,
		       c.monetized, c.last_collection_at, c.consecutive_failures, c.last_error,
		       COALESCE(l.subscribers, 0), l.subscribers_diff,
		       COALESCE(l.views_30d, 0), COALESCE(l.views_15d, 0), COALESCE(l.views_7d, 0),
		       COALESCE(l.videos_published_7d, 0), COALESCE(l.engagement_rate, 0),
		       p7.views_7d, p30.views_30d
		FROM channels_monitored c
		LEFT JOIN latest  l   ON l.channel_id  = c.id
		LEFT JOIN prior7  p7  ON p7.channel_id = c.id
		LEFT JOIN prior30 p30 ON p30.channel_id = c.id
		WHERE c.kind <> 'disabled'
		ORDER BY COALESCE(l.views_30d, 0) DESC, c.id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChannelTableRow
	for rows.Next() {
		var row model.ChannelTableRow
		var prior7Views, prior30Views *int64
		if err := rows.Scan(
			&row.ID, &row.URL, &row.Name, &row.Kind, &row.Subgenre, &row.Language,
			&row.Status, &row.Monetized, &row.LastCollectionAt,
			&row.ConsecutiveFailures, &row.LastError,
			&row.Subscribers, &row.SubscribersDiff,
			&row.Views30d, &row.Views15d, &row.Views7d,
			&row.VideosPublished7d, &row.EngagementRate,
			&prior7Views, &prior30Views,
		); err != nil {
			return nil, err
		}
		row.Score = ComputeChannelScorePure(row.Views30d, row.Views7d, row.Subscribers)
		row.ViewsGrowth7d = growthPct(row.Views7d, prior7Views)
		row.ViewsGrowth30d = growthPct(row.Views30d, prior30Views)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ComputeChannelScorePure scores a channel by views relative to its
// subscriber base, weighting the 30-day window heavier than the 7-day one.
func ComputeChannelScorePure(views30d, views7d, subscribers int64) float64 {
	if subscribers <= 0 {
		return 0
	}
	score := (float64(views30d)/float64(subscribers))*0.7 +
		(float64(views7d)/float64(subscribers))*0.3
	return score
}

func growthPct(current int64, prior *int64) *float64 {
	if prior == nil || *prior <= 0 {
		return nil
	}
	pct := (float64(current) - float64(*prior)) / float64(*prior) * 100
	return &pct
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
