package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccalu/channelpulse/internal/model"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// ActiveRulesAscending returns the active rules ordered by min_views. The
// elevation protocol relies on this ordering: walking rules from the lowest
// threshold up means the last rule a video matches is its highest tier.
func (r *NotificationRepo) ActiveRulesAscending(ctx context.Context) ([]model.NotificationRule, error) {
	query := `
		SELECT id, name, min_views, window_days, kind_filter, subgenres, active
		FROM notification_rules
		WHERE active = TRUE
		ORDER BY min_views ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.NotificationRule
	for rows.Next() {
		var rule model.NotificationRule
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.MinViews, &rule.WindowDays,
			&rule.KindFilter, &rule.Subgenres, &rule.Active,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CandidateVideos returns, for one rule, every video whose freshest snapshot
// inside the rule's window crossed the threshold. Filters on channel kind
// and subgenre are applied here so the notifier only reasons about
// duplication and elevation.
func (r *NotificationRepo) CandidateVideos(ctx context.Context, rule *model.NotificationRule) ([]model.CandidateVideo, error) {
	query := `
		SELECT DISTINCT ON (v.video_id)
		       v.video_id, v.title, v.channel_id, c.name, c.kind,
		       COALESCE(c.subgenre, ''), v.current_views, v.published_at
		FROM videos_history v
		JOIN channels_monitored c ON c.id = v.channel_id
		WHERE v.published_at >= NOW() - make_interval(days => $1)
		  AND v.current_views >= $2
		  AND c.kind <> 'disabled'
		  AND ($3 = 'both' OR c.kind = $3)
		  AND ($4::text[] IS NULL
		       OR TRIM(LOWER(COALESCE(c.subgenre, ''))) = ANY($4))
		ORDER BY v.video_id, v.collection_date DESC`

	var subgenres []string
	for _, s := range rule.Subgenres {
		subgenres = append(subgenres, normalizeSubgenre(s))
	}

	rows, err := r.pool.Query(ctx, query, rule.WindowDays, rule.MinViews, rule.KindFilter, subgenres)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.CandidateVideo
	for rows.Next() {
		var cv model.CandidateVideo
		if err := rows.Scan(
			&cv.VideoID, &cv.Title, &cv.ChannelID, &cv.ChannelName,
			&cv.ChannelKind, &cv.Subgenre, &cv.CurrentViews, &cv.PublishedAt,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, cv)
	}
	return candidates, rows.Err()
}

func normalizeSubgenre(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// UnreadNotification returns the single unseen notification for a video, or
// nil when there is none.
func (r *NotificationRepo) UnreadNotification(ctx context.Context, videoID string) (*model.Notification, error) {
	query := `
		SELECT id, video_id, channel_id, video_title, channel_name, channel_kind,
		       views_reached, window_days, rule_min_views, alert_type, message,
		       seen, fired_at, seen_at
		FROM notifications
		WHERE video_id = $1 AND seen = FALSE
		ORDER BY fired_at DESC
		LIMIT 1`

	var n model.Notification
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&n.ID, &n.VideoID, &n.ChannelID, &n.VideoTitle, &n.ChannelName, &n.ChannelKind,
		&n.ViewsReached, &n.WindowDays, &n.RuleMinViews, &n.AlertType, &n.Message,
		&n.Seen, &n.FiredAt, &n.SeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// SeenTier returns the highest rule threshold the video has already been
// seen at. Each notification stores the threshold of the rule that fired or
// last elevated it, so the answer is exact even when several rules share a
// window. Zero means the video was never acknowledged at any tier.
func (r *NotificationRepo) SeenTier(ctx context.Context, videoID string) (int64, error) {
	query := `
		SELECT COALESCE(MAX(rule_min_views), 0)
		FROM notifications
		WHERE video_id = $1 AND seen = TRUE`

	var tier int64
	err := r.pool.QueryRow(ctx, query, videoID).Scan(&tier)
	return tier, err
}

// CleanupDuplicates collapses multiple unseen notifications per video down
// to the newest one. Returns how many rows were removed.
func (r *NotificationRepo) CleanupDuplicates(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications n
		USING notifications keep
		WHERE n.video_id = keep.video_id
		  AND n.seen = FALSE AND keep.seen = FALSE
		  AND (n.fired_at < keep.fired_at
		       OR (n.fired_at = keep.fired_at AND n.id < keep.id))`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Insert fires a brand-new notification.
func (r *NotificationRepo) Insert(ctx context.Context, n *model.Notification) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO notifications
			(video_id, channel_id, video_title, channel_name, channel_kind,
			 views_reached, window_days, rule_min_views, alert_type, message,
			 seen, fired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, NOW())
		RETURNING id, fired_at`,
		n.VideoID, n.ChannelID, n.VideoTitle, n.ChannelName, n.ChannelKind,
		n.ViewsReached, n.WindowDays, n.RuleMinViews, n.AlertType, n.Message,
	).Scan(&n.ID, &n.FiredAt)
}

// Elevate rewrites an existing unseen notification in place with a higher
// tier's numbers instead of stacking a second row for the same video.
func (r *NotificationRepo) Elevate(ctx context.Context, id int64, viewsReached int64, windowDays int, ruleMinViews int64, alertType, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET views_reached = $2, window_days = $3, rule_min_views = $4,
		    alert_type = $5, message = $6, fired_at = NOW()
		WHERE id = $1`, id, viewsReached, windowDays, ruleMinViews, alertType, message)
	return err
}

// MarkSeen acknowledges a notification.
func (r *NotificationRepo) MarkSeen(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET seen = TRUE, seen_at = NOW()
		WHERE id = $1 AND seen = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkAllSeen acknowledges every unseen notification and reports the count.
func (r *NotificationRepo) MarkAllSeen(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET seen = TRUE, seen_at = NOW()
		WHERE seen = FALSE`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Stats summarizes the feed: totals plus recent activity windows.
func (r *NotificationRepo) Stats(ctx context.Context) (*model.NotificationStats, error) {
	var s model.NotificationStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE seen = FALSE),
		       COUNT(*) FILTER (WHERE fired_at >= NOW() - INTERVAL '24 hours'),
		       COUNT(*) FILTER (WHERE fired_at >= NOW() - INTERVAL '7 days')
		FROM notifications`).Scan(&s.Total, &s.Unseen, &s.Last24h, &s.Last7Days)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Feed lists notifications newest first, optionally only unseen ones.
func (r *NotificationRepo) Feed(ctx context.Context, unseenOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, video_id, channel_id, video_title, channel_name, channel_kind,
		       views_reached, window_days, rule_min_views, alert_type, message,
		       seen, fired_at, seen_at
		FROM notifications
		WHERE ($1 = FALSE OR seen = FALSE)
		ORDER BY fired_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, unseenOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID, &n.VideoID, &n.ChannelID, &n.VideoTitle, &n.ChannelName, &n.ChannelKind,
			&n.ViewsReached, &n.WindowDays, &n.RuleMinViews, &n.AlertType, &n.Message,
			&n.Seen, &n.FiredAt, &n.SeenAt,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteOlderThan purges notifications past the retention window.
func (r *NotificationRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE fired_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreateRule inserts a notification rule.
func (r *NotificationRepo) CreateRule(ctx context.Context, rule *model.NotificationRule) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO notification_rules (name, min_views, window_days, kind_filter, subgenres, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		rule.Name, rule.MinViews, rule.WindowDays, rule.KindFilter, rule.Subgenres, rule.Active,
	).Scan(&rule.ID)
}

// UpdateRule rewrites a notification rule.
func (r *NotificationRepo) UpdateRule(ctx context.Context, rule *model.NotificationRule) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notification_rules
		SET name = $2, min_views = $3, window_days = $4,
		    kind_filter = $5, subgenres = $6, active = $7
		WHERE id = $1`,
		rule.ID, rule.Name, rule.MinViews, rule.WindowDays,
		rule.KindFilter, rule.Subgenres, rule.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteRule removes a notification rule.
func (r *NotificationRepo) DeleteRule(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notification_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListRules returns all rules, lowest threshold first.
func (r *NotificationRepo) ListRules(ctx context.Context) ([]model.NotificationRule, error) {
	query := `
		SELECT id, name, min_views, window_days, kind_filter, subgenres, active
		FROM notification_rules
		ORDER BY min_views ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.NotificationRule
	for rows.Next() {
		var rule model.NotificationRule
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.MinViews, &rule.WindowDays,
			&rule.KindFilter, &rule.Subgenres, &rule.Active,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
