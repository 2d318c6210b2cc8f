package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccalu/channelpulse/internal/model"
)

type RunRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// SweepStale closes in_progress runs older than the given number of hours.
// A crashed process leaves its lock row behind; without this sweep a single
// crash would block collection forever.
func (r *RunRepo) SweepStale(ctx context.Context, hours int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE collection_history
		SET status = 'error', finished_at = NOW(),
		    error_message = 'run abandoned: exceeded stale threshold'
		WHERE status = 'in_progress'
		  AND started_at < NOW() - make_interval(hours => $1)`, hours)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// HasActiveRun reports whether a live in_progress row exists.
func (r *RunRepo) HasActiveRun(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM collection_history WHERE status = 'in_progress')`,
	).Scan(&exists)
	return exists, err
}

// Create opens a new run row, which doubles as the run lock.
func (r *RunRepo) Create(ctx context.Context, channelsTotal int) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO collection_history (started_at, status, channels_total)
		VALUES (NOW(), 'in_progress', $1)
		RETURNING id`, channelsTotal).Scan(&id)
	return id, err
}

// UpdateProgress refreshes the live tallies of an in-flight run.
func (r *RunRepo) UpdateProgress(ctx context.Context, id int64, success, failed, videos, units int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE collection_history
		SET channels_success = $2, channels_error = $3,
		    videos_collected = $4, units_spent = $5
		WHERE id = $1`, id, success, failed, videos, units)
	return err
}

// Finish closes a run with its final status and tallies.
func (r *RunRepo) Finish(ctx context.Context, run *model.CollectionRun) error {
	var errMsg *string
	if run.ErrorMessage != nil {
		t := truncate(*run.ErrorMessage, 500)
		errMsg = &t
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE collection_history
		SET finished_at = NOW(), status = $2,
		    channels_success = $3, channels_error = $4,
		    videos_collected = $5, units_spent = $6,
		    duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::int,
		    error_message = $7
		WHERE id = $1`,
		run.ID, run.Status, run.ChannelsSuccess, run.ChannelsError,
		run.VideosCollected, run.UnitsSpent, errMsg)
	return err
}

// List returns the most recent runs, newest first.
func (r *RunRepo) List(ctx context.Context, limit int) ([]model.CollectionRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 30
	}
	query := `
		SELECT id, started_at, finished_at, status, channels_total,
		       channels_success, channels_error, videos_collected,
		       units_spent, COALESCE(duration_seconds, 0), error_message
		FROM collection_history
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.CollectionRun
	for rows.Next() {
		var run model.CollectionRun
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.ChannelsTotal,
			&run.ChannelsSuccess, &run.ChannelsError, &run.VideosCollected,
			&run.UnitsSpent, &run.DurationSeconds, &run.ErrorMessage,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UnitsSpentToday sums quota units charged by runs started since UTC midnight.
func (r *RunRepo) UnitsSpentToday(ctx context.Context) (int, error) {
	var units int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(units_spent), 0)
		FROM collection_history
		WHERE started_at >= date_trunc('day', NOW() AT TIME ZONE 'utc')`,
	).Scan(&units)
	return units, err
}

// PurgeFinished deletes finished run rows older than the retention window,
// but only when the recent success ratio clears the threshold. Retention
// must never erase history while the pipeline is unhealthy, or the evidence
// of what went wrong goes with it.
func (r *RunRepo) PurgeFinished(ctx context.Context, olderThanDays int, minSuccessRatio float64) (int64, error) {
	var total, healthy int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('success', 'partial'))
		FROM collection_history
		WHERE started_at >= NOW() - INTERVAL '7 days'
		  AND status <> 'in_progress'`,
	).Scan(&total, &healthy)
	if err != nil {
		return 0, err
	}
	if total > 0 && float64(healthy)/float64(total) < minSuccessRatio {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM collection_history
		WHERE status <> 'in_progress'
		  AND started_at < NOW() - make_interval(days => $1)`, olderThanDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
