package service

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Projector keeps the channel_dashboard materialized view in step with the
// history tables after a run writes fresh snapshots.
type Projector struct {
	pool *pgxpool.Pool
}

func NewProjector(pool *pgxpool.Pool) *Projector {
	return &Projector{pool: pool}
}

// Refresh rebuilds the dashboard view. The concurrent refresh keeps readers
// unblocked but needs a unique index; when that fails (first refresh after a
// migration, for instance) the plain refresh is the fallback.
func (p *Projector) Refresh(ctx context.Context) error {
	start := time.Now()

	_, err := p.pool.Exec(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY channel_dashboard`)
	if err != nil {
		log.Printf("projector: concurrent refresh failed, retrying plain: %v", err)
		_, err = p.pool.Exec(ctx, `REFRESH MATERIALIZED VIEW channel_dashboard`)
		if err != nil {
			return err
		}
	}

	log.Printf("projector: channel_dashboard refreshed (%s)", time.Since(start).Round(time.Millisecond))
	return nil
}
