package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccalu/channelpulse/internal/metrics"
	"github.com/ccalu/channelpulse/internal/model"
	"github.com/ccalu/channelpulse/internal/repository"
	"github.com/ccalu/channelpulse/internal/youtube"
)

// ErrRunInProgress means another collection run holds the lock.
var ErrRunInProgress = errors.New("service: a collection run is already in progress")

const (
	staleRunHours            = 2
	progressEvery            = 10
	retentionHistoryDays     = 60
	retentionNotifyDays      = 30
	retentionMinSuccessRatio = 0.5
	maxCommentsPerVideo      = 200
)

// RunService orchestrates a full collection run: lock, walk the roster,
// persist snapshots, fire notifications, refresh the dashboard, clean up.
type RunService struct {
	channels      *repository.ChannelRepo
	snapshots     *repository.SnapshotRepo
	runs          *repository.RunRepo
	notifications *repository.NotificationRepo
	collector     *Collector
	notifier      *Notifier
	projector     *Projector
	cache         *CacheService
	log           zerolog.Logger
}

func NewRunService(
	channels *repository.ChannelRepo,
	snapshots *repository.SnapshotRepo,
	runs *repository.RunRepo,
	notifications *repository.NotificationRepo,
	collector *Collector,
	notifier *Notifier,
	projector *Projector,
	cache *CacheService,
	logger zerolog.Logger,
) *RunService {
	return &RunService{
		channels:      channels,
		snapshots:     snapshots,
		runs:          runs,
		notifications: notifications,
		collector:     collector,
		notifier:      notifier,
		projector:     projector,
		cache:         cache,
		log:           logger,
	}
}

// Execute performs one complete collection run. It returns ErrRunInProgress
// when a live run already holds the lock. Stale locks from crashed processes
// are swept first so one crash never wedges collection permanently.
func (s *RunService) Execute(ctx context.Context) (*model.CollectionRun, error) {
	swept, err := s.runs.SweepStale(ctx, staleRunHours)
	if err != nil {
		return nil, err
	}
	if swept > 0 {
		s.log.Warn().Int64("swept", swept).Msg("closed stale collection runs")
	}

	active, err := s.runs.HasActiveRun(ctx)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrRunInProgress
	}

	roster, err := s.channels.ListForCollection(ctx)
	if err != nil {
		return nil, err
	}

	runID, err := s.runs.Create(ctx, len(roster))
	if err != nil {
		return nil, err
	}
	run := &model.CollectionRun{ID: runID, StartedAt: time.Now().UTC(), ChannelsTotal: len(roster)}

	s.log.Info().Int64("run_id", runID).Int("channels", len(roster)).Msg("collection run started")
	s.collector.ResetForRun(time.Now())

	var abortMsg string
	for i := range roster {
		channel := &roster[i]

		err := s.collectOne(ctx, channel, run)
		switch {
		case err == nil:
			run.ChannelsSuccess++
			metrics.ChannelsCollected.WithLabelValues("success").Inc()
		case isNoCredential(err):
			run.ChannelsError++
			metrics.ChannelsCollected.WithLabelValues("failed").Inc()
			abortMsg = fmt.Sprintf("run aborted at channel %q: %v", channel.Name, err)
			s.log.Error().Str("channel", channel.Name).Err(err).Msg("all credentials unavailable, aborting run")
		default:
			run.ChannelsError++
			metrics.ChannelsCollected.WithLabelValues("failed").Inc()
			s.log.Error().Str("channel", channel.Name).Err(err).Msg("channel collection failed")
			if markErr := s.channels.MarkCollectionFailure(ctx, channel.ID, err.Error()); markErr != nil {
				s.log.Error().Err(markErr).Msg("failed to record channel failure")
			}
		}
		if abortMsg != "" {
			break
		}

		if (i+1)%progressEvery == 0 {
			run.UnitsSpent = s.collector.gateway.Pool().TotalUnits()
			if err := s.runs.UpdateProgress(ctx, runID, run.ChannelsSuccess, run.ChannelsError,
				run.VideosCollected, run.UnitsSpent); err != nil {
				s.log.Error().Err(err).Msg("failed to update run progress")
			}
		}
	}

	if run.ChannelsSuccess > 0 {
		if _, err := s.notifier.Run(ctx); err != nil {
			s.log.Error().Err(err).Msg("notification pass failed")
		}
		if err := s.projector.Refresh(ctx); err != nil {
			s.log.Error().Err(err).Msg("dashboard refresh failed")
		}
		s.cache.Invalidate(ctx)
	}

	s.runRetention(ctx, run)

	run.Status = model.DeriveRunStatus(run.ChannelsSuccess, run.ChannelsError)
	run.UnitsSpent = s.collector.gateway.Pool().TotalUnits()
	if abortMsg != "" {
		run.ErrorMessage = &abortMsg
	}
	metrics.RunsTotal.WithLabelValues(run.Status).Inc()
	metrics.RunDuration.Observe(time.Since(run.StartedAt).Seconds())
	if err := s.runs.Finish(ctx, run); err != nil {
		return run, err
	}

	s.log.Info().
		Int64("run_id", runID).
		Str("status", run.Status).
		Int("success", run.ChannelsSuccess).
		Int("failed", run.ChannelsError).
		Int("videos", run.VideosCollected).
		Int("units", run.UnitsSpent).
		Msg("collection run finished")
	return run, nil
}

func (s *RunService) collectOne(ctx context.Context, channel *model.Channel, run *model.CollectionRun) error {
	result, err := s.collector.CollectChannel(ctx, channel, time.Now())
	if err != nil {
		return err
	}

	err = s.snapshots.SaveCollection(ctx, channel, result.Snapshot, result.Videos)
	if errors.Is(err, repository.ErrEmptySnapshot) {
		return fmt.Errorf("collection for %q produced no views in any window", channel.Name)
	}
	if err != nil {
		return err
	}

	if channel.Kind == model.KindOwned {
		s.harvestComments(ctx, channel, result.Videos)
	}

	run.VideosCollected += len(result.Videos)
	return s.channels.MarkCollectionSuccess(ctx, channel.ID)
}

// harvestComments pulls comments for an owned channel's fresh videos. Comment
// failures never fail the channel: the snapshot is already committed.
func (s *RunService) harvestComments(ctx context.Context, channel *model.Channel, videos []model.VideoSnapshot) {
	now := time.Now()
	for i := range videos {
		if videos[i].AgeDays(now) > 7 {
			continue
		}
		comments, err := s.collector.HarvestComments(ctx, videos[i].VideoID, maxCommentsPerVideo, channel.Name)
		if err != nil {
			s.log.Warn().Err(err).Str("video_id", videos[i].VideoID).Msg("comment harvest failed")
			continue
		}
		if len(comments) == 0 {
			continue
		}
		if err := s.snapshots.SaveComments(ctx, comments); err != nil {
			s.log.Warn().Err(err).Str("video_id", videos[i].VideoID).Msg("comment save failed")
		}
	}
}

// runRetention purges old history, but only when collection has been mostly
// healthy lately. An unhealthy pipeline keeps its evidence.
func (s *RunService) runRetention(ctx context.Context, run *model.CollectionRun) {
	if run.ChannelsTotal > 0 &&
		float64(run.ChannelsSuccess)/float64(run.ChannelsTotal) < retentionMinSuccessRatio {
		s.log.Warn().Msg("skipping retention cleanup, run success ratio below threshold")
		return
	}

	if purged, err := s.snapshots.PurgeHistory(ctx, retentionHistoryDays); err != nil {
		s.log.Error().Err(err).Msg("history retention failed")
	} else if purged > 0 {
		s.log.Info().Int64("rows", purged).Msg("purged old history rows")
	}

	if purged, err := s.notifications.DeleteOlderThan(ctx, retentionNotifyDays); err != nil {
		s.log.Error().Err(err).Msg("notification retention failed")
	} else if purged > 0 {
		s.log.Info().Int64("rows", purged).Msg("purged old notifications")
	}

	if purged, err := s.runs.PurgeFinished(ctx, retentionHistoryDays, retentionMinSuccessRatio); err != nil {
		s.log.Error().Err(err).Msg("run history retention failed")
	} else if purged > 0 {
		s.log.Info().Int64("rows", purged).Msg("purged old run rows")
	}
}

// PoolStats exposes the credential pool accounting for the quota endpoint.
func (s *RunService) PoolStats() youtube.PoolStats {
	return s.collector.gateway.Pool().Stats()
}

func isNoCredential(err error) bool {
	kind, ok := youtube.FaultKindOf(err)
	return ok && (kind == youtube.FaultNoCredential || kind == youtube.FaultQuotaExhausted)
}
