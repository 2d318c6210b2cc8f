package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ccalu/channelpulse/internal/metrics"
	"github.com/ccalu/channelpulse/internal/model"
	"github.com/ccalu/channelpulse/pkg/format"
)

// NotifyAction is what the engine decides to do for one candidate video.
type NotifyAction int

const (
	ActionSkip NotifyAction = iota
	ActionInsert
	ActionElevate
)

// notificationStore is the slice of the notification repository the engine
// needs. *repository.NotificationRepo satisfies it.
type notificationStore interface {
	CleanupDuplicates(ctx context.Context) (int64, error)
	ActiveRulesAscending(ctx context.Context) ([]model.NotificationRule, error)
	CandidateVideos(ctx context.Context, rule *model.NotificationRule) ([]model.CandidateVideo, error)
	SeenTier(ctx context.Context, videoID string) (int64, error)
	UnreadNotification(ctx context.Context, videoID string) (*model.Notification, error)
	Insert(ctx context.Context, n *model.Notification) error
	Elevate(ctx context.Context, id int64, viewsReached int64, windowDays int, ruleMinViews int64, alertType, message string) error
}

// NotifierStats summarizes one notification pass.
type NotifierStats struct {
	DuplicatesRemoved int64
	Inserted          int
	Elevated          int
	Skipped           int
	Errors            int
}

// Notifier evaluates notification rules against fresh snapshots and emits
// alerts while holding two invariants: at most one unseen notification per
// video, and a video never re-alerts at a tier it was already seen at.
type Notifier struct {
	notifications notificationStore
	log           zerolog.Logger
}

func NewNotifier(notifications notificationStore, logger zerolog.Logger) *Notifier {
	return &Notifier{notifications: notifications, log: logger}
}

// Run executes one full notification pass. Rules are walked in ascending
// min_views order, so when a video matches several tiers its single unseen
// notification ends the pass elevated to the highest matched tier. Per-video
// failures are logged and counted but never stop the sweep; only the cleanup
// and rule-loading steps can fail the pass outright.
func (n *Notifier) Run(ctx context.Context) (*NotifierStats, error) {
	stats := &NotifierStats{}

	removed, err := n.notifications.CleanupDuplicates(ctx)
	if err != nil {
		return stats, err
	}
	stats.DuplicatesRemoved = removed
	if removed > 0 {
		n.log.Warn().Int64("removed", removed).Msg("collapsed duplicate unseen notifications")
	}

	rules, err := n.notifications.ActiveRulesAscending(ctx)
	if err != nil {
		return stats, err
	}

	for i := range rules {
		rule := &rules[i]
		candidates, err := n.notifications.CandidateVideos(ctx, rule)
		if err != nil {
			stats.Errors++
			n.log.Error().Err(err).Str("rule", rule.Name).Msg("candidate query failed, skipping rule")
			continue
		}
		for j := range candidates {
			if err := n.process(ctx, rule, &candidates[j], stats); err != nil {
				stats.Errors++
				n.log.Error().Err(err).
					Str("rule", rule.Name).
					Str("video_id", candidates[j].VideoID).
					Msg("candidate processing failed, continuing sweep")
			}
		}
	}

	n.log.Info().
		Int("inserted", stats.Inserted).
		Int("elevated", stats.Elevated).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Msg("notification pass complete")
	return stats, nil
}

func (n *Notifier) process(ctx context.Context, rule *model.NotificationRule, cv *model.CandidateVideo, stats *NotifierStats) error {
	seenTier, err := n.notifications.SeenTier(ctx, cv.VideoID)
	if err != nil {
		return err
	}

	unread, err := n.notifications.UnreadNotification(ctx, cv.VideoID)
	if err != nil {
		return err
	}

	var unreadTier int64
	if unread != nil {
		unreadTier = unread.RuleMinViews
	}

	switch DecideNotifyAction(rule.MinViews, unread != nil, unreadTier, seenTier) {
	case ActionInsert:
		notif := &model.Notification{
			VideoID:      cv.VideoID,
			ChannelID:    cv.ChannelID,
			VideoTitle:   cv.Title,
			ChannelName:  cv.ChannelName,
			ChannelKind:  cv.ChannelKind,
			ViewsReached: cv.CurrentViews,
			WindowDays:   rule.WindowDays,
			RuleMinViews: rule.MinViews,
			AlertType:    format.AlertType(rule.WindowDays),
			Message:      format.BuildAlertMessage(cv.Title, cv.ChannelName, cv.CurrentViews, rule.WindowDays),
		}
		if err := n.notifications.Insert(ctx, notif); err != nil {
			return err
		}
		stats.Inserted++
		metrics.NotificationsFired.WithLabelValues("inserted").Inc()

	case ActionElevate:
		message := format.BuildAlertMessage(cv.Title, cv.ChannelName, cv.CurrentViews, rule.WindowDays)
		if err := n.notifications.Elevate(ctx, unread.ID, cv.CurrentViews, rule.WindowDays,
			rule.MinViews, format.AlertType(rule.WindowDays), message); err != nil {
			return err
		}
		stats.Elevated++
		metrics.NotificationsFired.WithLabelValues("elevated").Inc()

	default:
		stats.Skipped++
		metrics.NotificationsFired.WithLabelValues("skipped").Inc()
	}
	return nil
}

// DecideNotifyAction is the pure tier logic:
//
//	seen at this tier or higher        -> skip
//	no unseen notification             -> insert
//	unseen at a lower tier             -> elevate in place
//	unseen at this tier or higher      -> skip
func DecideNotifyAction(ruleMinViews int64, hasUnread bool, unreadTier, seenTier int64) NotifyAction {
	if seenTier >= ruleMinViews {
		return ActionSkip
	}
	if !hasUnread {
		return ActionInsert
	}
	if ruleMinViews > unreadTier {
		return ActionElevate
	}
	return ActionSkip
}
