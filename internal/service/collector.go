package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccalu/channelpulse/internal/model"
	"github.com/ccalu/channelpulse/internal/youtube"
)

// searchWindowDays is how far back the per-channel video search reaches.
// The 15 and 7 day windows are carved out of the same result set.
const searchWindowDays = 30

// CollectResult is everything one channel pass produced, ready to persist.
type CollectResult struct {
	Snapshot *model.ChannelSnapshot
	Videos   []model.VideoSnapshot
}

// Collector fetches one channel's daily numbers through the API gateway.
type Collector struct {
	gateway  *youtube.Gateway
	resolver *youtube.Resolver
	log      zerolog.Logger
}

func NewCollector(gateway *youtube.Gateway, resolver *youtube.Resolver, logger zerolog.Logger) *Collector {
	return &Collector{gateway: gateway, resolver: resolver, log: logger}
}

// ResetForRun prepares the credential pool for a fresh run: suspended keys
// get another chance, keys exhausted on a previous UTC day come back, and
// per-run accounting starts from zero.
func (c *Collector) ResetForRun(now time.Time) {
	pool := c.gateway.Pool()
	revived := pool.ResetSuspended()
	recovered := pool.ResetDaily(now.UTC())
	pool.ResetAccounting()
	c.log.Info().
		Int("suspended_revived", revived).
		Int("exhausted_recovered", recovered).
		Int("active_keys", pool.ActiveCount()).
		Msg("credential pool reset for run")
}

// CollectChannel runs the full pipeline for one channel: resolve its URL,
// fetch channel statistics, enumerate videos published in the last 30 days,
// batch-fetch their counters, and aggregate the sliding windows.
func (c *Collector) CollectChannel(ctx context.Context, channel *model.Channel, now time.Time) (*CollectResult, error) {
	label := channel.Name
	c.gateway.Pool().Rotate()

	channelID, err := c.resolver.Resolve(ctx, channel.URL, label)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", channel.URL, err)
	}

	info, err := c.gateway.FetchChannelInfo(ctx, channelID, label)
	if err != nil {
		return nil, fmt.Errorf("channel info for %s: %w", channelID, err)
	}

	videos, err := c.fetchRecentVideos(ctx, channelID, channel.ID, now, label)
	if err != nil {
		return nil, err
	}

	views7, views15, views30, published7 := AggregateWindows(videos, now)
	snap := &model.ChannelSnapshot{
		ChannelID:         channel.ID,
		CollectionDate:    dateOnly(now),
		Subscribers:       info.SubscriberCount,
		Views30d:          views30,
		Views15d:          views15,
		Views7d:           views7,
		VideosPublished7d: published7,
		EngagementRate:    EngagementRate(videos),
	}

	c.log.Info().
		Str("channel", label).
		Int("videos", len(videos)).
		Int64("views_7d", views7).
		Int64("views_30d", views30).
		Msg("channel collected")

	return &CollectResult{Snapshot: snap, Videos: videos}, nil
}

// fetchRecentVideos pages search.list back 30 days, then resolves counters
// for every hit with batched videos.list calls.
func (c *Collector) fetchRecentVideos(ctx context.Context, channelID string, monitoredID int64, now time.Time, label string) ([]model.VideoSnapshot, error) {
	publishedAfter := now.UTC().AddDate(0, 0, -searchWindowDays)

	var hits []youtube.SearchResult
	pageToken := ""
	for {
		page, next, err := c.gateway.SearchRecentVideos(ctx, channelID, publishedAfter, pageToken, label)
		if err != nil {
			return nil, fmt.Errorf("search videos for %s: %w", channelID, err)
		}
		hits = append(hits, page...)
		if next == "" {
			break
		}
		pageToken = next
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.VideoID
	}
	details, err := c.gateway.FetchVideoDetails(ctx, ids, label)
	if err != nil {
		return nil, fmt.Errorf("video details for %s: %w", channelID, err)
	}

	videos := make([]model.VideoSnapshot, 0, len(hits))
	for _, h := range hits {
		d := details[h.VideoID]
		videos = append(videos, model.VideoSnapshot{
			VideoID:         h.VideoID,
			ChannelID:       monitoredID,
			CollectionDate:  dateOnly(now),
			Title:           h.Title,
			URL:             "https://www.youtube.com/watch?v=" + h.VideoID,
			PublishedAt:     h.PublishedAt,
			CurrentViews:    d.ViewCount,
			Likes:           d.LikeCount,
			Comments:        d.CommentCount,
			DurationSeconds: d.DurationSeconds,
		})
	}
	return videos, nil
}

// HarvestComments pulls up to maxComments comments for one video.
func (c *Collector) HarvestComments(ctx context.Context, videoID string, maxComments int, label string) ([]model.Comment, error) {
	return c.gateway.FetchComments(ctx, videoID, maxComments, label)
}

// AggregateWindows buckets videos into the 7, 15 and 30 day windows by
// fractional age. Ages are fractional days, so a video published 23h59m ago
// still lands in the 7-day bucket. The windows nest: anything inside 7 days
// also counts toward 15 and 30.
func AggregateWindows(videos []model.VideoSnapshot, now time.Time) (views7, views15, views30 int64, published7 int) {
	for i := range videos {
		age := videos[i].AgeDays(now)
		views := videos[i].CurrentViews
		switch {
		case age <= 7:
			views7 += views
			views15 += views
			views30 += views
			published7++
		case age <= 15:
			views15 += views
			views30 += views
		case age <= 30:
			views30 += views
		}
	}
	return views7, views15, views30, published7
}

// EngagementRate is total likes plus comments over total views across the
// collected videos, as a percentage rounded to two decimals. Zero views
// means zero engagement, never a division blowup.
func EngagementRate(videos []model.VideoSnapshot) float64 {
	var interactions, views int64
	for i := range videos {
		interactions += videos[i].Likes + videos[i].Comments
		views += videos[i].CurrentViews
	}
	if views == 0 {
		return 0
	}
	rate := float64(interactions) / float64(views) * 100
	return math.Round(rate*100) / 100
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
