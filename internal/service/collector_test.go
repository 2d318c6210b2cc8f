package service

import (
	"testing"
	"time"

	"github.com/ccalu/channelpulse/internal/model"
)

func videoAt(ageDays float64, views, likes, comments int64, now time.Time) model.VideoSnapshot {
	return model.VideoSnapshot{
		PublishedAt:  now.Add(-time.Duration(ageDays * 24 * float64(time.Hour))),
		CurrentViews: views,
		Likes:        likes,
		Comments:     comments,
	}
}

func TestAggregateWindows_NestedBuckets(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	videos := []model.VideoSnapshot{
		videoAt(2, 1000, 0, 0, now),  // inside all three windows
		videoAt(10, 500, 0, 0, now),  // inside 15 and 30
		videoAt(20, 200, 0, 0, now),  // inside 30 only
	}

	v7, v15, v30, published7 := AggregateWindows(videos, now)
	if v7 != 1000 {
		t.Errorf("views7 = %d, want 1000", v7)
	}
	if v15 != 1500 {
		t.Errorf("views15 = %d, want 1500", v15)
	}
	if v30 != 1700 {
		t.Errorf("views30 = %d, want 1700", v30)
	}
	if published7 != 1 {
		t.Errorf("published7 = %d, want 1", published7)
	}
}

func TestAggregateWindows_FractionalAgeBoundary(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	// 6 days 23 hours old: still inside the 7-day bucket.
	justInside := model.VideoSnapshot{
		PublishedAt:  now.Add(-(6*24 + 23) * time.Hour),
		CurrentViews: 100,
	}
	// 7 days 1 hour old: out of the 7-day bucket, inside 15.
	justOutside := model.VideoSnapshot{
		PublishedAt:  now.Add(-(7*24 + 1) * time.Hour),
		CurrentViews: 50,
	}

	v7, v15, _, published7 := AggregateWindows([]model.VideoSnapshot{justInside, justOutside}, now)
	if v7 != 100 {
		t.Errorf("views7 = %d, want 100", v7)
	}
	if v15 != 150 {
		t.Errorf("views15 = %d, want 150", v15)
	}
	if published7 != 1 {
		t.Errorf("published7 = %d, want 1", published7)
	}
}

func TestAggregateWindows_Empty(t *testing.T) {
	v7, v15, v30, published7 := AggregateWindows(nil, time.Now())
	if v7 != 0 || v15 != 0 || v30 != 0 || published7 != 0 {
		t.Errorf("empty input should aggregate to zeros, got %d/%d/%d/%d", v7, v15, v30, published7)
	}
}

func TestEngagementRate_TotalsRatio(t *testing.T) {
	now := time.Now()
	videos := []model.VideoSnapshot{
		videoAt(1, 1000, 40, 10, now), // 50 interactions
		videoAt(2, 1000, 20, 30, now), // 50 interactions
	}

	// (50 + 50) / 2000 * 100 = 5.00
	if rate := EngagementRate(videos); rate != 5.0 {
		t.Errorf("rate = %.2f, want 5.00", rate)
	}
}

func TestEngagementRate_ZeroViews(t *testing.T) {
	now := time.Now()
	videos := []model.VideoSnapshot{videoAt(1, 0, 10, 5, now)}

	if rate := EngagementRate(videos); rate != 0 {
		t.Errorf("rate = %.2f, want 0 when no views", rate)
	}
}

func TestCollectionWorker_NextRun(t *testing.T) {
	w := NewCollectionWorker(nil, 6)

	// Before the scheduled hour: today.
	now := time.Date(2026, 5, 10, 3, 30, 0, 0, time.UTC)
	next := w.nextRun(now)
	want := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("nextRun = %s, want %s", next, want)
	}

	// After the scheduled hour: tomorrow.
	now = time.Date(2026, 5, 10, 6, 0, 1, 0, time.UTC)
	next = w.nextRun(now)
	want = time.Date(2026, 5, 11, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("nextRun = %s, want %s", next, want)
	}
}
