package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ccalu/channelpulse/internal/model"
)

// fakeNotificationStore drives the notifier without a database.
type fakeNotificationStore struct {
	rules       []model.NotificationRule
	candidates  map[int64][]model.CandidateVideo
	seenTiers   map[string]int64
	seenTierErr map[string]error
	unread      map[string]*model.Notification

	inserted []model.Notification
	elevated []fakeElevation
}

type fakeElevation struct {
	id           int64
	viewsReached int64
	windowDays   int
	ruleMinViews int64
}

func (f *fakeNotificationStore) CleanupDuplicates(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationStore) ActiveRulesAscending(ctx context.Context) ([]model.NotificationRule, error) {
	return f.rules, nil
}

func (f *fakeNotificationStore) CandidateVideos(ctx context.Context, rule *model.NotificationRule) ([]model.CandidateVideo, error) {
	return f.candidates[rule.ID], nil
}

func (f *fakeNotificationStore) SeenTier(ctx context.Context, videoID string) (int64, error) {
	if err := f.seenTierErr[videoID]; err != nil {
		return 0, err
	}
	return f.seenTiers[videoID], nil
}

func (f *fakeNotificationStore) UnreadNotification(ctx context.Context, videoID string) (*model.Notification, error) {
	return f.unread[videoID], nil
}

func (f *fakeNotificationStore) Insert(ctx context.Context, n *model.Notification) error {
	f.inserted = append(f.inserted, *n)
	return nil
}

func (f *fakeNotificationStore) Elevate(ctx context.Context, id, viewsReached int64, windowDays int, ruleMinViews int64, alertType, message string) error {
	f.elevated = append(f.elevated, fakeElevation{id, viewsReached, windowDays, ruleMinViews})
	return nil
}

func candidate(videoID string, views int64) model.CandidateVideo {
	return model.CandidateVideo{
		VideoID:      videoID,
		Title:        "Video " + videoID,
		ChannelID:    1,
		ChannelName:  "Channel",
		ChannelKind:  model.KindMined,
		CurrentViews: views,
	}
}

func TestNotifierRun_ContinuesPastFailingCandidate(t *testing.T) {
	store := &fakeNotificationStore{
		rules: []model.NotificationRule{
			{ID: 1, Name: "viral", MinViews: 100000, WindowDays: 7, Active: true},
		},
		candidates: map[int64][]model.CandidateVideo{
			1: {candidate("bad", 150000), candidate("good", 150000)},
		},
		seenTierErr: map[string]error{"bad": errors.New("connection reset")},
	}
	notifier := NewNotifier(store, zerolog.Nop())

	stats, err := notifier.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Errors != 1 {
		t.Errorf("errors = %d, want 1", stats.Errors)
	}
	// The failing candidate must not stop the sweep from reaching the next one.
	if stats.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", stats.Inserted)
	}
	if store.inserted[0].VideoID != "good" {
		t.Errorf("inserted video = %q, want good", store.inserted[0].VideoID)
	}
}

func TestNotifierInsert_StoresRuleThreshold(t *testing.T) {
	store := &fakeNotificationStore{
		rules: []model.NotificationRule{
			{ID: 1, Name: "viral", MinViews: 100000, WindowDays: 7, Active: true},
		},
		candidates: map[int64][]model.CandidateVideo{
			1: {candidate("v1", 120000)},
		},
	}
	notifier := NewNotifier(store, zerolog.Nop())

	if _, err := notifier.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	if store.inserted[0].RuleMinViews != 100000 {
		t.Errorf("ruleMinViews = %d, want 100000", store.inserted[0].RuleMinViews)
	}
}

func TestNotifierElevate_UsesStoredUnreadTier(t *testing.T) {
	// The unseen notification carries the threshold it fired at, so elevating
	// to a higher rule sharing the same window never depends on a rule lookup.
	store := &fakeNotificationStore{
		rules: []model.NotificationRule{
			{ID: 2, Name: "mega", MinViews: 200000, WindowDays: 7, Active: true},
		},
		candidates: map[int64][]model.CandidateVideo{
			2: {candidate("v1", 250000)},
		},
		unread: map[string]*model.Notification{
			"v1": {ID: 9, VideoID: "v1", WindowDays: 7, RuleMinViews: 50000},
		},
	}
	notifier := NewNotifier(store, zerolog.Nop())

	stats, err := notifier.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Elevated != 1 {
		t.Fatalf("elevated = %d, want 1", stats.Elevated)
	}
	if store.elevated[0].id != 9 || store.elevated[0].ruleMinViews != 200000 {
		t.Errorf("elevation = %+v, want id 9 at tier 200000", store.elevated[0])
	}
}

func TestNotifierSkip_SeenAtLowerSharedWindowTierStillFires(t *testing.T) {
	// Two rules share the 7-day window. Acknowledged at the 50k tier must not
	// count as seen at 200k: the stored threshold keeps the tiers apart.
	store := &fakeNotificationStore{
		rules: []model.NotificationRule{
			{ID: 2, Name: "mega", MinViews: 200000, WindowDays: 7, Active: true},
		},
		candidates: map[int64][]model.CandidateVideo{
			2: {candidate("v1", 250000)},
		},
		seenTiers: map[string]int64{"v1": 50000},
	}
	notifier := NewNotifier(store, zerolog.Nop())

	stats, err := notifier.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", stats.Inserted)
	}
}

func TestDecideNotifyAction_FreshVideoGetsInserted(t *testing.T) {
	action := DecideNotifyAction(50000, false, 0, 0)
	if action != ActionInsert {
		t.Errorf("action = %d, want insert", action)
	}
}

func TestDecideNotifyAction_UnreadLowerTierIsElevated(t *testing.T) {
	// Unseen notification sits at the 50k tier; the video now clears 200k.
	action := DecideNotifyAction(200000, true, 50000, 0)
	if action != ActionElevate {
		t.Errorf("action = %d, want elevate", action)
	}
}

func TestDecideNotifyAction_UnreadSameTierIsSkipped(t *testing.T) {
	action := DecideNotifyAction(50000, true, 50000, 0)
	if action != ActionSkip {
		t.Errorf("action = %d, want skip", action)
	}
}

func TestDecideNotifyAction_SeenAtTierNeverRefires(t *testing.T) {
	// The video was acknowledged at 200k; matching 50k again must not alert.
	action := DecideNotifyAction(50000, false, 0, 200000)
	if action != ActionSkip {
		t.Errorf("action = %d, want skip", action)
	}
}

func TestDecideNotifyAction_SeenLowerTierStillInsertsHigher(t *testing.T) {
	// Acknowledged at 50k, but now the video crosses 200k for the first time.
	action := DecideNotifyAction(200000, false, 0, 50000)
	if action != ActionInsert {
		t.Errorf("action = %d, want insert", action)
	}
}

func TestDecideNotifyAction_SeenTierBlocksElevationToo(t *testing.T) {
	// An unseen 50k notification exists, but 200k was already seen before.
	action := DecideNotifyAction(200000, true, 50000, 200000)
	if action != ActionSkip {
		t.Errorf("action = %d, want skip", action)
	}
}
