package model

import "time"

// Rule channel-kind filters.
const (
	RuleKindOwned = "owned"
	RuleKindMined = "mined"
	RuleKindBoth  = "both"
)

// NotificationRule is a user-defined alert threshold (notification_rules row).
// Rules are always evaluated in ascending min_views order; the elevation
// protocol depends on that ordering.
type NotificationRule struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	MinViews   int64    `json:"minViews"`
	WindowDays int      `json:"windowDays"`
	KindFilter string   `json:"kindFilter"`
	Subgenres  []string `json:"subgenres,omitempty"` // nil means "any"
	Active     bool     `json:"active"`
}

// NotificationStats summarizes the alert feed for the dashboard header.
type NotificationStats struct {
	Total     int64 `json:"total"`
	Unseen    int64 `json:"unseen"`
	Last24h   int64 `json:"last24h"`
	Last7Days int64 `json:"last7days"`
}

// Notification is a single emitted alert (notifications row).
// At most one unseen notification exists per video at any moment.
type Notification struct {
	ID           int64      `json:"id"`
	VideoID      string     `json:"videoId"`
	ChannelID    int64      `json:"channelId"`
	VideoTitle   string     `json:"videoTitle"`
	ChannelName  string     `json:"channelName"`
	ChannelKind  string     `json:"channelKind"`
	ViewsReached int64      `json:"viewsReached"`
	WindowDays   int        `json:"windowDays"`
	RuleMinViews int64      `json:"ruleMinViews"`
	AlertType    string     `json:"alertType"`
	Message      string     `json:"message"`
	Seen         bool       `json:"seen"`
	FiredAt      time.Time  `json:"firedAt"`
	SeenAt       *time.Time `json:"seenAt,omitempty"`
}

// CandidateVideo is a video that crossed a rule threshold: the most recent
// snapshot of the video joined with its channel.
type CandidateVideo struct {
	VideoID      string
	Title        string
	ChannelID    int64
	ChannelName  string
	ChannelKind  string
	Subgenre     string
	CurrentViews int64
	PublishedAt  time.Time
}
