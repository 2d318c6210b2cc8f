package model

import "time"

// Channel kinds: owned channels are ours and get subscriber-diff tracking,
// mined channels are competitors we only observe.
const (
	KindOwned    = "owned"
	KindMined    = "mined"
	KindDisabled = "disabled"
)

// Channel statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Channel is a monitored YouTube channel (channels_monitored row).
type Channel struct {
	ID                  int64      `json:"id"`
	URL                 string     `json:"url"`
	Name                string     `json:"name"`
	Kind                string     `json:"kind"`
	Subgenre            string     `json:"subgenre,omitempty"`
	Language            string     `json:"language,omitempty"`
	Status              string     `json:"status"`
	Monetized           bool       `json:"monetized"`
	LastCollectionAt    *time.Time `json:"lastCollectionAt,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastError           *string    `json:"lastError,omitempty"`
}

// ChannelTableRow is the dashboard-facing view of a channel: the base row
// merged with its latest snapshot and derived score/growth columns.
type ChannelTableRow struct {
	Channel
	Subscribers       int64    `json:"subscribers"`
	SubscribersDiff   *int64   `json:"subscribersDiff,omitempty"`
	Views30d          int64    `json:"views30d"`
	Views15d          int64    `json:"views15d"`
	Views7d           int64    `json:"views7d"`
	VideosPublished7d int      `json:"videosPublished7d"`
	EngagementRate    float64  `json:"engagementRate"`
	Score             float64  `json:"score"`
	ViewsGrowth7d     *float64 `json:"viewsGrowth7d,omitempty"`
	ViewsGrowth30d    *float64 `json:"viewsGrowth30d,omitempty"`
}
