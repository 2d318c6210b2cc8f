package model

import "time"

// ChannelSnapshot is one day's measurement of a channel
// (channel_history row, keyed on channel_id + collection_date).
type ChannelSnapshot struct {
	ChannelID         int64     `json:"channelId"`
	CollectionDate    time.Time `json:"collectionDate"`
	Subscribers       int64     `json:"subscribers"`
	Views30d          int64     `json:"views30d"`
	Views15d          int64     `json:"views15d"`
	Views7d           int64     `json:"views7d"`
	VideosPublished7d int       `json:"videosPublished7d"`
	EngagementRate    float64   `json:"engagementRate"`
	SubscribersDiff   *int64    `json:"subscribersDiff,omitempty"`
}

// AllViewsZero reports whether every windowed view count is zero.
// A snapshot like this means the fetch failed and must not be persisted.
func (s *ChannelSnapshot) AllViewsZero() bool {
	return s.Views30d == 0 && s.Views15d == 0 && s.Views7d == 0
}

// VideoSnapshot is one day's measurement of a video
// (videos_history row, keyed on video_id + collection_date).
type VideoSnapshot struct {
	VideoID         string    `json:"videoId"`
	ChannelID       int64     `json:"channelId"`
	CollectionDate  time.Time `json:"collectionDate"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	PublishedAt     time.Time `json:"publishedAt"`
	CurrentViews    int64     `json:"currentViews"`
	Likes           int64     `json:"likes"`
	Comments        int64     `json:"comments"`
	DurationSeconds int       `json:"durationSeconds"`
}

// AgeDays returns the fractional age of the video in days at the given
// instant. A video published 23h59m ago is still inside the 1-day bucket.
func (v *VideoSnapshot) AgeDays(now time.Time) float64 {
	return now.Sub(v.PublishedAt).Seconds() / 86400
}

// Comment is a single harvested comment (top-level or reply) from a video.
type Comment struct {
	CommentID       string    `json:"commentId"`
	VideoID         string    `json:"videoId"`
	AuthorName      string    `json:"authorName"`
	AuthorChannelID string    `json:"authorChannelId,omitempty"`
	Text            string    `json:"text"`
	LikeCount       int64     `json:"likeCount"`
	PublishedAt     time.Time `json:"publishedAt"`
	IsReply         bool      `json:"isReply"`
	ParentCommentID string    `json:"parentCommentId,omitempty"`
	ReplyCount      int       `json:"replyCount"`
}
