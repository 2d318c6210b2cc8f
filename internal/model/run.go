package model

import "time"

// Collection run statuses (collection_history.status).
const (
	RunInProgress = "in_progress"
	RunSuccess    = "success"
	RunPartial    = "partial"
	RunError      = "error"
)

// CollectionRun is one scheduled collection pass over all active channels
// (collection_history row). A single in_progress row acts as the run lock.
type CollectionRun struct {
	ID              int64      `json:"id"`
	StartedAt       time.Time  `json:"startedAt"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
	Status          string     `json:"status"`
	ChannelsTotal   int        `json:"channelsTotal"`
	ChannelsSuccess int        `json:"channelsSuccess"`
	ChannelsError   int        `json:"channelsError"`
	VideosCollected int        `json:"videosCollected"`
	UnitsSpent      int        `json:"unitsSpent"`
	DurationSeconds int        `json:"durationSeconds"`
	ErrorMessage    *string    `json:"errorMessage,omitempty"`
}

// DeriveRunStatus maps a run's tallies to its final status: all channels
// succeeded, some did, or none did.
func DeriveRunStatus(success, failed int) string {
	switch {
	case failed == 0:
		return RunSuccess
	case success > 0:
		return RunPartial
	default:
		return RunError
	}
}
