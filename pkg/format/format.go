// Package format renders view counts, window labels and alert messages for
// the notification feed.
package format

import "fmt"

// FormatViews renders a view count compactly: 850 stays 850, 12_500 becomes
// "12.5k", 2_300_000 becomes "2.3M". Trailing ".0" is dropped.
func FormatViews(views int64) string {
	switch {
	case views >= 1_000_000:
		return trimZero(float64(views)/1_000_000) + "M"
	case views >= 1_000:
		return trimZero(float64(views)/1_000) + "k"
	default:
		return fmt.Sprintf("%d", views)
	}
}

func trimZero(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}

// WindowText renders a rule window as feed copy: 1 day is "24 hours",
// 14 days is "2 weeks", anything else is "N days".
func WindowText(windowDays int) string {
	switch windowDays {
	case 1:
		return "24 hours"
	case 14:
		return "2 weeks"
	default:
		return fmt.Sprintf("%d days", windowDays)
	}
}

// AlertType labels an alert by its window, e.g. "viral_24h" or "viral_7d".
func AlertType(windowDays int) string {
	if windowDays == 1 {
		return "viral_24h"
	}
	return fmt.Sprintf("viral_%dd", windowDays)
}

// BuildAlertMessage composes the one-line alert shown in the feed.
func BuildAlertMessage(videoTitle, channelName string, views int64, windowDays int) string {
	return fmt.Sprintf("The video '%s' from channel %s reached %s views in the last %s",
		videoTitle, channelName, FormatViews(views), WindowText(windowDays))
}

// Truncate clips s to at most max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
