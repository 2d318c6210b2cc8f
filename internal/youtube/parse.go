package youtube

import (
	"html"
	"regexp"
	"strconv"
)

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts the API's ISO-8601 duration (PT#H#M#S) to
// seconds. Malformed input yields 0.
func ParseISODuration(s string) int {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return hours*3600 + minutes*60 + seconds
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// DecodeEntities unescapes HTML entities the API leaves in titles and
// comment text (&#39; and friends). Idempotent on already-clean text.
func DecodeEntities(s string) string {
	if s == "" {
		return s
	}
	return html.UnescapeString(s)
}
