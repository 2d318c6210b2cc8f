package youtube

import (
	"errors"
	"fmt"
	"strings"
)

// FaultKind classifies a failed YouTube API call. The gateway is the only
// place that decides a kind; everything above it just checks the kind.
type FaultKind int

const (
	FaultQuotaExhausted FaultKind = iota // every credential hit its daily quota
	FaultRateLimited                     // per-key request rate exceeded
	FaultSuspended                       // credential rejected with a non-quota 403
	FaultTimeout                         // request deadline exceeded
	FaultTransport                       // connection error, 5xx, malformed payload
	FaultNoCredential                    // no eligible credential in the pool
)

func (k FaultKind) String() string {
	switch k {
	case FaultQuotaExhausted:
		return "quota_exhausted"
	case FaultRateLimited:
		return "rate_limited"
	case FaultSuspended:
		return "suspended"
	case FaultTimeout:
		return "timeout"
	case FaultTransport:
		return "transport"
	case FaultNoCredential:
		return "no_credential"
	default:
		return "unknown"
	}
}

// Fault is a typed YouTube API error.
type Fault struct {
	Kind    FaultKind
	Status  int    // HTTP status, 0 when the request never completed
	Reason  string // structured errors[0].reason when present
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("youtube: %s: %s", f.Kind, f.Message)
	}
	if f.Err != nil {
		return fmt.Sprintf("youtube: %s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("youtube: %s", f.Kind)
}

func (f *Fault) Unwrap() error { return f.Err }

// FaultKindOf extracts the fault kind from an error chain. The second result
// is false when err carries no *Fault.
func FaultKindOf(err error) (FaultKind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// IsQuotaExhausted reports whether err means every credential is spent for
// the current UTC day.
func IsQuotaExhausted(err error) bool {
	k, ok := FaultKindOf(err)
	return ok && k == FaultQuotaExhausted
}

// classify403 decides what a 403 response means. It prefers the structured
// errors[0].reason field and falls back to substring matching on the message,
// which is how the API actually reports quota problems in the wild.
func classify403(reason, message string) FaultKind {
	reason = strings.ToLower(reason)
	message = strings.ToLower(message)

	switch {
	case strings.Contains(reason, "quota") || strings.Contains(reason, "dailylimit") ||
		strings.Contains(message, "quota"):
		return FaultQuotaExhausted
	case strings.Contains(reason, "ratelimit") || strings.Contains(reason, "usageratelimit") ||
		strings.Contains(message, "ratelimit"):
		return FaultRateLimited
	default:
		return FaultSuspended
	}
}
