package youtube

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify403_QuotaByReason(t *testing.T) {
	if k := classify403("quotaExceeded", "some message"); k != FaultQuotaExhausted {
		t.Errorf("kind = %s, want quota_exhausted", k)
	}
	if k := classify403("dailyLimitExceeded", ""); k != FaultQuotaExhausted {
		t.Errorf("kind = %s, want quota_exhausted", k)
	}
}

func TestClassify403_QuotaByMessageFallback(t *testing.T) {
	// No structured reason; the message substring still identifies quota.
	k := classify403("", "The request cannot be completed because you have exceeded your quota.")
	if k != FaultQuotaExhausted {
		t.Errorf("kind = %s, want quota_exhausted", k)
	}
}

func TestClassify403_RateLimited(t *testing.T) {
	if k := classify403("rateLimitExceeded", ""); k != FaultRateLimited {
		t.Errorf("kind = %s, want rate_limited", k)
	}
	if k := classify403("userRateLimitExceeded", ""); k != FaultRateLimited {
		t.Errorf("kind = %s, want rate_limited", k)
	}
}

func TestClassify403_UnknownReasonMeansSuspended(t *testing.T) {
	// A 403 that is neither quota nor rate limit means the key itself is bad.
	if k := classify403("accessNotConfigured", "API key not valid"); k != FaultSuspended {
		t.Errorf("kind = %s, want suspended", k)
	}
}

func TestFaultKindOf_WrappedFault(t *testing.T) {
	fault := &Fault{Kind: FaultQuotaExhausted, Status: 403}
	wrapped := fmt.Errorf("collect channel: %w", fault)

	kind, ok := FaultKindOf(wrapped)
	if !ok || kind != FaultQuotaExhausted {
		t.Errorf("FaultKindOf = (%s, %v), want (quota_exhausted, true)", kind, ok)
	}
	if !IsQuotaExhausted(wrapped) {
		t.Error("IsQuotaExhausted should see through the wrap")
	}
}

func TestFaultKindOf_PlainError(t *testing.T) {
	if _, ok := FaultKindOf(errors.New("plain")); ok {
		t.Error("plain errors carry no fault kind")
	}
}
