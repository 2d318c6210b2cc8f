package youtube

import (
	"testing"
	"time"
)

func TestCredentialPool_CurrentSkipsUnavailable(t *testing.T) {
	p := NewCredentialPool([]string{"a", "b", "c"})
	p.MarkSuspended(0)

	cred, ok := p.Current()
	if !ok {
		t.Fatal("pool should still have eligible keys")
	}
	if cred.Key != "b" {
		t.Errorf("Current = %q, want b (first available)", cred.Key)
	}
}

func TestCredentialPool_AllUnavailable(t *testing.T) {
	p := NewCredentialPool([]string{"a", "b"})
	p.MarkSuspended(0)
	p.MarkExhausted(1, time.Now().UTC())

	if _, ok := p.Current(); ok {
		t.Error("Current should report no eligible key")
	}
	if !p.AllUnavailable() {
		t.Error("AllUnavailable should be true")
	}
}

func TestCredentialPool_RotateWrapsAround(t *testing.T) {
	p := NewCredentialPool([]string{"a", "b", "c"})

	p.Rotate()
	if cred, _ := p.Current(); cred.Key != "b" {
		t.Errorf("after one rotate, Current = %q, want b", cred.Key)
	}

	p.Rotate()
	p.Rotate()
	if cred, _ := p.Current(); cred.Key != "a" {
		t.Errorf("after three rotates, Current = %q, want a", cred.Key)
	}
}

func TestCredentialPool_ExhaustedComesBackNextDay(t *testing.T) {
	p := NewCredentialPool([]string{"a"})
	yesterday := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	p.MarkExhausted(0, yesterday)

	if p.StateOf(0) != CredentialExhausted {
		t.Fatal("key should be exhausted")
	}

	// Same UTC day: no reset.
	if n := p.ResetDaily(yesterday); n != 0 {
		t.Errorf("same-day reset recovered %d keys, want 0", n)
	}

	// Next UTC day: the key recovers.
	today := yesterday.AddDate(0, 0, 1)
	if n := p.ResetDaily(today); n != 1 {
		t.Errorf("next-day reset recovered %d keys, want 1", n)
	}
	if p.StateOf(0) != CredentialActive {
		t.Error("key should be active after daily reset")
	}
}

func TestCredentialPool_SuspendedClearedOnlyByReset(t *testing.T) {
	p := NewCredentialPool([]string{"a"})
	p.MarkSuspended(0)

	// Daily reset never touches suspensions.
	p.ResetDaily(time.Now().UTC().AddDate(0, 0, 1))
	if p.StateOf(0) != CredentialSuspended {
		t.Error("daily reset must not clear suspensions")
	}

	if n := p.ResetSuspended(); n != 1 {
		t.Errorf("ResetSuspended = %d, want 1", n)
	}
	if p.StateOf(0) != CredentialActive {
		t.Error("key should be active after suspension reset")
	}
}

func TestCredentialPool_ChargeAccounting(t *testing.T) {
	p := NewCredentialPool([]string{"a", "b"})
	p.Charge(0, "channel-one", 100)
	p.Charge(0, "channel-one", 1)
	p.Charge(1, "channel-two", 1)

	if p.TotalUnits() != 102 {
		t.Errorf("TotalUnits = %d, want 102", p.TotalUnits())
	}

	stats := p.Stats()
	if stats.UnitsPerKey[0] != 101 || stats.UnitsPerKey[1] != 1 {
		t.Errorf("UnitsPerKey = %v, want [101 1]", stats.UnitsPerKey)
	}
	if stats.UnitsPerChannel["channel-one"] != 101 {
		t.Errorf("channel-one units = %d, want 101", stats.UnitsPerChannel["channel-one"])
	}

	p.ResetAccounting()
	if p.TotalUnits() != 0 {
		t.Error("accounting should be zero after reset")
	}
	if p.ActiveCount() != 2 {
		t.Error("accounting reset must not touch key availability")
	}
}
