package model

import "testing"

func TestDeriveRunStatus_AllSucceeded(t *testing.T) {
	if got := DeriveRunStatus(10, 0); got != RunSuccess {
		t.Errorf("status = %q, want %q", got, RunSuccess)
	}
}

func TestDeriveRunStatus_SomeFailed(t *testing.T) {
	if got := DeriveRunStatus(7, 3); got != RunPartial {
		t.Errorf("status = %q, want %q", got, RunPartial)
	}
}

func TestDeriveRunStatus_AllFailed(t *testing.T) {
	if got := DeriveRunStatus(0, 10); got != RunError {
		t.Errorf("status = %q, want %q", got, RunError)
	}
}

func TestDeriveRunStatus_EmptyRoster(t *testing.T) {
	// Nothing attempted, nothing failed: that is a success.
	if got := DeriveRunStatus(0, 0); got != RunSuccess {
		t.Errorf("status = %q, want %q", got, RunSuccess)
	}
}
