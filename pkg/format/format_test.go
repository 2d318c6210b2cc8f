package format

import "testing"

func TestFormatViews_BelowThousand(t *testing.T) {
	if got := FormatViews(850); got != "850" {
		t.Errorf("got %q, want 850", got)
	}
}

func TestFormatViews_Thousands(t *testing.T) {
	if got := FormatViews(12500); got != "12.5k" {
		t.Errorf("got %q, want 12.5k", got)
	}
	if got := FormatViews(50000); got != "50k" {
		t.Errorf("got %q, want 50k (no trailing .0)", got)
	}
}

func TestFormatViews_Millions(t *testing.T) {
	if got := FormatViews(2300000); got != "2.3M" {
		t.Errorf("got %q, want 2.3M", got)
	}
	if got := FormatViews(1000000); got != "1M" {
		t.Errorf("got %q, want 1M", got)
	}
}

func TestWindowText(t *testing.T) {
	if got := WindowText(1); got != "24 hours" {
		t.Errorf("got %q, want 24 hours", got)
	}
	if got := WindowText(14); got != "2 weeks" {
		t.Errorf("got %q, want 2 weeks", got)
	}
	if got := WindowText(7); got != "7 days" {
		t.Errorf("got %q, want 7 days", got)
	}
}

func TestAlertType(t *testing.T) {
	if got := AlertType(1); got != "viral_24h" {
		t.Errorf("got %q", got)
	}
	if got := AlertType(7); got != "viral_7d" {
		t.Errorf("got %q", got)
	}
}

func TestBuildAlertMessage(t *testing.T) {
	got := BuildAlertMessage("My Video", "My Channel", 250000, 7)
	want := "The video 'My Video' from channel My Channel reached 250k views in the last 7 days"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abcd" {
		t.Errorf("got %q, want abcd", got)
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Errorf("got %q, want abc", got)
	}
}
