package youtube

import "testing"

func TestParseISODuration_ZeroSeconds(t *testing.T) {
	if got := ParseISODuration("PT0S"); got != 0 {
		t.Errorf("PT0S = %d, want 0", got)
	}
}

func TestParseISODuration_HoursOnly(t *testing.T) {
	if got := ParseISODuration("PT1H"); got != 3600 {
		t.Errorf("PT1H = %d, want 3600", got)
	}
}

func TestParseISODuration_MinutesAndSeconds(t *testing.T) {
	if got := ParseISODuration("PT2M30S"); got != 150 {
		t.Errorf("PT2M30S = %d, want 150", got)
	}
}

func TestParseISODuration_FullForm(t *testing.T) {
	// 1h + 2m + 3s = 3600 + 120 + 3
	if got := ParseISODuration("PT1H2M3S"); got != 3723 {
		t.Errorf("PT1H2M3S = %d, want 3723", got)
	}
}

func TestParseISODuration_Malformed(t *testing.T) {
	for _, s := range []string{"", "P1D", "PT", "1H2M", "PTXS", "PT1H2M3S4X"} {
		if got := ParseISODuration(s); got != 0 {
			t.Errorf("ParseISODuration(%q) = %d, want 0", s, got)
		}
	}
}

func TestDecodeEntities_Apostrophe(t *testing.T) {
	got := DecodeEntities("Don&#39;t &amp; won&#39;t")
	if got != "Don't & won't" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeEntities_IdempotentOnCleanText(t *testing.T) {
	clean := "Already clean title"
	if got := DecodeEntities(clean); got != clean {
		t.Errorf("got %q, want %q", got, clean)
	}
}
