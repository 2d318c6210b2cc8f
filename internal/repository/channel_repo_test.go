package repository

import "testing"

func TestChannelScore_NoSubscribers(t *testing.T) {
	if score := ComputeChannelScorePure(100000, 50000, 0); score != 0 {
		t.Errorf("score = %.4f, want 0 (no subscriber base)", score)
	}
}

func TestChannelScore_Weighting(t *testing.T) {
	// (70000/10000)*0.7 + (20000/10000)*0.3 = 4.9 + 0.6 = 5.5
	score := ComputeChannelScorePure(70000, 20000, 10000)
	if score != 5.5 {
		t.Errorf("score = %.4f, want 5.5", score)
	}
}

func TestChannelScore_SmallChannelOutperforms(t *testing.T) {
	// Same views, ten times the subscribers: a tenth of the score.
	small := ComputeChannelScorePure(100000, 30000, 10000)
	big := ComputeChannelScorePure(100000, 30000, 100000)
	if small <= big {
		t.Errorf("small = %.4f should exceed big = %.4f", small, big)
	}
}

func TestGrowthPct(t *testing.T) {
	prior := int64(1000)
	pct := growthPct(1500, &prior)
	if pct == nil || *pct != 50 {
		t.Errorf("growth = %v, want 50", pct)
	}

	if growthPct(1500, nil) != nil {
		t.Error("no prior snapshot means no growth figure")
	}

	zero := int64(0)
	if growthPct(1500, &zero) != nil {
		t.Error("zero prior views means no growth figure")
	}
}

func TestTruncate(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	if got := truncate(string(long), 500); len(got) != 500 {
		t.Errorf("len = %d, want 500", len(got))
	}
	if got := truncate("short", 500); got != "short" {
		t.Errorf("got %q", got)
	}
}
