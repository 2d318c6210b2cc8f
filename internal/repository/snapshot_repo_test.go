package repository

import (
	"testing"

	"github.com/ccalu/channelpulse/internal/model"
)

func TestDeriveSubscribersDiff_OwnedWithYesterday(t *testing.T) {
	yesterday := int64(1000)
	diff := DeriveSubscribersDiff(model.KindOwned, 1250, &yesterday)
	if diff == nil || *diff != 250 {
		t.Errorf("diff = %v, want 250", diff)
	}
}

func TestDeriveSubscribersDiff_OwnedLosingSubscribers(t *testing.T) {
	yesterday := int64(1000)
	diff := DeriveSubscribersDiff(model.KindOwned, 940, &yesterday)
	if diff == nil || *diff != -60 {
		t.Errorf("diff = %v, want -60", diff)
	}
}

func TestDeriveSubscribersDiff_OwnedFirstDayIsZero(t *testing.T) {
	// No snapshot for yesterday: the diff must be 0, not absent.
	diff := DeriveSubscribersDiff(model.KindOwned, 1000, nil)
	if diff == nil {
		t.Fatal("diff = nil, want 0")
	}
	if *diff != 0 {
		t.Errorf("diff = %d, want 0", *diff)
	}
}

func TestDeriveSubscribersDiff_MinedIsNull(t *testing.T) {
	yesterday := int64(1000)
	if diff := DeriveSubscribersDiff(model.KindMined, 1250, &yesterday); diff != nil {
		t.Errorf("diff = %v, want nil for mined channels", diff)
	}
}
