package github

import (
	"testing"
	"time"
)

func TestBackoffPolicy_Delay(t *testing.T) {
	policy := BackoffPolicy{Base: 1 * time.Second, Max: 30 * time.Second, MaxAttempts: 3}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // 32s capped
		{7, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := policy.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffPolicy_DelayBaseAboveMax(t *testing.T) {
	policy := BackoffPolicy{Base: 10 * time.Second, Max: 5 * time.Second}
	if got := policy.Delay(1); got != 5*time.Second {
		t.Errorf("Delay(1) = %v, want the 5s cap", got)
	}
}

func TestBackoffPolicy_GiveUp(t *testing.T) {
	policy := BackoffPolicy{MaxAttempts: 3}
	for attempt := 1; attempt <= 3; attempt++ {
		if policy.GiveUp(attempt) {
			t.Errorf("GiveUp(%d) = true within budget", attempt)
		}
	}
	if !policy.GiveUp(4) {
		t.Error("GiveUp(4) = false, want true once the budget is spent")
	}
}

func TestDefaultBackoff(t *testing.T) {
	policy := DefaultBackoff()
	if policy.Base != 1*time.Second || policy.Max != 30*time.Second || policy.MaxAttempts != 3 {
		t.Errorf("unexpected default policy: %+v", policy)
	}
}
