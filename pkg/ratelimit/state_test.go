package ratelimit

import (
	"testing"
	"time"
)

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *State
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &State{LastUpdate: time.Now()},
			maxAge:   time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &State{LastUpdate: time.Now().Add(-2 * time.Minute)},
			maxAge:   time.Minute,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_Gating(t *testing.T) {
	future := time.Now().Add(30 * time.Second)
	past := time.Now().Add(-time.Second)

	tests := []struct {
		name           string
		remaining      int
		resetAt        time.Time
		expectBlock    bool
		expectThrottle bool
		expectHealthy  bool
	}{
		{"healthy", 100, future, false, false, true},
		{"at healthy threshold", RemainingHealthy, future, false, false, true},
		{"below healthy, above warning", 10, future, false, false, false},
		{"warning", 3, future, false, true, false},
		{"at critical threshold", RemainingCritical, future, false, true, false},
		{"exhausted", 0, future, true, false, false},
		{"exhausted but window reset", 0, past, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{RequestsRemaining: tt.remaining, ResetAt: tt.resetAt, LastUpdate: time.Now()}
			state.UpdateHealth()

			if got := state.NeedsCriticalBlock(); got != tt.expectBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.expectBlock)
			}
			if got := state.NeedsThrottling(); got != tt.expectThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.expectThrottle)
			}
			if state.IsHealthy != tt.expectHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expectHealthy)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	state := &State{ResetAt: time.Now().Add(-time.Minute)}
	if got := state.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0 for past reset", got)
	}

	state.ResetAt = time.Now().Add(time.Minute)
	if got := state.TimeUntilReset(); got <= 0 || got > time.Minute {
		t.Errorf("TimeUntilReset() = %v, want within (0, 1m]", got)
	}
}

func TestResetParsers(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		parse   ResetParser
		value   string
		want    time.Time
		wantErr bool
	}{
		{"duration seconds", ResetAfterDuration, "1s", now.Add(time.Second), false},
		{"duration minutes", ResetAfterDuration, "6m0s", now.Add(6 * time.Minute), false},
		{"duration millis", ResetAfterDuration, "120ms", now.Add(120 * time.Millisecond), false},
		{"duration invalid", ResetAfterDuration, "soon", time.Time{}, true},
		{"seconds", ResetAfterSeconds, "30", now.Add(30 * time.Second), false},
		{"seconds invalid", ResetAfterSeconds, "3.5", time.Time{}, true},
		{"rfc3339", ResetAtRFC3339, "2025-03-01T12:00:45Z", now.Add(45 * time.Second), false},
		{"rfc3339 invalid", ResetAtRFC3339, "tomorrow", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.value, now)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
