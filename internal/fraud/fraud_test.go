package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		history    []time.Time
		suspicious bool
		reason     string
	}{
		{
			name:    "empty history",
			history: nil,
		},
		{
			name: "five events in window is fine",
			history: []time.Time{
				now.Add(-9 * time.Minute),
				now.Add(-7 * time.Minute),
				now.Add(-5 * time.Minute),
				now.Add(-3 * time.Minute),
				now.Add(-1 * time.Minute),
			},
		},
		{
			name: "six events in window flags rapid_rewards",
			history: []time.Time{
				now.Add(-9 * time.Minute),
				now.Add(-8 * time.Minute),
				now.Add(-6 * time.Minute),
				now.Add(-5 * time.Minute),
				now.Add(-3 * time.Minute),
				now.Add(-1 * time.Minute),
			},
			suspicious: true,
			reason:     ReasonRapidRewards,
		},
		{
			name: "events outside window do not count",
			history: []time.Time{
				now.Add(-50 * time.Minute),
				now.Add(-40 * time.Minute),
				now.Add(-30 * time.Minute),
				now.Add(-20 * time.Minute),
				now.Add(-8 * time.Minute),
				now.Add(-4 * time.Minute),
			},
		},
		{
			name: "two completions under 30s apart flags rapid_completion",
			history: []time.Time{
				now.Add(-5 * time.Minute),
				now.Add(-5*time.Minute + 10*time.Second),
			},
			suspicious: true,
			reason:     ReasonRapidCompletion,
		},
		{
			name: "count rule wins over spacing rule",
			history: []time.Time{
				now.Add(-9 * time.Minute),
				now.Add(-9*time.Minute + 5*time.Second),
				now.Add(-6 * time.Minute),
				now.Add(-5 * time.Minute),
				now.Add(-3 * time.Minute),
				now.Add(-1 * time.Minute),
			},
			suspicious: true,
			reason:     ReasonRapidRewards,
		},
		{
			name: "unsorted history is still caught",
			history: []time.Time{
				now.Add(-1 * time.Minute),
				now.Add(-5 * time.Minute),
				now.Add(-5*time.Minute + 20*time.Second),
			},
			suspicious: true,
			reason:     ReasonRapidCompletion,
		},
		{
			name: "exactly 30s apart is fine",
			history: []time.Time{
				now.Add(-5 * time.Minute),
				now.Add(-5*time.Minute + 30*time.Second),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.history, now)
			assert.Equal(t, tt.suspicious, got.Suspicious)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}
