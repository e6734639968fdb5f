// Package fraud flags suspicious local reward history before a new ad request
// is allowed. It is advisory defense-in-depth: a flag blocks a new request on
// this client but never retracts a credited reward, and it is no substitute
// for server-side verification.
package fraud

import (
	"sort"
	"time"
)

const (
	// Window is the trailing slice of history the detector inspects.
	Window = 10 * time.Minute

	// MaxRewardsPerWindow is the highest event count that is still considered
	// normal inside the window.
	MaxRewardsPerWindow = 5

	// MinGap is the smallest plausible spacing between two genuine ad
	// completions.
	MinGap = 30 * time.Second
)

const (
	ReasonRapidRewards    = "rapid_rewards"
	ReasonRapidCompletion = "rapid_completion"
)

type Assessment struct {
	Suspicious bool   `json:"suspicious"`
	Reason     string `json:"reason,omitempty"`
}

// Assess inspects reward timestamps against the trailing window ending at now.
// Rules apply in order, first match wins.
func Assess(history []time.Time, now time.Time) Assessment {
	cutoff := now.Add(-Window)

	recent := make([]time.Time, 0, len(history))
	for _, ts := range history {
		if ts.After(cutoff) && !ts.After(now) {
			recent = append(recent, ts)
		}
	}

	if len(recent) > MaxRewardsPerWindow {
		return Assessment{Suspicious: true, Reason: ReasonRapidRewards}
	}

	sort.Slice(recent, func(i, j int) bool { return recent[i].Before(recent[j]) })
	for i := 1; i < len(recent); i++ {
		if recent[i].Sub(recent[i-1]) < MinGap {
			return Assessment{Suspicious: true, Reason: ReasonRapidCompletion}
		}
	}

	return Assessment{}
}
