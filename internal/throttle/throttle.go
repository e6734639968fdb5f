// Package throttle enforces the client-side cooldown and daily cap on ad
// requests. It shapes legitimate usage only; a tampered client can reset this
// state, so abuse prevention proper lives with the server-side verification
// gateway.
package throttle

import (
	"errors"
	"fmt"
	"time"

	"adgate/internal/kvstore"
)

const (
	ReasonCooldown   = "cooldown"
	ReasonDailyLimit = "daily_limit"

	dateLayout = "2006-01-02"
)

// State is persisted per user in the client key-value store.
type State struct {
	LastAdTime    time.Time `json:"last_ad_time"`
	TodayCount    int       `json:"today_count"`
	LastResetDate string    `json:"last_reset_date"`
}

type CheckResult struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason,omitempty"`
	RemainingToday   int    `json:"remaining_today,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

type Throttle struct {
	store      kvstore.Store
	cooldown   time.Duration
	dailyLimit int
}

func New(store kvstore.Store, cooldown time.Duration, dailyLimit int) *Throttle {
	return &Throttle{store: store, cooldown: cooldown, dailyLimit: dailyLimit}
}

func stateKey(userID int) string {
	return fmt.Sprintf("throttle:%d", userID)
}

func (t *Throttle) loadState(userID int, now time.Time) (State, error) {
	var st State
	err := t.store.Get(stateKey(userID), &st)
	if err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		return State{}, err
	}

	// Daily counter resets on the first touch of a new calendar day.
	today := now.Format(dateLayout)
	if st.LastResetDate != today {
		st.TodayCount = 0
		st.LastResetDate = today
	}

	return st, nil
}

// Check reports whether a new ad request is allowed right now. It never
// mutates counters: the slot is only consumed by Commit after the provider
// reports a completed ad, so abandoned or failed attempts are not penalized.
func (t *Throttle) Check(userID int, now time.Time) (CheckResult, error) {
	st, err := t.loadState(userID, now)
	if err != nil {
		return CheckResult{}, err
	}

	if !st.LastAdTime.IsZero() {
		elapsed := now.Sub(st.LastAdTime)
		if elapsed < t.cooldown {
			remaining := t.cooldown - elapsed
			return CheckResult{
				Reason:           ReasonCooldown,
				RemainingSeconds: int64((remaining + time.Second - 1) / time.Second),
			}, nil
		}
	}

	if st.TodayCount >= t.dailyLimit {
		return CheckResult{
			Reason: ReasonDailyLimit,
			Limit:  t.dailyLimit,
		}, nil
	}

	return CheckResult{
		Allowed:        true,
		RemainingToday: t.dailyLimit - st.TodayCount,
	}, nil
}

// Commit records a completed ad: stamps the cooldown clock and consumes one
// daily slot.
func (t *Throttle) Commit(userID int, now time.Time) error {
	st, err := t.loadState(userID, now)
	if err != nil {
		return err
	}

	st.LastAdTime = now
	st.TodayCount++

	return t.store.Put(stateKey(userID), st)
}
