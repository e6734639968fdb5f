// Package adclient runs the client-side gating pipeline for rewarded ads:
// age policy, throttling, fraud heuristics, then the provider itself. All of
// these checks are advisory. The server-side verification callback is the
// only path that moves real balance; this pipeline exists to avoid showing
// ads that cannot pay out and to give the UI an optimistic reward signal.
package adclient

import (
	"context"
	"fmt"
	"time"

	"adgate/internal/fraud"
	"adgate/internal/kvstore"
	"adgate/internal/logger"
	"adgate/internal/provider"
	"adgate/internal/rewardtoken"
	"adgate/internal/throttle"
)

const (
	StatusRejected    = "rejected"
	StatusUnavailable = "unavailable"
	StatusIncomplete  = "incomplete"
	StatusCompleted   = "completed"
)

const ReasonAgeRestricted = "age_restricted"
const ReasonAdUnavailable = "ad_unavailable"
const ReasonSuspicious = "suspicious_activity"

// AgeProvider reports a user's age in whole years. ok is false when the
// profile has no usable birth date; unknown age is treated as under age.
type AgeProvider interface {
	Age(userID int) (years int, ok bool)
}

// RewardSink receives the optimistic reward notification after a completed
// ad. Implementations update local UI state only.
type RewardSink interface {
	GrantReward(amount int64, kind string)
}

// Outcome describes one RequestAd attempt. Token is set only on completion
// and is non-authoritative: callers display it immediately but re-read the
// wallet for any persistent balance.
type Outcome struct {
	Status      string             `json:"status"`
	Reason      string             `json:"reason,omitempty"`
	WaitSeconds int64              `json:"wait_seconds,omitempty"`
	Token       *rewardtoken.Token `json:"token,omitempty"`
}

type Client struct {
	ages     AgeProvider
	throttle *throttle.Throttle
	store    kvstore.Store
	provider provider.Provider
	issuer   *rewardtoken.Issuer
	sink     RewardSink

	minAdAge int
	now      func() time.Time
}

func New(ages AgeProvider, th *throttle.Throttle, store kvstore.Store, prov provider.Provider, issuer *rewardtoken.Issuer, sink RewardSink, minAdAge int) *Client {
	return &Client{
		ages:     ages,
		throttle: th,
		store:    store,
		provider: prov,
		issuer:   issuer,
		sink:     sink,
		minAdAge: minAdAge,
		now:      time.Now,
	}
}

func historyKey(userID int) string {
	return fmt.Sprintf("history:%d", userID)
}

func (c *Client) loadHistory(userID int) ([]time.Time, error) {
	var history []time.Time
	err := c.store.Get(historyKey(userID), &history)
	if err == kvstore.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reward history: %w", err)
	}
	return history, nil
}

// recordReward appends now to the user's reward history, dropping entries
// older than the fraud window so the file cannot grow unbounded.
func (c *Client) recordReward(userID int, now time.Time) error {
	history, err := c.loadHistory(userID)
	if err != nil {
		return err
	}

	kept := history[:0]
	cutoff := now.Add(-fraud.Window)
	for _, t := range history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)

	return c.store.Put(historyKey(userID), kept)
}

// RequestAd runs the full gating pipeline and, if the ad completes, issues a
// local reward token and notifies the sink. Policy rejections are normal
// outcomes, not errors; error returns are reserved for storage and provider
// plumbing failures.
func (c *Client) RequestAd(ctx context.Context, userID int) (*Outcome, error) {
	now := c.now()

	if age, ok := c.ages.Age(userID); !ok || age < c.minAdAge {
		return &Outcome{Status: StatusRejected, Reason: ReasonAgeRestricted}, nil
	}

	check, err := c.throttle.Check(userID, now)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return &Outcome{
			Status:      StatusRejected,
			Reason:      check.Reason,
			WaitSeconds: check.RemainingSeconds,
		}, nil
	}

	history, err := c.loadHistory(userID)
	if err != nil {
		return nil, err
	}
	if assessment := fraud.Assess(history, now); assessment.Suspicious {
		logger.Info("Fraud gate rejected ad request", "user_id", userID, "reason", assessment.Reason)
		return &Outcome{Status: StatusRejected, Reason: ReasonSuspicious}, nil
	}

	if !c.provider.IsAvailable() {
		return &Outcome{Status: StatusUnavailable, Reason: ReasonAdUnavailable}, nil
	}

	result := <-c.provider.ShowAd(ctx, userID)
	if !result.Success {
		return &Outcome{Status: StatusIncomplete, Reason: result.Reason}, nil
	}

	// The ad played through; only now does local state change.
	completedAt := c.now()
	if err := c.throttle.Commit(userID, completedAt); err != nil {
		return nil, err
	}
	if err := c.recordReward(userID, completedAt); err != nil {
		return nil, err
	}

	token, err := c.issuer.Issue(userID, rewardtoken.KindToken, 1)
	if err != nil {
		return nil, err
	}

	logger.Info("Ad completed", "user_id", userID, "transaction_id", result.TransactionID, "token_id", token.ID)
	return &Outcome{Status: StatusCompleted, Token: token}, nil
}

// ClaimToken redeems a previously issued local token and, on first success,
// pushes the optimistic reward to the sink. The sink update is UI state only;
// the wallet moves when the provider's verification callback lands.
func (c *Client) ClaimToken(userID int, tokenID string) (rewardtoken.ClaimResult, error) {
	claim, err := c.issuer.Claim(userID, tokenID)
	if err != nil {
		return claim, err
	}

	if claim.Success && c.sink != nil {
		c.sink.GrantReward(claim.Amount, claim.Kind)
	}

	return claim, nil
}
