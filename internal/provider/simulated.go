package provider

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"adgate/internal/logger"
	"adgate/internal/ssv"

	"github.com/google/uuid"
)

// Simulated plays a fake ad for Duration and then reports completion. When a
// callback URL and signing key are configured it also self-triggers the
// server-side verification call the way a real network would, signing the
// payload with its private test key. Used in development builds and tests.
type Simulated struct {
	Duration   time.Duration
	RewardItem string
	Amount     int64

	// Callback delivery; optional, off in pure unit tests.
	CallbackURL string
	SigningKey  *ecdsa.PrivateKey
	KeyID       int64
	HTTPClient  *http.Client

	// Failure injection for tests and demo flows.
	ForceCancel   bool
	ForceLoadFail bool
	Unavailable   bool
}

func NewSimulated(duration time.Duration, rewardItem string, amount int64) *Simulated {
	return &Simulated{
		Duration:   duration,
		RewardItem: rewardItem,
		Amount:     amount,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Simulated) Name() string { return "simulated" }

func (s *Simulated) IsAvailable() bool { return !s.Unavailable }

func (s *Simulated) ShowAd(ctx context.Context, userID int) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		if s.ForceLoadFail {
			out <- Result{Reason: ReasonLoadFailed}
			return
		}

		// Playback window; a cancelled context is the user closing the ad.
		select {
		case <-ctx.Done():
			out <- Result{Reason: ReasonUserCanceled}
			return
		case <-time.After(s.Duration):
		}

		if s.ForceCancel {
			out <- Result{Reason: ReasonUserCanceled}
			return
		}

		txID := uuid.NewString()
		s.deliverCallback(userID, txID)
		out <- Result{Success: true, TransactionID: txID}
	}()

	return out
}

// deliverCallback plays the ad network's SSV role for the simulated path.
// Delivery failures are logged and swallowed: the client outcome is already
// decided, and a lost callback simply means no authoritative credit, exactly
// as with a real network.
func (s *Simulated) deliverCallback(userID int, txID string) {
	if s.CallbackURL == "" || s.SigningKey == nil {
		return
	}

	payload := ssv.Payload{
		UserID:        userID,
		TransactionID: txID,
		RewardItem:    s.RewardItem,
		RewardAmount:  s.Amount,
		Provider:      s.Name(),
	}

	sig, err := ssv.Sign(s.SigningKey, payload)
	if err != nil {
		logger.Errorf("Simulated provider failed to sign callback: %v", err)
		return
	}

	q := url.Values{}
	q.Set("user_id", fmt.Sprint(userID))
	q.Set("ad_network_transaction_id", txID)
	q.Set("reward_amount", fmt.Sprint(s.Amount))
	q.Set("reward_item", s.RewardItem)
	q.Set("provider", s.Name())
	q.Set("signature", sig)
	q.Set("key_id", fmt.Sprint(s.KeyID))

	resp, err := s.HTTPClient.Get(s.CallbackURL + "?" + q.Encode())
	if err != nil {
		logger.Errorf("Simulated provider callback delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Errorf("Simulated provider callback rejected with status %d", resp.StatusCode)
	}
}
