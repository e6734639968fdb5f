// Package provider abstracts ad-network SDKs behind a small capability
// interface so the client pipeline is indifferent to whether playback is
// simulated or real.
package provider

import "context"

const (
	ReasonUserCanceled = "user_canceled"
	ReasonLoadFailed   = "load_failed"
)

// Result is the terminal outcome of one ad playback. TransactionID is only
// set on success and is issued by the provider, not the client.
type Result struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Provider shows rewarded ads. ShowAd returns immediately; the result arrives
// on the channel when playback finishes, so the caller's event loop stays
// responsive for the whole ad duration.
type Provider interface {
	Name() string
	IsAvailable() bool
	ShowAd(ctx context.Context, userID int) <-chan Result
}
