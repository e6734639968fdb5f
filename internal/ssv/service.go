package ssv

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"adgate/internal/ledger"
	"adgate/internal/logger"
	"adgate/internal/metrics"
)

// ErrInvalidSignature is a permanent rejection: the callback is logged for
// audit and must never be retried into a credit.
var ErrInvalidSignature = errors.New("invalid callback signature")

type Status string

const (
	StatusCredited  Status = "ok"
	StatusDuplicate Status = "duplicate"
)

// Callback is a completion event as delivered by the ad provider.
type Callback struct {
	Payload
	Signature string
	KeyID     int64
}

type KeyResolver interface {
	Key(ctx context.Context, keyID int64) (*ecdsa.PublicKey, error)
}

// Service is the single authority for crediting rewards.
type Service struct {
	keys   KeyResolver
	ledger ledger.Repository
}

func NewService(keys KeyResolver, ledgerRepo ledger.Repository) *Service {
	return &Service{keys: keys, ledger: ledgerRepo}
}

// HandleCompletion verifies and credits one callback. Outcomes:
// StatusCredited for a first delivery, StatusDuplicate for a redelivered
// transaction_id (benign, acknowledged to the provider), ErrInvalidSignature
// for authenticity failures, any other error for transient infrastructure
// faults where the provider is expected to retry.
func (s *Service) HandleCompletion(ctx context.Context, cb Callback) (Status, error) {
	key, err := s.keys.Key(ctx, cb.KeyID)
	if err != nil {
		if errors.Is(err, ErrUnknownKey) {
			logger.Error("Callback rejected: unknown signing key",
				"key_id", cb.KeyID,
				"transaction_id", cb.TransactionID,
			)
			metrics.RecordCallback("invalid_signature")
			return "", ErrInvalidSignature
		}
		return "", fmt.Errorf("failed to resolve signing key: %w", err)
	}

	if !VerifySignature(key, cb.Payload, cb.Signature) {
		logger.Error("Callback rejected: signature verification failed",
			"user_id", cb.UserID,
			"transaction_id", cb.TransactionID,
			"provider", cb.Provider,
		)
		metrics.RecordCallback("invalid_signature")
		return "", ErrInvalidSignature
	}

	entry := &ledger.Entry{
		UserID:        cb.UserID,
		Provider:      cb.Provider,
		EventType:     ledger.EventAdCompleted,
		RewardItem:    cb.RewardItem,
		RewardAmount:  cb.RewardAmount,
		TransactionID: cb.TransactionID,
		Signature:     cb.Signature,
		Verified:      true,
	}

	start := time.Now()
	err = s.ledger.RecordCompletion(ctx, entry)
	metrics.ObserveCreditDuration(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			logger.Info("Duplicate callback acknowledged",
				"transaction_id", cb.TransactionID,
				"user_id", cb.UserID,
			)
			metrics.RecordCallback("duplicate")
			return StatusDuplicate, nil
		}
		return "", fmt.Errorf("failed to record completion: %w", err)
	}

	logger.Info("Reward credited",
		"user_id", cb.UserID,
		"transaction_id", cb.TransactionID,
		"reward_item", cb.RewardItem,
		"reward_amount", cb.RewardAmount,
	)
	metrics.RecordCallback("credited")
	metrics.RecordRewardCredited(cb.RewardItem)
	return StatusCredited, nil
}
