package ledger

import (
	"context"
	"errors"
	"time"

	"adgate/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicateTransaction marks a redelivered transaction_id. Expected under
// at-least-once webhook delivery and benign: the first delivery already
// credited the wallet.
var ErrDuplicateTransaction = errors.New("transaction already recorded")

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// RecordCompletion appends the ledger row and credits the wallet in one
// transaction. The insert itself detects duplicates through the unique
// constraint on transaction_id; there is deliberately no lookup beforehand,
// because a check-then-insert pair is a race under concurrent redelivery.
// Only the "token" item maps to a wallet credit; "retry" rows are recorded
// for the retry-fulfillment subsystem to read.
func (r *repository) RecordCompletion(ctx context.Context, entry *Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reward_ledger (user_id, provider, event_type, reward_item, reward_amount, transaction_id, signature, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = tx.QueryRowxContext(ctx, query,
		entry.UserID,
		entry.Provider,
		entry.EventType,
		entry.RewardItem,
		entry.RewardAmount,
		entry.TransactionID,
		entry.Signature,
		entry.Verified,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateTransaction
		}
		return err
	}

	if entry.RewardItem == ItemToken {
		if err := wallet.CreditTx(ctx, tx, entry.UserID, entry.RewardAmount); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) RecentByUser(ctx context.Context, userID int, since time.Time) ([]Entry, error) {
	query := `
		SELECT id, user_id, provider, event_type, reward_item, reward_amount, transaction_id, signature, verified, created_at
		FROM reward_ledger
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`

	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, query, userID, since)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *repository) CountSince(ctx context.Context, userID int, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reward_ledger
		WHERE user_id = $1 AND created_at >= $2
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, userID, since)
	if err != nil {
		return 0, err
	}

	return count, nil
}
