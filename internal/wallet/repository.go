package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrWalletNotFound = errors.New("wallet not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserID(ctx context.Context, userID int) (*Wallet, error) {
	query := `
		SELECT id, user_id, balance, total_earned, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var w Wallet
	err := r.db.GetContext(ctx, &w, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	return &w, nil
}

// CreditTx adds amount to both balance and total_earned inside the caller's
// transaction, creating the wallet lazily on first credit. The upsert keeps
// two concurrent first-credits for the same user from racing.
func CreditTx(ctx context.Context, tx *sqlx.Tx, userID int, amount int64) error {
	query := `
		INSERT INTO wallets (user_id, balance, total_earned)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance,
		    total_earned = wallets.total_earned + EXCLUDED.total_earned,
		    updated_at = NOW()
	`

	_, err := tx.ExecContext(ctx, query, userID, amount)
	return err
}
