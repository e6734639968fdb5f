package wallet

import "context"

type Repository interface {
	GetByUserID(ctx context.Context, userID int) (*Wallet, error)
}
