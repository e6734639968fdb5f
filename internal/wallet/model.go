package wallet

import "time"

// Wallet is the authoritative per-user balance. TotalEarned only ever grows;
// Balance may be spent down by subsystems outside this service.
type Wallet struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Balance     int64     `db:"balance" json:"balance"`
	TotalEarned int64     `db:"total_earned" json:"total_earned"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
