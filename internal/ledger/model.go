package ledger

import "time"

const (
	ItemToken = "token"
	ItemRetry = "retry"

	EventAdCompleted = "ad_completed"
)

// Entry is one accepted completion event. Rows are append-only and
// transaction_id carries a schema-level unique constraint; that constraint is
// the sole mechanism preventing double-crediting under concurrent redelivery.
type Entry struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	Provider      string    `db:"provider" json:"provider"`
	EventType     string    `db:"event_type" json:"event_type"`
	RewardItem    string    `db:"reward_item" json:"reward_item"`
	RewardAmount  int64     `db:"reward_amount" json:"reward_amount"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	Signature     string    `db:"signature" json:"-"`
	Verified      bool      `db:"verified" json:"verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
