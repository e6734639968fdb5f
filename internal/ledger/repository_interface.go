package ledger

import (
	"context"
	"time"
)

type Repository interface {
	RecordCompletion(ctx context.Context, entry *Entry) error
	RecentByUser(ctx context.Context, userID int, since time.Time) ([]Entry, error)
	CountSince(ctx context.Context, userID int, since time.Time) (int, error)
}
