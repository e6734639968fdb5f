package ssv

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"os"
	"testing"
	"time"

	"adgate/internal/ledger"
	"adgate/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type staticKeys struct {
	keys map[int64]*ecdsa.PublicKey
}

func (s *staticKeys) Key(_ context.Context, keyID int64) (*ecdsa.PublicKey, error) {
	key, ok := s.keys[keyID]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

type MockLedgerRepo struct{ mock.Mock }

func (m *MockLedgerRepo) RecordCompletion(ctx context.Context, entry *ledger.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLedgerRepo) RecentByUser(ctx context.Context, userID int, since time.Time) ([]ledger.Entry, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) CountSince(ctx context.Context, userID int, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func signedCallback(t *testing.T, priv *ecdsa.PrivateKey, keyID int64) Callback {
	t.Helper()
	payload := testPayload()
	sig, err := Sign(priv, payload)
	require.NoError(t, err)

	return Callback{Payload: payload, Signature: sig, KeyID: keyID}
}

func TestHandleCompletion_CreditsVerifiedCallback(t *testing.T) {
	priv := generateTestKey(t)
	keys := &staticKeys{keys: map[int64]*ecdsa.PublicKey{7: &priv.PublicKey}}
	repo := new(MockLedgerRepo)

	repo.On("RecordCompletion", mock.Anything, mock.MatchedBy(func(e *ledger.Entry) bool {
		return e.TransactionID == "tx1" &&
			e.UserID == 10 &&
			e.RewardItem == ledger.ItemToken &&
			e.RewardAmount == 1 &&
			e.Verified
	})).Return(nil)

	service := NewService(keys, repo)

	status, err := service.HandleCompletion(context.Background(), signedCallback(t, priv, 7))
	require.NoError(t, err)
	assert.Equal(t, StatusCredited, status)
	repo.AssertExpectations(t)
}

func TestHandleCompletion_DuplicateIsBenign(t *testing.T) {
	priv := generateTestKey(t)
	keys := &staticKeys{keys: map[int64]*ecdsa.PublicKey{7: &priv.PublicKey}}
	repo := new(MockLedgerRepo)

	repo.On("RecordCompletion", mock.Anything, mock.Anything).Return(ledger.ErrDuplicateTransaction)

	service := NewService(keys, repo)

	status, err := service.HandleCompletion(context.Background(), signedCallback(t, priv, 7))
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, status)
}

func TestHandleCompletion_BadSignatureWritesNothing(t *testing.T) {
	priv := generateTestKey(t)
	keys := &staticKeys{keys: map[int64]*ecdsa.PublicKey{7: &priv.PublicKey}}
	repo := new(MockLedgerRepo)

	cb := signedCallback(t, priv, 7)
	cb.RewardAmount = 1000 // tampered after signing

	service := NewService(keys, repo)

	_, err := service.HandleCompletion(context.Background(), cb)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	repo.AssertNotCalled(t, "RecordCompletion", mock.Anything, mock.Anything)
}

func TestHandleCompletion_UnknownKeyRejected(t *testing.T) {
	priv := generateTestKey(t)
	keys := &staticKeys{keys: map[int64]*ecdsa.PublicKey{}}
	repo := new(MockLedgerRepo)

	service := NewService(keys, repo)

	_, err := service.HandleCompletion(context.Background(), signedCallback(t, priv, 7))
	assert.ErrorIs(t, err, ErrInvalidSignature)
	repo.AssertNotCalled(t, "RecordCompletion", mock.Anything, mock.Anything)
}

func TestHandleCompletion_LedgerFailureIsTransient(t *testing.T) {
	priv := generateTestKey(t)
	keys := &staticKeys{keys: map[int64]*ecdsa.PublicKey{7: &priv.PublicKey}}
	repo := new(MockLedgerRepo)

	repo.On("RecordCompletion", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	service := NewService(keys, repo)

	_, err := service.HandleCompletion(context.Background(), signedCallback(t, priv, 7))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}
