// Package rewardtoken mints short-lived client tokens so the UI can reflect a
// reward optimistically while the authoritative credit travels through the
// verification gateway. A token is a correlation handle, not proof of payment:
// the wallet is only changed server-side.
package rewardtoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"adgate/internal/kvstore"
)

// TTL is how long a token stays claimable after issuance.
const TTL = 5 * time.Minute

const (
	KindToken = "token"
	KindRetry = "retry"
)

const (
	ReasonInvalidToken = "invalid_token"
	ReasonExpired      = "expired"
)

type Token struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Amount   int64     `json:"amount"`
	IssuedAt time.Time `json:"issued_at"`
	Claimed  bool      `json:"claimed"`
}

type ClaimResult struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type Issuer struct {
	store kvstore.Store
	now   func() time.Time
}

func NewIssuer(store kvstore.Store) *Issuer {
	return &Issuer{store: store, now: time.Now}
}

func tokensKey(userID int) string {
	return fmt.Sprintf("tokens:%d", userID)
}

func (i *Issuer) loadTokens(userID int) (map[string]Token, error) {
	tokens := map[string]Token{}
	err := i.store.Get(tokensKey(userID), &tokens)
	if err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, err
	}
	return tokens, nil
}

// Issue mints an opaque token for a completed ad. The id only needs to be
// unguessable enough to avoid collisions between concurrent issues.
func (i *Issuer) Issue(userID int, kind string, amount int64) (*Token, error) {
	tokens, err := i.loadTokens(userID)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate token id: %w", err)
	}

	now := i.now()
	token := Token{
		ID:       fmt.Sprintf("%d-%s", now.UnixNano(), hex.EncodeToString(buf)),
		Kind:     kind,
		Amount:   amount,
		IssuedAt: now,
	}

	// Drop stale entries while we hold the map anyway.
	for id, t := range tokens {
		if now.Sub(t.IssuedAt) > TTL {
			delete(tokens, id)
		}
	}

	tokens[token.ID] = token
	if err := i.store.Put(tokensKey(userID), tokens); err != nil {
		return nil, err
	}

	return &token, nil
}

// Claim consumes a token. Unknown or already claimed ids report invalid_token;
// anything older than TTL reports expired regardless of claimed state. At most
// one claim ever succeeds per token.
func (i *Issuer) Claim(userID int, tokenID string) (ClaimResult, error) {
	tokens, err := i.loadTokens(userID)
	if err != nil {
		return ClaimResult{}, err
	}

	token, ok := tokens[tokenID]
	if !ok {
		return ClaimResult{Reason: ReasonInvalidToken}, nil
	}

	if i.now().Sub(token.IssuedAt) > TTL {
		delete(tokens, tokenID)
		if err := i.store.Put(tokensKey(userID), tokens); err != nil {
			return ClaimResult{}, err
		}
		return ClaimResult{Reason: ReasonExpired}, nil
	}

	if token.Claimed {
		return ClaimResult{Reason: ReasonInvalidToken}, nil
	}

	token.Claimed = true
	tokens[tokenID] = token
	if err := i.store.Put(tokensKey(userID), tokens); err != nil {
		return ClaimResult{}, err
	}

	return ClaimResult{Success: true, Kind: token.Kind, Amount: token.Amount}, nil
}
