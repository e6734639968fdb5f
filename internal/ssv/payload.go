// Package ssv implements server-side verification of ad completion callbacks:
// signature checking against provider-published keys and idempotent crediting
// through the reward ledger.
package ssv

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Payload is the signed portion of a completion callback. The canonical form
// must match byte for byte between signer and verifier, so parameters are
// serialized in fixed alphabetical order.
type Payload struct {
	UserID        int
	TransactionID string
	RewardItem    string
	RewardAmount  int64
	Provider      string
}

func (p Payload) canonical() string {
	return fmt.Sprintf(
		"ad_network_transaction_id=%s&provider=%s&reward_amount=%d&reward_item=%s&user_id=%d",
		p.TransactionID, p.Provider, p.RewardAmount, p.RewardItem, p.UserID,
	)
}

// Sign produces a base64url ASN.1 DER ECDSA signature over the canonical
// payload. Used by the simulated provider and by tests.
func Sign(priv *ecdsa.PrivateKey, p Payload) (string, error) {
	digest := sha256.Sum256([]byte(p.canonical()))
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// VerifySignature checks signature against pub. Padded and unpadded base64url
// encodings are both accepted; providers differ on this.
func VerifySignature(pub *ecdsa.PublicKey, p Payload, signature string) bool {
	sig, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(signature, "="))
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(p.canonical()))
	return ecdsa.VerifyASN1(pub, digest[:], sig)
}
