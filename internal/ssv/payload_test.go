package ssv

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return priv
}

func testPayload() Payload {
	return Payload{
		UserID:        10,
		TransactionID: "tx1",
		RewardItem:    "token",
		RewardAmount:  1,
		Provider:      "simulated",
	}
}

func TestSignAndVerify(t *testing.T) {
	priv := generateTestKey(t)
	payload := testPayload()

	sig, err := Sign(priv, payload)
	require.NoError(t, err)

	assert.True(t, VerifySignature(&priv.PublicKey, payload, sig))
}

func TestVerify_TamperedPayloadFails(t *testing.T) {
	priv := generateTestKey(t)
	payload := testPayload()

	sig, err := Sign(priv, payload)
	require.NoError(t, err)

	tampered := payload
	tampered.RewardAmount = 1000
	assert.False(t, VerifySignature(&priv.PublicKey, tampered, sig))

	tampered = payload
	tampered.UserID = 11
	assert.False(t, VerifySignature(&priv.PublicKey, tampered, sig))
}

func TestVerify_WrongKeyFails(t *testing.T) {
	priv := generateTestKey(t)
	other := generateTestKey(t)
	payload := testPayload()

	sig, err := Sign(priv, payload)
	require.NoError(t, err)

	assert.False(t, VerifySignature(&other.PublicKey, payload, sig))
}

func TestVerify_GarbageSignatureFails(t *testing.T) {
	priv := generateTestKey(t)

	assert.False(t, VerifySignature(&priv.PublicKey, testPayload(), "not base64!!"))
	assert.False(t, VerifySignature(&priv.PublicKey, testPayload(), ""))
}

func TestVerify_PaddedEncodingAccepted(t *testing.T) {
	priv := generateTestKey(t)
	payload := testPayload()

	sig, err := Sign(priv, payload)
	require.NoError(t, err)

	assert.True(t, VerifySignature(&priv.PublicKey, payload, sig+"=="))
}
