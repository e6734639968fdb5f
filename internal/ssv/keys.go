package ssv

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"adgate/internal/logger"

	"github.com/redis/go-redis/v9"
)

var ErrUnknownKey = errors.New("unknown signing key")

const (
	keyCacheKey = "ssv:verifier_keys"

	// minRefreshInterval caps how often an unknown keyId can force a refetch.
	minRefreshInterval = 30 * time.Second
)

// keyDocument mirrors the provider-hosted JSON key listing. Keys may carry
// the public key as PEM or as base64 DER; both appear in the wild.
type keyDocument struct {
	Keys []struct {
		KeyID  int64  `json:"keyId"`
		PEM    string `json:"pem"`
		Base64 string `json:"base64"`
	} `json:"keys"`
}

// KeySet resolves provider signing keys by id. The raw key document is cached
// in Redis so a fleet of gateway instances does not hammer the provider, with
// a parsed in-process map in front. An unknown keyId triggers one refetch
// before rejection, which rides out provider key rotation without restarts.
type KeySet struct {
	url        string
	httpClient *http.Client
	redis      *redis.Client
	cacheTTL   time.Duration

	mu          sync.RWMutex
	keys        map[int64]*ecdsa.PublicKey
	lastRefresh time.Time
}

func NewKeySet(url string, rdb *redis.Client, cacheTTL time.Duration) *KeySet {
	return &KeySet{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		redis:      rdb,
		cacheTTL:   cacheTTL,
		keys:       map[int64]*ecdsa.PublicKey{},
	}
}

// Key returns the public key for keyID, refreshing the cached document once
// if the id is not yet known.
func (ks *KeySet) Key(ctx context.Context, keyID int64) (*ecdsa.PublicKey, error) {
	ks.mu.RLock()
	key, ok := ks.keys[keyID]
	ks.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := ks.refresh(ctx); err != nil {
		return nil, err
	}

	ks.mu.RLock()
	key, ok = ks.keys[keyID]
	ks.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

func (ks *KeySet) refresh(ctx context.Context) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if len(ks.keys) > 0 && time.Since(ks.lastRefresh) < minRefreshInterval {
		return nil
	}

	doc, err := ks.loadDocument(ctx)
	if err != nil {
		return err
	}

	keys := make(map[int64]*ecdsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		pub, err := parsePublicKey(k.PEM, k.Base64)
		if err != nil {
			logger.Errorf("Skipping unparsable verifier key %d: %v", k.KeyID, err)
			continue
		}
		keys[k.KeyID] = pub
	}

	if len(keys) == 0 {
		return fmt.Errorf("key document from %s contained no usable keys", ks.url)
	}

	ks.keys = keys
	ks.lastRefresh = time.Now()
	return nil
}

// loadDocument prefers the Redis-cached copy and falls back to a direct fetch.
// Redis being down degrades to fetching, never to rejecting valid signatures.
func (ks *KeySet) loadDocument(ctx context.Context) (*keyDocument, error) {
	if ks.redis != nil {
		cached, err := ks.redis.Get(ctx, keyCacheKey).Result()
		if err == nil {
			var doc keyDocument
			if jsonErr := json.Unmarshal([]byte(cached), &doc); jsonErr == nil && len(doc.Keys) > 0 {
				return &doc, nil
			}
			// Corrupt cache entry: fall through to a fresh fetch.
		} else if !errors.Is(err, redis.Nil) {
			logger.Errorf("Verifier key cache read failed: %v", err)
		}
	}

	raw, err := ks.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var doc keyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse key document: %w", err)
	}

	if ks.redis != nil {
		if err := ks.redis.Set(ctx, keyCacheKey, raw, ks.cacheTTL).Err(); err != nil {
			logger.Errorf("Verifier key cache write failed: %v", err)
		}
	}

	return &doc, nil
}

func (ks *KeySet) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ks.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch verifier keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifier key endpoint returned %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func parsePublicKey(pemStr, b64 string) (*ecdsa.PublicKey, error) {
	var der []byte

	switch {
	case pemStr != "":
		block, _ := pem.Decode([]byte(pemStr))
		if block == nil {
			return nil, errors.New("invalid PEM block")
		}
		der = block.Bytes
	case b64 != "":
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 key: %w", err)
		}
		der = decoded
	default:
		return nil, errors.New("key has neither pem nor base64 material")
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}

	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected key type %T", parsed)
	}
	return pub, nil
}
