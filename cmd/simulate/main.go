// Command simulate drives the client-side ad pipeline against a running
// gateway. It generates a throwaway signing key, serves the matching verifier
// key document on a local port, and then plays a batch of simulated ads whose
// completion callbacks land on the gateway.
//
// Point the gateway at the served keys before starting it:
//
//	SSV_KEYSET_URL=http://localhost:9091/keys ./app
package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"adgate/internal/adclient"
	"adgate/internal/api"
	"adgate/internal/auth"
	"adgate/internal/config"
	"adgate/internal/kvstore"
	"adgate/internal/logger"
	"adgate/internal/provider"
	"adgate/internal/rewardtoken"
	"adgate/internal/throttle"
)

const signingKeyID = 1

type fixedAge int

func (a fixedAge) Age(userID int) (int, bool) { return int(a), true }

type logSink struct{}

func (logSink) GrantReward(amount int64, kind string) {
	logger.Info("Optimistic reward granted", "amount", amount, "kind", kind)
}

func main() {
	userID := flag.Int("user", 1, "user id to run the pipeline as")
	age := flag.Int("age", 30, "reported age of the simulated user")
	ads := flag.Int("ads", 3, "number of ads to attempt")
	adDuration := flag.Duration("duration", 2*time.Second, "simulated playback length")
	keysAddr := flag.String("keys-addr", ":9091", "listen address for the verifier key document")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		logger.Fatalf("Failed to generate signing key: %v", err)
	}

	go serveKeys(*keysAddr, &priv.PublicKey)
	logger.Infof("Serving verifier keys on %s/keys", *keysAddr)

	store, err := kvstore.NewFileStore(cfg.StateDir, "client-state")
	if err != nil {
		logger.Fatalf("Failed to open client state: %v", err)
	}

	prov := provider.NewSimulated(*adDuration, rewardtoken.KindToken, 1)
	prov.CallbackURL = cfg.CallbackURL
	prov.SigningKey = priv
	prov.KeyID = signingKeyID

	client := adclient.New(
		fixedAge(*age),
		throttle.New(store, time.Duration(cfg.CooldownSeconds)*time.Second, cfg.DailyLimit),
		store,
		prov,
		rewardtoken.NewIssuer(store),
		logSink{},
		cfg.MinAdAge,
	)

	for i := 0; i < *ads; i++ {
		outcome, err := client.RequestAd(context.Background(), *userID)
		if err != nil {
			logger.Fatalf("Pipeline failed: %v", err)
		}

		switch outcome.Status {
		case adclient.StatusCompleted:
			claim, err := client.ClaimToken(*userID, outcome.Token.ID)
			if err != nil {
				logger.Fatalf("Token claim failed: %v", err)
			}
			logger.Info("Ad completed", "token_id", outcome.Token.ID, "claimed", claim.Success)
		case adclient.StatusRejected:
			logger.Info("Request rejected", "reason", outcome.Reason, "wait_seconds", outcome.WaitSeconds)
			if outcome.WaitSeconds > 0 && i < *ads-1 {
				logger.Infof("Waiting %ds for cooldown", outcome.WaitSeconds)
				time.Sleep(time.Duration(outcome.WaitSeconds) * time.Second)
			}
		default:
			logger.Info("Ad did not complete", "status", outcome.Status, "reason", outcome.Reason)
		}
	}

	// Give in-flight callbacks a moment, then read the authoritative balance.
	time.Sleep(time.Second)
	printBalance(cfg, *userID)
}

func serveKeys(addr string, pub *ecdsa.PublicKey) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		logger.Fatalf("Failed to marshal public key: %v", err)
	}
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	doc := map[string]interface{}{
		"keys": []map[string]interface{}{
			{"keyId": signingKeyID, "pem": pemStr},
		},
	}
	body, _ := json.Marshal(doc)

	mux := http.NewServeMux()
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("Key server failed: %v", err)
	}
}

// printBalance fetches the wallet through the gateway's own API so the run
// ends with the server's view of what the ads were worth.
func printBalance(cfg *config.Config, userID int) {
	token, err := auth.GenerateToken(userID, cfg.JWTSecret)
	if err != nil {
		logger.Fatalf("Failed to mint token: %v", err)
	}

	base := fmt.Sprintf("http://localhost:%s", cfg.Port)
	req, err := http.NewRequest(http.MethodGet, base+"/wallet", nil)
	if err != nil {
		logger.Fatalf("Failed to build wallet request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		logger.Errorf("Wallet lookup failed (is the gateway running?): %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Errorf("Wallet lookup returned %d: %s", resp.StatusCode, body)
		return
	}

	var balance api.BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		logger.Errorf("Failed to decode wallet response: %v", err)
		return
	}

	logger.Info("Server-side wallet", "balance", balance.Balance, "total_earned", balance.TotalEarned)
}
