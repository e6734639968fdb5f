package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"adgate/internal/logger"
)

// Network bridges to the real ad SDK through a local HTTP bridge process.
// The real network delivers its SSV callback to the gateway directly, so this
// adapter never self-posts; it only reports what the SDK showed the user.
type Network struct {
	bridgeURL  string
	httpClient *http.Client
}

func NewNetwork(bridgeURL string) *Network {
	return &Network{
		bridgeURL:  bridgeURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (n *Network) Name() string { return "adnetwork" }

func (n *Network) IsAvailable() bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(n.bridgeURL + "/ready")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (n *Network) ShowAd(ctx context.Context, userID int) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		url := fmt.Sprintf("%s/show?user_id=%d", n.bridgeURL, userID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			out <- Result{Reason: ReasonLoadFailed}
			return
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				out <- Result{Reason: ReasonUserCanceled}
				return
			}
			logger.Errorf("Ad bridge request failed: %v", err)
			out <- Result{Reason: ReasonLoadFailed}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			out <- Result{Reason: ReasonLoadFailed}
			return
		}

		var result Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			logger.Errorf("Ad bridge returned malformed result: %v", err)
			out <- Result{Reason: ReasonLoadFailed}
			return
		}

		out <- result
	}()

	return out
}
