package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chatrelay/chatrelay/domain"
)

const defaultRequestTimeout = 60 * time.Second

// HTTPTransport sends RelayRequests to the relay's POST /api/chat
// endpoint.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Send performs one round trip. Network failures, non-2xx statuses,
// unparseable bodies and a missing reply field all surface as errors;
// the caller decides how to present them.
func (t *HTTPTransport) Send(ctx context.Context, relayReq domain.RelayRequest) (string, error) {
	body, err := json.Marshal(relayReq)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		Reply string `json:"reply"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return "", fmt.Errorf("relay returned %d: %s", resp.StatusCode, decoded.Error)
		}
		return "", fmt.Errorf("relay returned %d", resp.StatusCode)
	}

	if decoded.Reply == "" {
		return "", fmt.Errorf("relay response missing reply")
	}

	return decoded.Reply, nil
}
