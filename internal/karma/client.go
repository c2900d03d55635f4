package karma

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const lookupTimeout = 10 * time.Second

// Client calls the Adjutor Karma lookup API. Failures other than a definite
// blacklist hit resolve to "not blacklisted": an Adjutor outage must not block
// every registration.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs an Adjutor Karma client.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: lookupTimeout},
		logger:  logger,
	}
}

type lookupResponse struct {
	Data json.RawMessage `json:"data"`
}

// IsBlacklisted looks up the identity in the Karma system. A 404 means the
// identity is unknown to Karma and therefore clean.
func (c *Client) IsBlacklisted(ctx context.Context, identity string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v2/verification/karma/%s", c.baseURL, url.PathEscape(identity))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("karma lookup unreachable, allowing", slog.Any("error", err))
		return false, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("karma lookup failed, allowing", slog.Int("status", resp.StatusCode))
		return false, nil
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("karma response undecodable, allowing", slog.Any("error", err))
		return false, nil
	}

	// A non-null data field means the identity is on the blacklist.
	return len(body.Data) > 0 && string(body.Data) != "null", nil
}
