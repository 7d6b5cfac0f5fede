// Package reward turns notified entitlement into issued Plus gift cards.
package reward

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the gift-card issuing backend.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Secret     string
}

func NewClient(baseURL, secret string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    baseURL,
		Secret:     secret,
	}
}

type createRequest struct {
	DaysPerCard int64  `json:"days_per_card"`
	NumCards    int64  `json:"num_cards"`
	Secret      string `json:"secret"`
}

// CreateGiftCard requests numCards cards worth days of Plus each and
// returns the response body verbatim; that text is what the user redeems,
// so we never parse or rewrite it.
func (c *Client) CreateGiftCard(days, numCards int64) (string, error) {
	payload, err := json.Marshal(createRequest{
		DaysPerCard: days,
		NumCards:    numCards,
		Secret:      c.Secret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal gift card request: %w", err)
	}

	resp, err := c.HTTPClient.Post(c.BaseURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("request gift card: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gift card response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gift card backend returned %s: %s", resp.Status, body)
	}
	return string(body), nil
}
