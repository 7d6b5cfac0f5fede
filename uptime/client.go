// Package uptime meters raw VM uptime from the fleet-status endpoint.
package uptime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the fleet-status endpoint, which reports the set of
// testing VMs currently up.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Secret     string
}

func NewClient(baseURL, secret string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		Secret:     secret,
	}
}

// ActiveAgents returns the ids of every VM the endpoint currently reports
// as up. The response is an object keyed by VM id; only the key set is
// consumed, the per-VM metadata is opaque to us.
func (c *Client) ActiveAgents() ([]string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse fleet url: %w", err)
	}
	q := u.Query()
	q.Set("secret", c.Secret)
	u.RawQuery = q.Encode()

	resp, err := c.HTTPClient.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch active VMs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fleet endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fleet response: %w", err)
	}

	var agents map[string]json.RawMessage
	if err := json.Unmarshal(body, &agents); err != nil {
		return nil, fmt.Errorf("unmarshal fleet response: %w", err)
	}

	ids := make([]string, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	return ids, nil
}
