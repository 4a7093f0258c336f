// Package authz decides whether an intercepted tool invocation may proceed.
//
// When a team URL is configured, each invocation is reported to the policy
// service and its verdict is honored. When the service cannot be reached the
// fail-open setting decides: allow the invocation or block it.
package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 5 * time.Second

// Event describes one intercepted tool invocation.
type Event struct {
	Assistant string `json:"assistant"`
	ToolName  string `json:"tool_name"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Decision is the verdict for one invocation.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason,omitempty"`
}

// Client reports invocations to the policy endpoint.
type Client struct {
	teamURL  string
	failOpen bool
	http     *http.Client
}

// NewClient builds a client for the given team URL. An empty URL means no
// remote policy; Check then allows everything locally.
func NewClient(teamURL string, failOpen bool) *Client {
	return &Client{
		teamURL:  strings.TrimSuffix(teamURL, "/"),
		failOpen: failOpen,
		http:     &http.Client{Timeout: requestTimeout},
	}
}

// Check submits the event and returns the service's decision. Transport
// failures and non-200 responses fall back to the fail-open setting; the
// returned error carries the cause so callers can log it, alongside a usable
// Decision either way.
func (c *Client) Check(ctx context.Context, event Event) (Decision, error) {
	if c.teamURL == "" {
		return Decision{Allow: true}, nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return c.fallback(), fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.teamURL+"/v1/tool-use", bytes.NewReader(body))
	if err != nil {
		return c.fallback(), fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fallback(), fmt.Errorf("policy service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fallback(), fmt.Errorf("policy service returned %s", resp.Status)
	}

	var decision Decision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return c.fallback(), fmt.Errorf("decode decision: %w", err)
	}
	return decision, nil
}

func (c *Client) fallback() Decision {
	if c.failOpen {
		return Decision{Allow: true, Reason: "policy service unavailable, failing open"}
	}
	return Decision{Allow: false, Reason: "policy service unavailable, failing closed"}
}
