// Package fibclient is a REST client for internal/api's HTTP/JSON shim
// around fib.Core, mirroring a conventional REST client shape: a single
// Client type with a low-level do() and one method per endpoint, used by
// fibctl to drive a running corefib process the way an operator or a test
// rig would.
package fibclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
)

// Client talks to a running corefib API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client pointed at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int    `json:"status"`
	Detail     string `json:"detail"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Detail)
}

func (c *Client) do(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Detail != "" {
			apiErr.StatusCode = resp.StatusCode
			return &apiErr
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}

// InstallRoute installs key, bound to resolution-object root.
func (c *Client) InstallRoute(key fib.RouteKey, root handle.Handle) error {
	body := map[string]any{"key": key, "root": root}
	return c.do(http.MethodPost, "/api/v1/routes", body, nil)
}

// UpdateRoute rebinds key to newRoot.
func (c *Client) UpdateRoute(key fib.RouteKey, newRoot handle.Handle) error {
	body := map[string]any{"key": key, "new_root": newRoot}
	return c.do(http.MethodPut, "/api/v1/routes", body, nil)
}

// WithdrawRoute removes key.
func (c *Client) WithdrawRoute(key fib.RouteKey) error {
	body := map[string]any{"key": key}
	return c.do(http.MethodDelete, "/api/v1/routes", body, nil)
}

// StoreStats is the node store's size.
type StoreStats struct {
	NodeCount int `json:"node_count"`
}

// StoreStats returns the node store's current size.
func (c *Client) StoreStats() (StoreStats, error) {
	var stats StoreStats
	err := c.do(http.MethodGet, "/api/v1/store/stats", nil, &stats)
	return stats, err
}

// GetNode returns the raw node store entry for h, as a generic map since
// the server-side type varies by resolution-object kind.
func (c *Client) GetNode(h handle.Handle) (map[string]any, error) {
	var node map[string]any
	err := c.do(http.MethodGet, fmt.Sprintf("/api/v1/store/nodes/%d", uint64(h)), nil, &node)
	return node, err
}

// LinkEvent injects an IGP adjacency up/down transition.
func (c *Client) LinkEvent(link string, up bool) error {
	body := map[string]any{"link": link, "up": up}
	return c.do(http.MethodPost, "/api/v1/events/link", body, nil)
}

// BfdDown injects a BFD session-down transition.
func (c *Client) BfdDown(session string) error {
	body := map[string]any{"session": session}
	return c.do(http.MethodPost, "/api/v1/events/bfd/down", body, nil)
}

// BfdUp injects a BFD session-up transition.
func (c *Client) BfdUp(session string) error {
	body := map[string]any{"session": session}
	return c.do(http.MethodPost, "/api/v1/events/bfd/up", body, nil)
}

// InterfaceDown injects a local interface-down transition.
func (c *Client) InterfaceDown(port uint32) error {
	body := map[string]any{"port": port}
	return c.do(http.MethodPost, "/api/v1/events/interface/down", body, nil)
}

// InterfaceUp injects a local interface-up transition.
func (c *Client) InterfaceUp(port uint32) error {
	body := map[string]any{"port": port}
	return c.do(http.MethodPost, "/api/v1/events/interface/up", body, nil)
}

// RouteChange injects an external LPM route-table mutation for routeID.
func (c *Client) RouteChange(routeID store.RouteID, change routetable.ChangeKind) error {
	body := map[string]any{"route_id": routeID, "change": change}
	return c.do(http.MethodPost, "/api/v1/events/route-change", body, nil)
}
