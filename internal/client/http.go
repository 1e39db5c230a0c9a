package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPClient makes REST calls to the dashboard server's alert endpoints.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:5050").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetUnreadAlerts fetches /admin/alerts/unread.
func (c *HTTPClient) GetUnreadAlerts() (*UnreadAlerts, error) {
	var out UnreadAlerts
	if err := c.do(http.MethodGet, "/admin/alerts/unread", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkAlertRead sends POST /admin/alerts/mark_read/{id}.
func (c *HTTPClient) MarkAlertRead(alertID int) (*ActionResult, error) {
	var out ActionResult
	if err := c.do(http.MethodPost, "/admin/alerts/mark_read/"+strconv.Itoa(alertID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveAlert sends POST /admin/alerts/resolve/{id}.
func (c *HTTPClient) ResolveAlert(alertID int) (*ActionResult, error) {
	var out ActionResult
	if err := c.do(http.MethodPost, "/admin/alerts/resolve/"+strconv.Itoa(alertID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(method, path string, out interface{}) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		var res ActionResult
		if json.Unmarshal(body, &res) == nil && res.Message != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, res.Message)
		}
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
