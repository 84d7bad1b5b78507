// Package pushover performs the outbound delivery call to the Pushover API.
package pushover

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/metrics"
)

// DefaultEndpoint is the fixed Pushover message endpoint.
const DefaultEndpoint = "https://api.pushover.net/1/messages.json"

// maxBodyBytes caps how much of a provider response is retained.
const maxBodyBytes = 64 << 10

// Result is the provider's raw answer, returned without interpretation.
type Result struct {
	StatusCode int
	Body       string
}

// Client dispatches messages with decrypted provider credentials.
type Client struct {
	endpoint string
	hc       *http.Client
}

// NewClient builds a client with a bounded request timeout.
// endpoint may be empty to use DefaultEndpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{endpoint: endpoint, hc: &http.Client{Timeout: timeout}}
}

// Send posts one message. Transport-level failures (unreachable endpoint,
// timeout) surface as *errs.DispatchError; any provider response, success or
// not, is returned as-is for the caller to interpret.
func (c *Client) Send(ctx context.Context, appToken, userKey, message string) (Result, error) {
	form := url.Values{
		"token":   {appToken},
		"user":    {userKey},
		"message": {message},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, &errs.DispatchError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.hc.Do(req)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Result{}, &errs.DispatchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, &errs.DispatchError{Err: err}
	}
	return Result{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
