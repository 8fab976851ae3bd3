// Package statusync keeps a view in step with the recorder's status
// endpoints.
package statusync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mccdaq/models"

	"github.com/gorilla/websocket"
)

// Endpoint names, relative to the client's base URL.
const (
	StatusPath = "status.json"
	StartPath  = "start.json"
	StopPath   = "stop.json"
	WatchPath  = "status.ws"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

var (
	_ API     = (*Client)(nil)
	_ Watcher = (*Client)(nil)
)

// Client speaks the recorder's JSON endpoints over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a Client for the server at base, an http or https URL.
func New(base string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	return &Client{
		base: u,
		http: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) Status(ctx context.Context) (models.RecordingStatus, error) {
	return c.do(ctx, http.MethodGet, StatusPath, nil)
}

// Start sends title and content form encoded.
func (c *Client) Start(ctx context.Context, title, content string) (models.RecordingStatus, error) {
	form := url.Values{"title": {title}, "content": {content}}
	return c.do(ctx, http.MethodPost, StartPath, strings.NewReader(form.Encode()))
}

// Stop posts with no body.
func (c *Client) Stop(ctx context.Context) (models.RecordingStatus, error) {
	return c.do(ctx, http.MethodPost, StopPath, nil)
}

// Watch calls fn for every status the server pushes. It returns nil once ctx
// is done and the connection error otherwise.
func (c *Client) Watch(ctx context.Context, fn func(models.RecordingStatus)) error {
	u := c.base.ResolveReference(&url.URL{Path: WatchPath})
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		var status models.RecordingStatus
		if err := conn.ReadJSON(&status); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(status)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (models.RecordingStatus, error) {
	var status models.RecordingStatus

	u := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return status, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return status, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var p struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&p)
		return status, &StatusError{Code: res.StatusCode, Message: p.Error}
	}

	if err := json.NewDecoder(res.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode %s: %w", path, err)
	}

	return status, nil
}
