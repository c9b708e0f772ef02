package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/repomind/repomind/internal/config"
)

// TransportError is the single failure type the gateway reports. Every
// request either decodes into the caller's value or fails with one of
// these; callers never see an untyped transport failure.
//
// The three shapes:
//   - no response received: Err is set and StatusCode is 0
//   - non-2xx status: StatusCode is set, Body holds the raw response,
//     ServerMessage holds the structured body's message field if any
//   - malformed 2xx body: StatusCode is 2xx and Err holds the decode error
type TransportError struct {
	Op            string
	StatusCode    int
	Body          []byte
	ServerMessage string
	Err           error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.ServerMessage != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.ServerMessage)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// NoResponse reports whether the request never reached the server
// (or no response came back at all).
func (e *TransportError) NoResponse() bool { return e.StatusCode == 0 }

// serverErrorBody is the structured error shape the backend uses
type serverErrorBody struct {
	Message string `json:"message"`
}

// Client is the credentialed HTTP client every domain call flows
// through. The session credential travels as an opaque cookie on each
// request; which backend origin it talks to is resolved once from
// configuration.
type Client struct {
	baseURL    string
	cookieName string
	credential string
	client     *http.Client
}

// NewClient creates a gateway client from the resolved configuration
func NewClient(cfg *config.Config) *Client {
	baseURL := cfg.Server.BaseURL
	// Make sure baseURL doesn't end with a slash
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	return &Client{
		baseURL:    baseURL,
		cookieName: cfg.Auth.CookieName,
		credential: cfg.Auth.SessionToken,
		client: &http.Client{
			Timeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	}
}

// Do issues one request against the backend. body, when non-nil, is
// JSON-encoded; out, when non-nil, receives the decoded 2xx response.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encoding request body: %w", err)}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("building request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.credential != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.credential})
	}

	log.Debug().Str("method", method).Str("path", path).Msg("sending request")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &TransportError{Op: op, StatusCode: resp.StatusCode, Body: raw}
		var parsed serverErrorBody
		if json.Unmarshal(raw, &parsed) == nil {
			te.ServerMessage = parsed.Message
		}
		log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("request rejected")
		return te
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &TransportError{Op: op, StatusCode: resp.StatusCode, Body: raw,
				Err: fmt.Errorf("decoding response body: %w", err)}
		}
	}

	return nil
}
