package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID stamped on a client-originated
// write or read so every hop of its shard fan-out can be correlated in
// logs across nodes.
const RequestIDHeader = "X-Request-Id"

// Info describes one replica-holding node: where it can be reached and
// what the coordinator last observed of its health. It is the unit peer
// registration, broadcast, and health checks all operate on.
type Info struct {
	ID              string    `json:"id"`
	Addr            string    `json:"addr"`
	Status          string    `json:"status,omitempty"`
	LastHealthCheck time.Time `json:"last_health_check,omitempty"`
}

// RegisterRequest is what a node sends the coordinator to join the
// cluster; the coordinator replies with the registered Info.
type RegisterRequest struct {
	Node Info `json:"node"`
}

// BroadcastRequest is one message the coordinator fans out to every
// registered node, routed by Path.
type BroadcastRequest struct {
	Path    string          `json:"path"`
	Payload json.RawMessage `json:"payload"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// contextKey avoids collisions with keys other packages might stash on
// the same context.
type contextKey int

const requestIDKey contextKey = 0

// WithRequestID attaches id to ctx so PostJSON/GetJSON can propagate it on
// the outgoing request. It does not generate an ID itself; use
// NewRequestID to mint one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stashed by WithRequestID,
// or the empty string if none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// NewRequestID mints a fresh request ID for an operation that didn't
// receive one from its caller, e.g. an admin-initiated broadcast.
func NewRequestID() string {
	return uuid.NewString()
}

// PostJSON sends body JSON-encoded to url, decoding the response into out
// (if non-nil). The request ID on ctx, if any, is propagated as a header
// so the receiving node's logs can be correlated with the caller's.
func PostJSON(ctx context.Context, url string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON sends a GET request to url and decodes the response into out,
// propagating the request ID on ctx as a header.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
