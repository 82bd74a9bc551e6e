// Package client talks to the document endpoint on behalf of tooling
// that keeps a local copy of the dataset, such as the watch command.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"labbudget/internal/core"
)

// ErrAuthRequired signals that the endpoint rejected the credential.
// Callers react by re-authenticating instead of reporting a fault.
var ErrAuthRequired = errors.New("authentication required")

// SessionSource provides the current session state. Token may return an
// empty string when no session exists; the request then goes out without
// a credential and the endpoint rejects it.
type SessionSource interface {
	Active() bool
	Token(ctx context.Context) (string, error)
}

type Client struct {
	baseURL string
	session SessionSource
	httpc   *http.Client
}

func New(baseURL string, session SessionSource) *Client {
	return &Client{
		baseURL: baseURL,
		session: session,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Load fetches the remote document and normalizes it, so older snapshots
// with missing budgets or workflow fields come back structurally complete.
func (c *Client) Load(ctx context.Context) (core.Document, error) {
	body, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return core.EmptyDocument(), err
	}

	doc, err := core.DecodeDocument(body)
	if err != nil {
		return core.EmptyDocument(), fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// Save replaces the remote document wholesale. Last write wins; there is
// no conflict detection against concurrent writers.
func (c *Client) Save(ctx context.Context, doc core.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, payload)
	return err
}

func (c *Client) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/data", reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.session.Active() {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("retrieving credential: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s /api/data: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuthRequired
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s /api/data: status %d: %s", method, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
