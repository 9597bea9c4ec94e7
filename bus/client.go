package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/duoflash/mistake"
)

// Client talks to a deckforge bus endpoint over local HTTP. Delivery is
// at-most-once: no retries, a failed send is the caller's to log and drop.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient creates a bus client for the given base URL
// (e.g. http://127.0.0.1:8789).
func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Flush delivers a drained batch as a flush-trigger message.
func (c *Client) Flush(ctx context.Context, records []mistake.Record) error {
	msg := FlushMessage{Type: TypeFlushTrigger, ID: uuid.NewString(), Data: records}
	var ack Ack
	if err := c.post(ctx, http.MethodPost, "/api/flush", msg, &ack); err != nil {
		return err
	}
	if !ack.Success {
		return fmt.Errorf("bus: flush rejected: %s", ack.Message)
	}
	return nil
}

// RequestKey fetches the stored credential. Returns "" when none is set.
func (c *Client) RequestKey(ctx context.Context) (string, error) {
	var ack Ack
	if err := c.post(ctx, http.MethodGet, "/api/key", nil, &ack); err != nil {
		return "", err
	}
	if !ack.Success {
		return "", fmt.Errorf("bus: request-credential rejected: %s", ack.Message)
	}
	return ack.APIKey, nil
}

// StoreKey stores the credential.
func (c *Client) StoreKey(ctx context.Context, apiKey string) error {
	msg := KeyMessage{Type: TypeStoreKey, APIKey: apiKey}
	var ack Ack
	if err := c.post(ctx, http.MethodPut, "/api/key", msg, &ack); err != nil {
		return err
	}
	if !ack.Success {
		return fmt.Errorf("bus: store-credential rejected: %s", ack.Message)
	}
	return nil
}

// RemoveKey deletes the credential.
func (c *Client) RemoveKey(ctx context.Context) error {
	var ack Ack
	if err := c.post(ctx, http.MethodDelete, "/api/key", nil, &ack); err != nil {
		return err
	}
	if !ack.Success {
		return fmt.Errorf("bus: remove-credential rejected: %s", ack.Message)
	}
	return nil
}

func (c *Client) post(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("bus: marshal: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("bus: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("bus: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bus: decode ack: %w", err)
	}
	return nil
}
