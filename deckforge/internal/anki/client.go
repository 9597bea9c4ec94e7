// Package anki talks to a local AnkiConnect endpoint and publishes
// generated decks as notes.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const apiVersion = 6

// Client is a thin wrapper over the AnkiConnect JSON-over-HTTP action
// protocol. All calls are single-shot; the caller decides what a failure
// means.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

func (c *Client) call(ctx context.Context, action string, params any, out any) error {
	body, err := json.Marshal(request{Action: action, Version: apiVersion, Params: params})
	if err != nil {
		return fmt.Errorf("anki: marshal %s: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("anki: %s: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("anki: %s: %w", action, err)
	}
	defer resp.Body.Close()

	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("anki: %s: decode: %w", action, err)
	}
	if env.Error != nil && *env.Error != "" {
		return &ActionError{Action: action, Reason: *env.Error}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("anki: %s: result: %w", action, err)
		}
	}
	return nil
}

// ActionError is a failure reported by AnkiConnect itself, as opposed to
// a transport failure.
type ActionError struct {
	Action string
	Reason string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("anki: %s: %s", e.Action, e.Reason)
}

// Version probes the endpoint. A successful answer means Anki is running
// with the AnkiConnect add-on loaded.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.call(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// CreateDeck creates the named deck. An "already exists" answer counts
// as success so publishing into an existing collection keeps working.
func (c *Client) CreateDeck(ctx context.Context, name string) error {
	err := c.call(ctx, "createDeck", map[string]string{"deck": name}, nil)
	var ae *ActionError
	if errors.As(err, &ae) && strings.Contains(ae.Reason, "already exists") {
		return nil
	}
	return err
}

// ModelNames lists the note types available in the running Anki profile.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.call(ctx, "modelNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelFieldNames lists the field names of one note type, in order.
func (c *Client) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var fields []string
	params := map[string]string{"modelName": model}
	if err := c.call(ctx, "modelFieldNames", params, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Note is one note to add.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

// AddNote adds a single note and returns its id.
func (c *Client) AddNote(ctx context.Context, n Note) (int64, error) {
	var id int64
	if err := c.call(ctx, "addNote", map[string]any{"note": n}, &id); err != nil {
		return 0, err
	}
	return id, nil
}
