// Package bus defines the message contract between the page-attached
// watcher and the privileged deckforge service. Lessonwatch is the
// producer; deckforge serves the other end over local HTTP. The same
// types are used for the in-process path.
package bus

import "github.com/hazyhaar/duoflash/mistake"

// MessageType discriminates the message variants.
type MessageType string

const (
	TypeFlushTrigger    MessageType = "flush-trigger"
	TypeRequestKey      MessageType = "request-credential"
	TypeStoreKey        MessageType = "store-credential"
)

// FlushMessage hands a drained batch of mistakes to deckforge. The buffer
// lives with the watcher, so the trigger carries the records wholesale.
type FlushMessage struct {
	Type MessageType      `json:"type"`
	ID   string           `json:"id"`
	Data []mistake.Record `json:"data,omitempty"`
}

// KeyMessage stores or removes the generative-service credential.
type KeyMessage struct {
	Type   MessageType `json:"type"`
	APIKey string      `json:"api_key,omitempty"`
}

// Ack is the structured acknowledgment for every message.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	APIKey  string `json:"apiKey,omitempty"`
}
