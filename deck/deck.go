// Package deck defines the flashcard deck produced by synthesis. The JSON
// field names (mazo, tarjetas, categoria, consejo) are the wire contract
// with the generative model and are fixed: the instruction prompt demands
// exactly this shape back.
package deck

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrNoJSON is returned by Parse when the text contains no parseable
	// JSON object, even after brace extraction.
	ErrNoJSON = errors.New("deck: no JSON object found in response text")

	// ErrInvalidShape is returned by Validate when the deck name or the
	// card array is missing.
	ErrInvalidShape = errors.New("deck: response missing deck name or card array")
)

// Card is one proposed flashcard.
type Card struct {
	Front    string `json:"front"`
	Back     string `json:"back"`
	Category string `json:"categoria"`
	Tip      string `json:"consejo"`
}

// Deck is a proposed flashcard set targeted at one collection.
type Deck struct {
	Name  string `json:"mazo"`
	Cards []Card `json:"tarjetas"`
}

// Parse decodes model output into a Deck. The text is tried as-is first;
// if that fails, the first brace-delimited substring is extracted and
// parsed instead — models routinely wrap the JSON in prose.
func Parse(text string) (*Deck, error) {
	var d Deck
	if err := json.Unmarshal([]byte(text), &d); err == nil {
		return &d, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &d); err != nil {
		return nil, ErrNoJSON
	}
	return &d, nil
}

// Validate checks the deck against the required shape: a non-empty
// collection name and a present card array. An empty array is valid.
func Validate(d *Deck) error {
	if d == nil || strings.TrimSpace(d.Name) == "" || d.Cards == nil {
		return ErrInvalidShape
	}
	return nil
}
