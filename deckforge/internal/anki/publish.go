package anki

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/duoflash/deck"
	"github.com/hazyhaar/duoflash/deckforge/internal/fault"
)

// Note types tried in order. The first one present in the profile wins;
// a profile with none of them falls back to whatever modelNames returned
// first.
var modelPriority = []string{
	"Basic",
	"Basic (and reversed card)",
	"Basic (optional reversed card)",
	"Cloze",
}

const baseTag = "duolingo-errores"

// Publisher turns a generated deck into notes in the running Anki
// profile. Card text comes from a language model, so it is sanitized
// before any of it is embedded in note HTML.
type Publisher struct {
	client *Client
	log    *slog.Logger
	sanit  *bluemonday.Policy
}

func NewPublisher(client *Client, log *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		log:    log,
		sanit:  bluemonday.UGCPolicy(),
	}
}

// Publish creates the deck, picks a note type, maps every card onto its
// fields and adds the notes one by one. A single bad card is logged and
// skipped; the returned count is the number of notes actually added.
func (p *Publisher) Publish(ctx context.Context, d deck.Deck) (int, error) {
	if err := p.client.CreateDeck(ctx, d.Name); err != nil {
		return 0, fault.Wrap(fault.CardServiceUnavailable, "No se pudo crear el mazo en Anki.", err)
	}

	models, err := p.client.ModelNames(ctx)
	if err != nil {
		return 0, fault.Wrap(fault.CardServiceUnavailable, "No se pudo consultar los tipos de nota de Anki.", err)
	}
	model, err := pickModel(models)
	if err != nil {
		return 0, err
	}

	fields, err := p.client.ModelFieldNames(ctx, model)
	if err != nil {
		return 0, fault.Wrap(fault.CardServiceUnavailable, "No se pudo consultar los campos del tipo de nota.", err)
	}
	if len(fields) < 2 {
		return 0, fault.New(fault.InsufficientFields,
			"El tipo de nota de Anki no tiene campos suficientes.",
			fmt.Sprintf("model %q has %d fields, need 2", model, len(fields)))
	}

	added := 0
	for _, card := range d.Cards {
		note := Note{
			DeckName:  d.Name,
			ModelName: model,
			Fields:    p.mapFields(fields, card),
			Tags:      cardTags(card),
		}
		if _, err := p.client.AddNote(ctx, note); err != nil {
			p.log.Warn("anki: note rejected", "deck", d.Name, "front", card.Front, "error", err)
			continue
		}
		added++
	}
	return added, nil
}

func pickModel(models []string) (string, error) {
	if len(models) == 0 {
		return "", fault.New(fault.NoTemplateAvailable,
			"Anki no tiene ningún tipo de nota disponible.",
			"modelNames returned an empty list")
	}
	for _, want := range modelPriority {
		for _, have := range models {
			if have == want {
				return have, nil
			}
		}
	}
	return models[0], nil
}

// mapFields fills the note type's fields from a card. When the type has
// the standard Front/Back pair those are used directly and the category
// and tip ride along as a trailing div on the back; otherwise the first
// two fields get front and back positionally.
func (p *Publisher) mapFields(fields []string, card deck.Card) map[string]string {
	front := p.sanit.Sanitize(card.Front)
	back := p.sanit.Sanitize(card.Back)

	var extra strings.Builder
	if card.Category != "" || card.Tip != "" {
		extra.WriteString(`<div style="margin-top:1em;font-size:0.85em;color:#666;">`)
		if card.Category != "" {
			extra.WriteString("Categoría: " + p.sanit.Sanitize(card.Category))
		}
		if card.Tip != "" {
			if card.Category != "" {
				extra.WriteString("<br>")
			}
			extra.WriteString("Consejo: " + p.sanit.Sanitize(card.Tip))
		}
		extra.WriteString("</div>")
	}

	out := make(map[string]string, len(fields))
	hasFront, hasBack := false, false
	for _, f := range fields {
		out[f] = ""
		switch f {
		case "Front":
			hasFront = true
		case "Back":
			hasBack = true
		}
	}
	if hasFront && hasBack {
		out["Front"] = front
		out["Back"] = back + extra.String()
		return out
	}
	out[fields[0]] = front
	out[fields[1]] = back + extra.String()
	return out
}

func cardTags(card deck.Card) []string {
	tags := []string{baseTag}
	if slug := slugTag(card.Category); slug != "" {
		tags = append(tags, slug)
	}
	return tags
}

func slugTag(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
