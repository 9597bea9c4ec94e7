// Package synth turns a batch of captured mistakes into an Anki deck by
// way of a single Gemini completion.
package synth

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/duoflash/deck"
	"github.com/hazyhaar/duoflash/deckforge/internal/fault"
	"github.com/hazyhaar/duoflash/deckforge/internal/store"
	"github.com/hazyhaar/duoflash/mistake"
)

// CredentialSource yields the stored API key, empty when none is set.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// Prober answers whether the card service is reachable.
type Prober interface {
	Version(ctx context.Context) (int, error)
}

// Publisher pushes a finished deck into the card service.
type Publisher interface {
	Publish(ctx context.Context, d deck.Deck) (int, error)
}

// ModelFactory builds a text model bound to an API key. Indirected so
// tests can substitute a canned model.
type ModelFactory func(apiKey string) TextModel

// Synthesizer runs the full pipeline for one batch: credential check,
// prompt, model call, parse, validate, probe, publish. One attempt per
// stage; a failure surfaces as a classified fault and the batch is
// dropped.
type Synthesizer struct {
	creds    CredentialSource
	newModel ModelFactory
	probe    Prober
	pub      Publisher
	model    string
	from, to string
	log      *slog.Logger
}

func New(creds CredentialSource, newModel ModelFactory, probe Prober, pub Publisher, model, from, to string, log *slog.Logger) *Synthesizer {
	return &Synthesizer{
		creds:    creds,
		newModel: newModel,
		probe:    probe,
		pub:      pub,
		model:    model,
		from:     from,
		to:       to,
		log:      log,
	}
}

// Result describes a completed synthesis for the journal.
type Result struct {
	DeckName string
	Mistakes int
	Cards    int
}

// Synthesize processes one batch. An empty batch is a no-op.
func (s *Synthesizer) Synthesize(ctx context.Context, records []mistake.Record) (Result, error) {
	if len(records) == 0 {
		return Result{}, nil
	}

	key, err := s.creds.APIKey(ctx)
	if err != nil {
		// A store read failure is an outage, not a missing credential.
		return Result{}, fault.Wrap(fault.NetworkError, "No se pudo leer la API key.", err)
	}
	if key == "" {
		return Result{}, fault.New(fault.NoCredential,
			"No hay API key configurada. Configura tu API key de Gemini.",
			"credential store is empty")
	}
	if err := store.ValidateAPIKey(key); err != nil {
		return Result{}, fault.Wrap(fault.InvalidCredential,
			"La API key guardada no tiene un formato válido.", err)
	}

	deckName := deck.ResolveName(s.from, s.to)
	prompt := BuildPrompt(deckName, records)

	text, err := s.newModel(key).GenerateText(ctx, s.model, prompt)
	if err != nil {
		return Result{}, fault.Wrap(fault.NetworkError,
			"No se pudo contactar con Gemini.", err)
	}

	d, err := deck.Parse(text)
	if err != nil {
		s.log.Warn("synth: unparseable model response", "error", err, "raw", text)
		return Result{}, fault.Wrap(fault.MalformedDeckResponse,
			"La respuesta de Gemini no contiene un mazo válido.", err)
	}
	if err := deck.Validate(d); err != nil {
		return Result{}, fault.Wrap(fault.InvalidDeckSchema,
			"La estructura del mazo generado no es válida.", err)
	}

	if _, err := s.probe.Version(ctx); err != nil {
		return Result{}, fault.Wrap(fault.CardServiceUnavailable,
			"AnkiConnect no está disponible. Asegúrate de que Anki esté abierto.", err)
	}

	added, err := s.pub.Publish(ctx, *d)
	if err != nil {
		return Result{DeckName: d.Name, Mistakes: len(records)}, err
	}

	s.log.Info("synth: deck published",
		"deck", d.Name, "mistakes", len(records), "cards", added)
	return Result{DeckName: d.Name, Mistakes: len(records), Cards: added}, nil
}
