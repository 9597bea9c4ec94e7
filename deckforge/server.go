package deckforge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/duoflash/bus"
	"github.com/hazyhaar/duoflash/deckforge/internal/store"
)

// Router builds the bus endpoint: flush triggers and credential
// management, acked with bus.Ack.
func (f *Forge) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/flush", f.handleFlush)
	r.Get("/api/key", f.handleGetKey)
	r.Put("/api/key", f.handlePutKey)
	r.Delete("/api/key", f.handleDeleteKey)

	return r
}

// Serve runs the bus server until ctx is cancelled, then shuts down
// gracefully and drains any pending synthesis.
func (f *Forge) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              f.cfg.ListenAddr,
		Handler:           f.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		f.log.Info("forge: bus listening", "addr", f.cfg.ListenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	f.Drain()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (f *Forge) handleFlush(w http.ResponseWriter, r *http.Request) {
	var msg bus.FlushMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeAck(w, http.StatusBadRequest, bus.Ack{Message: "cuerpo de mensaje inválido"})
		return
	}
	if msg.Type != bus.TypeFlushTrigger {
		writeAck(w, http.StatusBadRequest, bus.Ack{Message: "tipo de mensaje inesperado"})
		return
	}

	if err := f.Flush(r.Context(), msg.Data); err != nil {
		writeAck(w, http.StatusInternalServerError, bus.Ack{Message: err.Error()})
		return
	}
	writeAck(w, http.StatusOK, bus.Ack{Success: true})
}

func (f *Forge) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, err := f.store.APIKey(r.Context())
	if err != nil {
		writeAck(w, http.StatusInternalServerError, bus.Ack{Message: "no se pudo leer la API key"})
		return
	}
	writeAck(w, http.StatusOK, bus.Ack{Success: true, APIKey: key})
}

func (f *Forge) handlePutKey(w http.ResponseWriter, r *http.Request) {
	var msg bus.KeyMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeAck(w, http.StatusBadRequest, bus.Ack{Message: "cuerpo de mensaje inválido"})
		return
	}

	if err := f.store.SetAPIKey(r.Context(), msg.APIKey); err != nil {
		if errors.Is(err, store.ErrInvalidKey) {
			writeAck(w, http.StatusBadRequest, bus.Ack{Message: "formato de API key inválido"})
			return
		}
		writeAck(w, http.StatusInternalServerError, bus.Ack{Message: "no se pudo guardar la API key"})
		return
	}
	writeAck(w, http.StatusOK, bus.Ack{Success: true})
}

func (f *Forge) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := f.store.RemoveAPIKey(r.Context()); err != nil {
		writeAck(w, http.StatusInternalServerError, bus.Ack{Message: "no se pudo borrar la API key"})
		return
	}
	writeAck(w, http.StatusOK, bus.Ack{Success: true})
}

func writeAck(w http.ResponseWriter, code int, ack bus.Ack) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ack)
}
