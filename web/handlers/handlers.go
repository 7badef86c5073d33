// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package handlers wires the HTTP surface: session auth, replay
// uploads, and the decoded-replay listing. Responses are JSON.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tarnhelm/bfme2rpt/model"
	"github.com/tarnhelm/bfme2rpt/pipelines/stages"
	"github.com/tarnhelm/bfme2rpt/renderer"
	"github.com/tarnhelm/bfme2rpt/web/auth"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store        *model.Store
	sessions     *auth.SessionStore
	ingest       *stages.IngestService
	worker       *stages.WorkerService
	renderer     *renderer.Renderer
	autoAuthUser *auth.User
}

// New creates a new Handlers with the given store, session store, and
// pipeline services.
func New(s *model.Store, sessions *auth.SessionStore, ingest *stages.IngestService, worker *stages.WorkerService, r *renderer.Renderer) *Handlers {
	return &Handlers{
		store:    s,
		sessions: sessions,
		ingest:   ingest,
		worker:   worker,
		renderer: r,
	}
}

// Routes returns the mux with every route registered.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.HandleFunc("POST /api/upload", h.RequireAuth(h.Upload))
	mux.HandleFunc("GET /api/replays", h.RequireAuth(h.ListReplays))
	mux.HandleFunc("GET /api/replays/{id}", h.RequireAuth(h.GetReplay))
	return mux
}

// Store returns the underlying store.
func (h *Handlers) Store() *model.Store {
	return h.store
}

// Sessions returns the session store.
func (h *Handlers) Sessions() *auth.SessionStore {
	return h.sessions
}

// SetAutoAuth configures automatic authentication for testing.
func (h *Handlers) SetAutoAuth(handle string) {
	h.autoAuthUser = &auth.User{
		Handle:   handle,
		UserName: handle,
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSONBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
