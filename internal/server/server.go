// Package server exposes the assistant over HTTP: a JSON API, a WebSocket
// chat endpoint, and a small embedded dashboard page.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/swissenergydata/decipher/internal/audit"
	"github.com/swissenergydata/decipher/internal/config"
	"github.com/swissenergydata/decipher/internal/corpus"
	"github.com/swissenergydata/decipher/internal/orchestrator"
	"github.com/swissenergydata/decipher/internal/vectordb"
)

// Server hosts the query API over an orchestrator and its corpus.
type Server struct {
	orch     *orchestrator.Orchestrator
	store    vectordb.Store
	catalog  *corpus.Catalog
	auditLog *audit.Log
	persona  config.Persona
	md       goldmark.Markdown

	mu       sync.Mutex
	sessions map[string]*httpSession
}

// httpSession serializes one session's turns. Requests reusing a session_id
// can arrive concurrently; the lock is held across the whole turn so history
// reads and appends never interleave.
type httpSession struct {
	mu   sync.Mutex
	sess *orchestrator.Session
}

// New creates a Server. auditLog may be nil; the audit endpoint then reports
// unavailable.
func New(orch *orchestrator.Orchestrator, store vectordb.Store, catalog *corpus.Catalog, auditLog *audit.Log, defaultPersona config.Persona) *Server {
	return &Server{
		orch:     orch,
		store:    store,
		catalog:  catalog,
		auditLog: auditLog,
		persona:  defaultPersona,
		md:       goldmark.New(),
		sessions: make(map[string]*httpSession),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleDashboard)
	r.Get("/ws", s.handleWS)
	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Get("/stats", s.handleStats)
		r.Get("/audit", s.handleAudit)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("server: listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Query     string `json:"query"`
	Persona   string `json:"persona,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type askResponse struct {
	SessionID   string   `json:"session_id"`
	Content     string   `json:"content"`
	ContentHTML string   `json:"content_html"`
	Confidence  float64  `json:"confidence"`
	DataSources []string `json:"data_sources"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	persona := s.persona
	if req.Persona != "" {
		persona = config.Persona(req.Persona)
	}

	hs := s.session(req.SessionID, persona)
	hs.mu.Lock()
	resp := s.orch.Process(r.Context(), req.Query, persona, hs.sess.Turns())
	hs.sess.Append(req.Query, resp)
	hs.mu.Unlock()

	writeJSON(w, http.StatusOK, askResponse{
		SessionID:   hs.sess.ID,
		Content:     resp.Content,
		ContentHTML: s.renderMarkdown(resp.Content),
		Confidence:  resp.Confidence,
		DataSources: resp.DataSources,
		Suggestions: resp.Suggestions,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"collections": s.store.Counts(),
		"datasets":    len(s.catalog.Cards()),
		"skipped":     s.catalog.Skipped(),
		"agents":      s.orch.Agents(),
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.auditLog.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("querying audit log: %v", err))
		return
	}
	counts, err := s.auditLog.AgentCounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("querying audit log: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":      entries,
		"agent_counts": counts,
	})
}

// session returns the existing session for id, or a fresh one. Sessions are
// process-local; a restart clears all history.
func (s *Server) session(id string, persona config.Persona) *httpSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if hs, ok := s.sessions[id]; ok {
			return hs
		}
	}
	hs := &httpSession{sess: orchestrator.NewSession(uuid.NewString(), persona)}
	s.sessions[hs.sess.ID] = hs
	return hs
}

func (s *Server) renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return src
	}
	return buf.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
