package sitechat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/castlebay/sitechat/genai"
	"github.com/castlebay/sitechat/kit"
	"github.com/castlebay/sitechat/leads"
	"github.com/castlebay/sitechat/shield"
)

// Handler returns the HTTP API: chat, lead capture, health, and stats.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/stats", s.handleStats)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/leads", s.handleLead)
	return r
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req struct {
		Messages []genai.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := s.Chat(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("chat failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleLead(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var lead leads.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.SubmitLead(r.Context(), &lead); err != nil {
		if errors.Is(err, leads.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("lead submit failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": lead.ID, "status": "ok"})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"chunks":   st.Chunks,
		"indexing": s.trigger != nil && s.trigger.Started(),
	})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// requestContext copies the chi request ID and client address into the
// transport-agnostic context keys the service logs under, so HTTP and MCP
// calls share one log shape.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ctx = kit.WithRemoteAddr(ctx, shield.ExtractIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
