package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/infra/metrics"
	"telegram-survey-bot/internal/usecase"
)

// Server exposes the ops surface: health, Prometheus metrics, and a small
// JWT-guarded admin API for runtime inspection.
type Server struct {
	convUC  usecase.ConversationUseCase
	auth    *AuthManager
	apiKey  string
	log     *zerolog.Logger
	started time.Time
}

func NewServer(convUC usecase.ConversationUseCase, auth *AuthManager, apiKey string, logger *zerolog.Logger) *Server {
	return &Server{
		convUC:  convUC,
		auth:    auth,
		apiKey:  apiKey,
		log:     logger,
		started: time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/login", s.handleLogin)
	r.Group(func(pr chi.Router) {
		pr.Use(s.auth.Middleware)
		pr.Get("/api/v1/stats", s.handleStats)
		pr.Get("/api/v1/conversations/{tgID}", s.handleConversation)
	})

	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("ops api key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(body.APIKey), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, exp, err := s.auth.Mint()
	if err != nil {
		s.log.Error().Err(err).Msg("mint ops token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": exp.Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":        metrics.Version,
		"commit":         metrics.Commit,
		"started_at":     s.started.Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

// handleConversation returns the stored conversation state for one user,
// mainly for support debugging ("why is the bot re-prompting me").
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	tgID, err := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	state, err := s.convUC.Inspect(r.Context(), tgID)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int64("tg_id", tgID).Msg("inspect conversation")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
