package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/usecase"
)

// Server is the admin panel API: review queue, template management and
// operational stats. Bot users never touch this surface.
type Server struct {
	statsUC    usecase.StatsUseCase
	requestUC  usecase.RequestUseCase
	templateUC usecase.TemplateUseCase
	userUC     usecase.UserUseCase
	apiKey     string
	auth       *AuthManager
	uploadDir  string
	log        *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	requestUC usecase.RequestUseCase,
	templateUC usecase.TemplateUseCase,
	userUC usecase.UserUseCase,
	apiKey string,
	auth *AuthManager,
	uploadDir string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC:    statsUC,
		requestUC:  requestUC,
		templateUC: templateUC,
		userUC:     userUC,
		apiKey:     apiKey,
		auth:       auth,
		uploadDir:  uploadDir,
		log:        logger,
	}
}

// Router builds the full route tree.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if s.uploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	}

	r.Post("/api/v1/login", s.handleLogin)
	r.Post("/api/v1/logout", s.handleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(s.authMiddleware)
		pr.Get("/api/v1/stats", s.handleStats)
		pr.Get("/api/v1/requests", s.handleRequestsList)
		pr.Get("/api/v1/requests/{id}", s.handleRequestGet)
		pr.Post("/api/v1/requests/{id}/approve", s.handleReview(true))
		pr.Post("/api/v1/requests/{id}/reject", s.handleReview(false))
		pr.Get("/api/v1/templates", s.handleTemplatesList)
		pr.Post("/api/v1/templates", s.handleTemplateCreate)
		pr.Delete("/api/v1/templates/{id}", s.handleTemplateDelete)
		pr.Get("/api/v1/audit", s.handleAudit)
	})

	return r
}

// authMiddleware admits either a minted session (cookie or bearer JWT) or the
// raw admin API key as a bearer token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err == nil {
			next.ServeHTTP(w, r)
			return
		}

		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}
		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || body.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		s.log.Error().Err(err).Msg("failed to mint admin session")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
