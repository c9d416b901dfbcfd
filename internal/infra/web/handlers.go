package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, byStatus, files, err := s.statsUC.Totals(ctx)
	if err != nil {
		http.Error(w, "Failed to get totals", http.StatusInternalServerError)
		return
	}
	today, err := s.statsUC.SubmittedSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		http.Error(w, "Failed to get totals", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":              users,
		"requests_by_status": byStatus,
		"files":              files,
		"submitted_24h":      today,
	})
}

func (s *Server) handleRequestsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var (
		requests []*model.Request
		err      error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		requests, err = s.requestUC.ListByStatus(ctx, model.RequestStatus(status), limit)
	} else {
		requests, err = s.requestUC.ListRecent(ctx, limit)
	}
	if err != nil {
		http.Error(w, "Failed to list requests", http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []*model.Request{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": requests})
}

func (s *Server) handleRequestGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	req, err := s.requestUC.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Request not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get request", http.StatusInternalServerError)
		return
	}
	files, err := s.requestUC.Files(ctx, id)
	if err != nil {
		http.Error(w, "Failed to get request files", http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []*model.File{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request": req,
		"files":   files,
	})
}

func (s *Server) handleReview(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		reviewer := "admin"
		if claims, err := s.auth.ParseFromRequest(r); err == nil && claims.Subject != "" {
			reviewer = claims.Subject
		}

		req, err := s.requestUC.Review(ctx, id, approve, reviewer)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Request not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrRequestImmutable):
				http.Error(w, "Request already reviewed", http.StatusConflict)
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, "Request is not submitted", http.StatusBadRequest)
			default:
				http.Error(w, "Failed to review request", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func (s *Server) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templateUC.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}
	if templates == nil {
		templates = []*model.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": templates})
}

type templateCreateRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	TelegramFileID string `json:"telegram_file_id"`
	LocalPath      string `json:"local_path"`
}

func (s *Server) handleTemplateCreate(w http.ResponseWriter, r *http.Request) {
	var req templateCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tpl, err := s.templateUC.Create(r.Context(), req.Name, req.Description, req.TelegramFileID, req.LocalPath)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Template needs a name and exactly one of telegram_file_id or local_path", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create template", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleTemplateDelete(w http.ResponseWriter, r *http.Request) {
	err := s.templateUC.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Template not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete template", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.statsUC.RecentAudit(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list audit entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*model.Audit{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": entries})
}
