package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/planner-engine/internal/calendar"
	"github.com/studyflow/planner-engine/internal/gemini"
	"github.com/studyflow/planner-engine/internal/models"
	"github.com/studyflow/planner-engine/internal/planner"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondPipelineError maps pipeline failures onto HTTP statuses. User
// data problems are 422, schedule conflicts 409, anything broken on the
// generation or calendar side 502.
func respondPipelineError(w http.ResponseWriter, err error) {
	var validation *planner.ValidationError
	if errors.As(err, &validation) {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", validation.Error())
		return
	}

	var conflict *planner.ConflictError
	if errors.As(err, &conflict) {
		respondError(w, http.StatusConflict, "schedule_conflict", conflict.Error())
		return
	}

	var malformed *planner.MalformedResponseError
	if errors.As(err, &malformed) {
		respondError(w, http.StatusBadGateway, "malformed_response", malformed.Error())
		return
	}

	var auth *gemini.AuthenticationError
	if errors.As(err, &auth) {
		respondError(w, http.StatusBadGateway, "generation_auth_error", "generation service rejected credentials")
		return
	}

	var upstream *gemini.UpstreamError
	if errors.As(err, &upstream) {
		respondError(w, http.StatusBadGateway, "generation_upstream_error", upstream.Error())
		return
	}

	var network *gemini.NetworkError
	if errors.As(err, &network) {
		respondError(w, http.StatusBadGateway, "generation_network_error", "could not reach generation service")
		return
	}

	if errors.Is(err, calendar.ErrNoCredential) {
		respondError(w, http.StatusBadGateway, "no_calendar_credential", "no calendar credential available for this user")
		return
	}

	if errors.Is(err, planner.ErrPlanNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "plan not found")
		return
	}

	slog.Error("unhandled pipeline error", "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Plan handlers

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_id is required")
		return
	}

	plan, err := s.planner.Generate(r.Context(), req)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "plan id is required")
		return
	}

	plan, err := s.planner.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, planner.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "plan not found")
			return
		}
		slog.Error("failed to get plan", "error", err, "plan_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	plan, err := s.planner.GetLatest(r.Context(), userID)
	if err != nil {
		if errors.Is(err, planner.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no plan exists for this user")
			return
		}
		slog.Error("failed to get latest plan", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get latest plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	filters := models.PlanFilters{
		UserID: r.URL.Query().Get("user_id"),
		Status: models.PlanStatus(r.URL.Query().Get("status")),
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filters.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n >= 0 {
			filters.Offset = n
		}
	}

	plans, err := s.planner.List(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list plans", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list plans")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plans": plans,
		"count": len(plans),
	})
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.planner.Delete(r.Context(), id); err != nil {
		if errors.Is(err, planner.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "plan not found")
			return
		}
		slog.Error("failed to delete plan", "error", err, "plan_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete plan")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "plan deleted",
		"id":      id,
	})
}

// handleProjectPlan pushes every item of a plan into the user's
// calendar. Individual event failures are reported in the result list
// but do not fail the request.
func (s *Server) handleProjectPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := s.planner.Get(r.Context(), id)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	results, err := s.projector.Project(r.Context(), plan.UserID, plan.Items)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	eventIDs := calendar.EventIDs(results)
	updated, err := s.planner.AttachEvents(r.Context(), plan.ID, eventIDs)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plan":    updated,
		"results": results,
		"created": len(eventIDs),
		"failed":  len(results) - len(eventIDs),
	})
}

// Template handlers

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.promptLoader.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "template name is required")
		return
	}

	template := s.promptLoader.Get(name)
	if template == nil {
		respondError(w, http.StatusNotFound, "not_found", "template not found")
		return
	}

	respondJSON(w, http.StatusOK, template)
}
