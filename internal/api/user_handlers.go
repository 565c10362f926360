package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/planner-engine/internal/models"
)

// Course handlers

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	courses, err := s.repo.GetUserCourses(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list courses", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list courses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"count":   len(courses),
	})
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var course models.CourseProfile
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	course.UserID = userID

	if msg := validateCourse(&course); msg != "" {
		respondError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}

	if err := s.repo.CreateCourse(r.Context(), &course); err != nil {
		slog.Error("failed to create course", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create course")
		return
	}

	respondJSON(w, http.StatusCreated, course)
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	id := chi.URLParam(r, "id")

	var course models.CourseProfile
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	course.ID = id
	course.UserID = userID

	if msg := validateCourse(&course); msg != "" {
		respondError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}

	if err := s.repo.UpdateCourse(r.Context(), &course); err != nil {
		slog.Error("failed to update course", "error", err, "course_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update course")
		return
	}

	respondJSON(w, http.StatusOK, course)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	id := chi.URLParam(r, "id")

	if err := s.repo.DeleteCourse(r.Context(), userID, id); err != nil {
		slog.Error("failed to delete course", "error", err, "course_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete course")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "course deleted",
		"id":      id,
	})
}

func validateCourse(c *models.CourseProfile) string {
	if c.Name == "" {
		return "course_name is required"
	}
	if c.SKS <= 0 {
		return "sks must be positive"
	}
	if c.Difficulty < 1 || c.Difficulty > 5 {
		return "difficulty must be between 1 and 5"
	}
	return ""
}

// Schedule (commitment) handlers

func (s *Server) handleListCommitments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	schedule, err := s.repo.GetUserSchedule(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list schedule", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list schedule")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule": schedule,
		"count":    len(schedule),
	})
}

func (s *Server) handleCreateCommitment(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var commitment models.ExistingCommitment
	if err := json.NewDecoder(r.Body).Decode(&commitment); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	commitment.UserID = userID

	if msg := validateCommitment(&commitment); msg != "" {
		respondError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}

	if err := s.repo.CreateCommitment(r.Context(), &commitment); err != nil {
		slog.Error("failed to create commitment", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create commitment")
		return
	}

	respondJSON(w, http.StatusCreated, commitment)
}

func (s *Server) handleDeleteCommitment(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	id := chi.URLParam(r, "id")

	if err := s.repo.DeleteCommitment(r.Context(), userID, id); err != nil {
		slog.Error("failed to delete commitment", "error", err, "commitment_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete commitment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "commitment deleted",
		"id":      id,
	})
}

func validateCommitment(c *models.ExistingCommitment) string {
	if c.Day == "" {
		return "day is required"
	}
	if c.Activity == "" {
		return "activity is required"
	}

	start, err := time.Parse("15:04", c.StartTime)
	if err != nil {
		return "start_time must be HH:MM"
	}
	end, err := time.Parse("15:04", c.EndTime)
	if err != nil {
		return "end_time must be HH:MM"
	}
	if !start.Before(end) {
		return "start_time must be before end_time"
	}
	return ""
}

// Preferences handlers

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	prefs, err := s.repo.GetUserPreferences(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get preferences", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get preferences")
		return
	}

	prefs.UserID = userID
	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var prefs models.StudyPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	prefs.UserID = userID

	if msg := validatePreferences(&prefs); msg != "" {
		respondError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}

	if err := s.repo.PutUserPreferences(r.Context(), prefs); err != nil {
		slog.Error("failed to store preferences", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func validatePreferences(p *models.StudyPreferences) string {
	if p.SleepTime != "" {
		if _, err := time.Parse("15:04", p.SleepTime); err != nil {
			return "sleep_time must be HH:MM"
		}
	}
	if p.WakeTime != "" {
		if _, err := time.Parse("15:04", p.WakeTime); err != nil {
			return "wake_time must be HH:MM"
		}
	}
	if p.StudyDaysPerWeek < 0 || p.StudyDaysPerWeek > 7 {
		return "study_days_per_week must be between 0 and 7"
	}
	if p.MaxConsecutiveMinutes < 0 {
		return "max_consecutive_minutes must not be negative"
	}
	return ""
}

// Settings handlers

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	settings, err := s.repo.GetUserSettings(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get settings", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get settings")
		return
	}

	settings.UserID = userID
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var settings models.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	settings.UserID = userID

	if settings.SKSDefinition <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "sks_definition must be positive")
		return
	}

	if err := s.repo.PutUserSettings(r.Context(), settings); err != nil {
		slog.Error("failed to store settings", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}
