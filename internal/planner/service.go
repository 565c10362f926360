package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studyflow/planner-engine/internal/gemini"
	"github.com/studyflow/planner-engine/internal/models"
	"github.com/studyflow/planner-engine/internal/prompts"
	"github.com/studyflow/planner-engine/internal/storage"
)

// PlanCache is the read-through cache for each user's latest plan.
// Optional; a nil cache degrades to repository reads.
type PlanCache interface {
	SetLatest(ctx context.Context, plan *models.StudyPlan) error
	GetLatest(ctx context.Context, userID string) (*models.StudyPlan, error)
	Invalidate(ctx context.Context, userID string) error
}

// Service runs the study-plan pipeline: gather user context, compile,
// generate, parse, check conflicts, persist. One invocation per user
// action; no shared mutable state across invocations.
type Service struct {
	repo      storage.Repository
	generator gemini.Generator
	cache     PlanCache
	prompts   *prompts.Loader
	planTTL   time.Duration
}

// NewService creates a planner service
func NewService(repo storage.Repository, generator gemini.Generator, cache PlanCache, loader *prompts.Loader, planTTL time.Duration) *Service {
	if planTTL <= 0 {
		planTTL = 14 * 24 * time.Hour
	}

	return &Service{
		repo:      repo,
		generator: generator,
		cache:     cache,
		prompts:   loader,
		planTTL:   planTTL,
	}
}

// Generate runs the full pipeline for one user and persists the result
func (s *Service) Generate(ctx context.Context, req models.GenerateRequest) (*models.StudyPlan, error) {
	if req.UserID == "" {
		return nil, &ValidationError{Field: "user_id", Message: "user id is required"}
	}

	uc, err := s.loadContext(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	compiled, err := Compile(uc)
	if err != nil {
		return nil, err
	}

	templateName := req.PromptTemplate
	if templateName == "" {
		templateName = prompts.DefaultTemplateName
	}
	tmpl := s.prompts.Get(templateName)
	if tmpl == nil {
		return nil, &ValidationError{Field: "prompt_template", Message: fmt.Sprintf("unknown template %q", templateName)}
	}

	prompt, err := BuildPrompt(tmpl.Instructions, compiled)
	if err != nil {
		return nil, err
	}

	items, err := s.generateItems(ctx, req.UserID, prompt)
	if err != nil {
		return nil, err
	}

	if err := CheckConflicts(items, uc.ExistingSchedule); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	plan := &models.StudyPlan{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Status:    models.PlanGenerated,
		Items:     items,
		CreatedAt: now,
		ExpiresAt: now.Add(s.planTTL),
	}

	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to persist plan: %w", err)
	}

	s.cacheLatest(ctx, plan)

	slog.Info("study plan generated",
		"plan_id", plan.ID,
		"user_id", plan.UserID,
		"sessions", len(plan.Items),
	)

	return plan, nil
}

// generateItems calls the generator and parses the output. A malformed
// response gets exactly one re-roll; auth, network, and upstream
// failures propagate unmodified.
func (s *Service) generateItems(ctx context.Context, userID, prompt string) ([]models.ScheduleItem, error) {
	resp, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := ParseResponse(resp)
	if err == nil {
		return items, nil
	}

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		return nil, err
	}

	slog.Warn("malformed generation response, retrying once",
		"user_id", userID,
		"reason", malformed.Reason,
	)

	resp, err = s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return ParseResponse(resp)
}

// loadContext assembles the user context from the repository. Every
// read-side getter yields an empty or default value for a new user, so
// generation works before any data is entered.
func (s *Service) loadContext(ctx context.Context, userID string) (models.UserContext, error) {
	courses, err := s.repo.GetUserCourses(ctx, userID)
	if err != nil {
		return models.UserContext{}, fmt.Errorf("failed to load courses: %w", err)
	}

	schedule, err := s.repo.GetUserSchedule(ctx, userID)
	if err != nil {
		return models.UserContext{}, fmt.Errorf("failed to load schedule: %w", err)
	}

	preferences, err := s.repo.GetUserPreferences(ctx, userID)
	if err != nil {
		return models.UserContext{}, fmt.Errorf("failed to load preferences: %w", err)
	}

	settings, err := s.repo.GetUserSettings(ctx, userID)
	if err != nil {
		return models.UserContext{}, fmt.Errorf("failed to load settings: %w", err)
	}

	return models.UserContext{
		UserID:           userID,
		Courses:          courses,
		ExistingSchedule: schedule,
		Preferences:      preferences,
		Settings:         settings,
	}, nil
}

// GetLatest returns the newest plan for a user, preferring the cache
func (s *Service) GetLatest(ctx context.Context, userID string) (*models.StudyPlan, error) {
	if s.cache != nil {
		plan, err := s.cache.GetLatest(ctx, userID)
		if err != nil {
			slog.Warn("plan cache read failed", "error", err, "user_id", userID)
		} else if plan != nil {
			return plan, nil
		}
	}

	plan, err := s.repo.GetLatestPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	s.cacheLatest(ctx, plan)
	return plan, nil
}

// Get returns a plan by ID
func (s *Service) Get(ctx context.Context, id string) (*models.StudyPlan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// List returns plans matching filters
func (s *Service) List(ctx context.Context, filters models.PlanFilters) ([]*models.StudyPlan, error) {
	return s.repo.ListPlans(ctx, filters)
}

// Delete removes a plan and drops it from the cache
func (s *Service) Delete(ctx context.Context, id string) error {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}

	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, plan.UserID); err != nil {
			slog.Warn("failed to invalidate plan cache", "error", err, "user_id", plan.UserID)
		}
	}

	return nil
}

// AttachEvents records the calendar event IDs created for a plan and
// marks it projected
func (s *Service) AttachEvents(ctx context.Context, planID string, eventIDs []string) (*models.StudyPlan, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	plan.EventIDs = eventIDs
	plan.Status = models.PlanProjected

	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	// The projected plan may or may not be the cached latest; dropping
	// the entry is always safe.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, plan.UserID); err != nil {
			slog.Warn("failed to invalidate plan cache", "error", err, "user_id", plan.UserID)
		}
	}

	return plan, nil
}

// cacheLatest stores the plan as the user's latest, best effort
func (s *Service) cacheLatest(ctx context.Context, plan *models.StudyPlan) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLatest(ctx, plan); err != nil {
		slog.Warn("failed to cache plan", "error", err, "plan_id", plan.ID)
	}
}
