package storage

import (
	"context"

	"github.com/studyflow/planner-engine/internal/models"
)

// Repository defines the interface for planner persistence
type Repository interface {
	// Courses
	CreateCourse(ctx context.Context, c *models.CourseProfile) error
	UpdateCourse(ctx context.Context, c *models.CourseProfile) error
	DeleteCourse(ctx context.Context, userID, id string) error
	GetUserCourses(ctx context.Context, userID string) ([]models.CourseProfile, error)

	// Existing schedule (fixed commitments)
	CreateCommitment(ctx context.Context, c *models.ExistingCommitment) error
	DeleteCommitment(ctx context.Context, userID, id string) error
	GetUserSchedule(ctx context.Context, userID string) ([]models.ExistingCommitment, error)

	// Preferences and settings. Getters return zero values, never an
	// error, when a new user has no stored row.
	GetUserPreferences(ctx context.Context, userID string) (models.StudyPreferences, error)
	PutUserPreferences(ctx context.Context, p models.StudyPreferences) error
	GetUserSettings(ctx context.Context, userID string) (models.UserSettings, error)
	PutUserSettings(ctx context.Context, s models.UserSettings) error

	// Calendar credentials
	GetCalendarCredential(ctx context.Context, userID string) (*models.CalendarCredential, error)
	PutCalendarCredential(ctx context.Context, cred *models.CalendarCredential) error

	// Study plans
	CreatePlan(ctx context.Context, p *models.StudyPlan) error
	GetPlan(ctx context.Context, id string) (*models.StudyPlan, error)
	GetLatestPlan(ctx context.Context, userID string) (*models.StudyPlan, error)
	ListPlans(ctx context.Context, filters models.PlanFilters) ([]*models.StudyPlan, error)
	UpdatePlan(ctx context.Context, p *models.StudyPlan) error
	DeletePlan(ctx context.Context, id string) error
	GetStalePlans(ctx context.Context) ([]*models.StudyPlan, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
