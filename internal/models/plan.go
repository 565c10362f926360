package models

import (
	"time"
)

// PlanStatus represents the current state of a study plan
type PlanStatus string

const (
	PlanGenerated PlanStatus = "generated"
	PlanProjected PlanStatus = "projected"
)

// ScheduleItem is one atomic generated study session. The JSON keys are
// the wire shape produced by the generation model and consumed by the
// calendar projector; they are not translated.
type ScheduleItem struct {
	Date       string `json:"tanggal"`
	StartTime  string `json:"waktu_mulai"`
	EndTime    string `json:"waktu_berakhir"`
	CourseName string `json:"mata_kuliah"`
	Activity   string `json:"aktivitas"`
}

// StudyPlan is a persisted generated schedule for one user.
type StudyPlan struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Status    PlanStatus     `json:"status"`
	Items     []ScheduleItem `json:"items"`
	EventIDs  []string       `json:"event_ids,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// IsProjected returns true once calendar events exist for the plan
func (p *StudyPlan) IsProjected() bool {
	return p.Status == PlanProjected
}

// PlanFilters defines filters for listing study plans
type PlanFilters struct {
	UserID string
	Status PlanStatus
	Limit  int
	Offset int
}

// GenerateRequest represents a request to generate a study plan
type GenerateRequest struct {
	UserID         string `json:"user_id"`
	PromptTemplate string `json:"prompt_template,omitempty"`
}

// ProjectResult reports the outcome of projecting a single schedule item
// into the external calendar.
type ProjectResult struct {
	Index   int    `json:"index"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
