package calendar

import (
	"context"
	"errors"

	"github.com/studyflow/planner-engine/internal/models"
)

// ErrNoCredential is returned when neither a user credential nor the
// shared service credential is available. This is the only failure that
// aborts a projection as a whole; per-item failures never do.
var ErrNoCredential = errors.New("no calendar credential available")

// Projector creates external calendar events for schedule items. Results
// are reported per item: a rejected item is recorded and skipped, its
// siblings proceed.
type Projector interface {
	Project(ctx context.Context, userID string, items []models.ScheduleItem) ([]models.ProjectResult, error)
}

// EventIDs extracts the successfully created event IDs from projection
// results, preserving item order.
func EventIDs(results []models.ProjectResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.EventID != "" {
			ids = append(ids, r.EventID)
		}
	}
	return ids
}
