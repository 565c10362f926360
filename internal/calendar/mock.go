package calendar

import (
	"context"
	"fmt"

	"github.com/studyflow/planner-engine/internal/models"
)

// MockProjector fabricates event IDs without touching any external
// service. Backs guest mode and tests.
type MockProjector struct{}

// Project returns a fabricated event ID per item
func (m *MockProjector) Project(ctx context.Context, userID string, items []models.ScheduleItem) ([]models.ProjectResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]models.ProjectResult, len(items))
	for i := range items {
		results[i] = models.ProjectResult{
			Index:   i,
			EventID: fmt.Sprintf("mock-event-%s-%d", userID, i),
		}
	}
	return results, nil
}
