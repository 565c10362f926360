package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/studyflow/planner-engine/internal/config"
	"github.com/studyflow/planner-engine/internal/models"
	"github.com/studyflow/planner-engine/internal/storage"
)

// credRepo stubs only the credential lookup; the projector touches
// nothing else on the repository.
type credRepo struct {
	storage.Repository
	cred *models.CalendarCredential
	err  error
}

func (r *credRepo) GetCalendarCredential(ctx context.Context, userID string) (*models.CalendarCredential, error) {
	return r.cred, r.err
}

func testItems() []models.ScheduleItem {
	return []models.ScheduleItem{
		{Date: "2026-09-07", StartTime: "09:00", EndTime: "10:30", CourseName: "Algoritma", Activity: "Review lecture notes"},
		{Date: "2026-09-08", StartTime: "13:00", EndTime: "14:30", CourseName: "Basis Data", Activity: "Practice SQL"},
		{Date: "2026-09-09", StartTime: "19:00", EndTime: "20:30", CourseName: "Algoritma", Activity: "Practice problems"},
	}
}

func newTestProjector(t *testing.T, endpoint, serviceToken string, repo storage.Repository) *GoogleProjector {
	t.Helper()

	p, err := NewGoogleProjector(config.CalendarConfig{
		Endpoint:        endpoint,
		ServiceToken:    serviceToken,
		Timezone:        "Asia/Jakarta",
		ReminderMinutes: 15,
		MaxConcurrent:   2,
	}, repo)
	if err != nil {
		t.Fatalf("NewGoogleProjector failed: %v", err)
	}
	return p
}

func TestProjectCreatesAllEvents(t *testing.T) {
	var calls atomic.Int64
	var gotAuth atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		gotAuth.Store(r.Header.Get("Authorization"))

		var event struct {
			Summary     string `json:"summary"`
			Description string `json:"description"`
			Start       struct {
				DateTime string `json:"dateTime"`
				TimeZone string `json:"timeZone"`
			} `json:"start"`
			Reminders struct {
				UseDefault bool `json:"useDefault"`
				Overrides  []struct {
					Method  string `json:"method"`
					Minutes int    `json:"minutes"`
				} `json:"overrides"`
			} `json:"reminders"`
		}
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			t.Errorf("bad event body: %v", err)
		}
		if event.Start.TimeZone != "Asia/Jakarta" {
			t.Errorf("expected Asia/Jakarta timezone, got %q", event.Start.TimeZone)
		}
		if len(event.Reminders.Overrides) != 1 || event.Reminders.Overrides[0].Minutes != 15 {
			t.Errorf("expected one 15-minute popup reminder, got %+v", event.Reminders.Overrides)
		}

		json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("ev-%d", n)})
	}))
	defer srv.Close()

	p := newTestProjector(t, srv.URL, "service-token", &credRepo{})

	results, err := p.Project(context.Background(), "user-1", testItems())
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	ids := EventIDs(results)
	if len(ids) != 3 {
		t.Fatalf("expected 3 event IDs, got %d", len(ids))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 API calls, got %d", calls.Load())
	}
	if gotAuth.Load() != "Bearer service-token" {
		t.Errorf("expected service token auth, got %v", gotAuth.Load())
	}
}

func TestProjectPrefersUserCredential(t *testing.T) {
	var gotAuth atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"id": "ev-1"})
	}))
	defer srv.Close()

	repo := &credRepo{cred: &models.CalendarCredential{UserID: "user-1", AccessToken: "user-token"}}
	p := newTestProjector(t, srv.URL, "service-token", repo)

	if _, err := p.Project(context.Background(), "user-1", testItems()[:1]); err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if gotAuth.Load() != "Bearer user-token" {
		t.Errorf("expected user token auth, got %v", gotAuth.Load())
	}
}

func TestProjectNoCredential(t *testing.T) {
	p := newTestProjector(t, "http://localhost", "", &credRepo{})

	_, err := p.Project(context.Background(), "user-1", testItems())
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestProjectPartialFailure(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("calendar exploded"))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("ev-%d", n)})
	}))
	defer srv.Close()

	p := newTestProjector(t, srv.URL, "service-token", &credRepo{})
	// One item at a time so the failing call is deterministic
	items := testItems()

	var eventIDs []string
	failed := 0
	for _, it := range items {
		results, err := p.Project(context.Background(), "user-1", []models.ScheduleItem{it})
		if err != nil {
			t.Fatalf("Project failed: %v", err)
		}
		if results[0].EventID != "" {
			eventIDs = append(eventIDs, results[0].EventID)
		} else {
			failed++
			if results[0].Error == "" {
				t.Error("failed result should carry an error message")
			}
		}
	}

	if len(eventIDs) != 2 {
		t.Errorf("expected 2 created events, got %d", len(eventIDs))
	}
	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
}

func TestProjectInvalidTimezone(t *testing.T) {
	_, err := NewGoogleProjector(config.CalendarConfig{
		Endpoint: "http://localhost",
		Timezone: "Mars/Olympus_Mons",
	}, &credRepo{})
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestEventIDsSkipsFailures(t *testing.T) {
	results := []models.ProjectResult{
		{Index: 0, EventID: "ev-1"},
		{Index: 1, Error: "boom"},
		{Index: 2, EventID: "ev-3"},
	}

	ids := EventIDs(results)
	if len(ids) != 2 {
		t.Fatalf("expected 2 IDs, got %d", len(ids))
	}
	if ids[0] != "ev-1" || ids[1] != "ev-3" {
		t.Errorf("unexpected IDs: %v", ids)
	}
}

func TestMockProjectorFabricatesIDs(t *testing.T) {
	m := &MockProjector{}

	results, err := m.Project(context.Background(), "user-1", testItems())
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(EventIDs(results)) != 3 {
		t.Errorf("expected an ID per item, got %d", len(EventIDs(results)))
	}
}
