package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/studyflow/planner-engine/internal/config"
	"github.com/studyflow/planner-engine/internal/models"
	"github.com/studyflow/planner-engine/internal/storage"
)

// GoogleProjector implements Projector against a Google-Calendar-style
// REST endpoint
type GoogleProjector struct {
	endpoint        string
	serviceToken    string
	reminderMinutes int
	maxConcurrent   int
	location        *time.Location
	repo            storage.Repository
	httpClient      *http.Client
}

// NewGoogleProjector creates a calendar projector. The configured
// timezone must resolve to a known location.
func NewGoogleProjector(cfg config.CalendarConfig, repo storage.Repository) (*GoogleProjector, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", cfg.Timezone, err)
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	reminder := cfg.ReminderMinutes
	if reminder <= 0 {
		reminder = 15
	}

	return &GoogleProjector{
		endpoint:        cfg.Endpoint,
		serviceToken:    cfg.ServiceToken,
		reminderMinutes: reminder,
		maxConcurrent:   maxConcurrent,
		location:        loc,
		repo:            repo,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Project creates one calendar event per schedule item with bounded
// concurrency. The credential is resolved once, before any item is
// issued: the user's stored token if present, else the shared service
// token. Cancellation stops issuing new creates but never rolls back
// events already created.
func (p *GoogleProjector) Project(ctx context.Context, userID string, items []models.ScheduleItem) ([]models.ProjectResult, error) {
	token, err := p.resolveToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]models.ProjectResult, len(items))
	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup

	for i, item := range items {
		if ctx.Err() != nil {
			results[i] = models.ProjectResult{Index: i, Error: "canceled before submission"}
			continue
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(i int, item models.ScheduleItem) {
			defer wg.Done()
			defer func() { <-sem }()

			eventID, err := p.createEvent(ctx, token, item)
			if err != nil {
				slog.Error("failed to create calendar event",
					"error", err,
					"user_id", userID,
					"date", item.Date,
					"course", item.CourseName,
				)
				results[i] = models.ProjectResult{Index: i, Error: err.Error()}
				return
			}

			results[i] = models.ProjectResult{Index: i, EventID: eventID}
		}(i, item)
	}

	wg.Wait()

	created := len(EventIDs(results))
	slog.Info("calendar projection finished",
		"user_id", userID,
		"items", len(items),
		"created", created,
		"failed", len(items)-created,
	)

	return results, nil
}

// resolveToken picks the user's stored credential over the shared
// service credential
func (p *GoogleProjector) resolveToken(ctx context.Context, userID string) (string, error) {
	cred, err := p.repo.GetCalendarCredential(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to look up calendar credential: %w", err)
	}

	if cred != nil && cred.AccessToken != "" {
		return cred.AccessToken, nil
	}

	if p.serviceToken == "" {
		return "", ErrNoCredential
	}

	return p.serviceToken, nil
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type reminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type eventReminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []reminderOverride `json:"overrides"`
}

type calendarEvent struct {
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	Start       eventTime      `json:"start"`
	End         eventTime      `json:"end"`
	Reminders   eventReminders `json:"reminders"`
}

// createEvent issues one create-event call and returns the created ID
func (p *GoogleProjector) createEvent(ctx context.Context, token string, item models.ScheduleItem) (string, error) {
	start, err := p.localTimestamp(item.Date, item.StartTime)
	if err != nil {
		return "", err
	}

	end, err := p.localTimestamp(item.Date, item.EndTime)
	if err != nil {
		return "", err
	}

	event := calendarEvent{
		Summary:     fmt.Sprintf("%s - %s", item.CourseName, item.Activity),
		Description: fmt.Sprintf("Aktivitas belajar: %s\nMata kuliah: %s", item.Activity, item.CourseName),
		Start:       eventTime{DateTime: start, TimeZone: p.location.String()},
		End:         eventTime{DateTime: end, TimeZone: p.location.String()},
		Reminders: eventReminders{
			UseDefault: false,
			Overrides: []reminderOverride{
				{Method: "popup", Minutes: p.reminderMinutes},
			},
		},
	}

	body, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	url := fmt.Sprintf("%s/calendars/primary/events", p.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("event request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("calendar API error: status %d: %s", resp.StatusCode, string(errBody))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode event response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar API returned no event id")
	}

	return created.ID, nil
}

// localTimestamp combines a date and an HH:MM time in the configured
// timezone into an RFC3339 timestamp
func (p *GoogleProjector) localTimestamp(date, clock string) (string, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, p.location)
	if err != nil {
		return "", fmt.Errorf("invalid event time %s %s: %w", date, clock, err)
	}
	return t.Format(time.RFC3339), nil
}
