package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studyflow/planner-engine/internal/models"
)

// Client is a Go SDK for planner-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new planner-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ProjectionOutcome is the response of pushing a plan into the calendar
type ProjectionOutcome struct {
	Plan    *models.StudyPlan      `json:"plan"`
	Results []models.ProjectResult `json:"results"`
	Created int                    `json:"created"`
	Failed  int                    `json:"failed"`
}

// ListPlansOptions contains options for listing plans
type ListPlansOptions struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

// GeneratePlan runs the full generation pipeline for a user
func (c *Client) GeneratePlan(ctx context.Context, req models.GenerateRequest) (*models.StudyPlan, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v1/plans/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool              `json:"success"`
		Data    *models.StudyPlan `json:"data"`
		Error   *apiErrorBody     `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// GetPlan retrieves a plan by ID
func (c *Client) GetPlan(ctx context.Context, id string) (*models.StudyPlan, error) {
	return c.getPlan(ctx, fmt.Sprintf("/api/v1/plans/%s", id))
}

// LatestPlan retrieves the newest plan for a user
func (c *Client) LatestPlan(ctx context.Context, userID string) (*models.StudyPlan, error) {
	return c.getPlan(ctx, fmt.Sprintf("/api/v1/users/%s/plans/latest", userID))
}

func (c *Client) getPlan(ctx context.Context, path string) (*models.StudyPlan, error) {
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool              `json:"success"`
		Data    *models.StudyPlan `json:"data"`
		Error   *apiErrorBody     `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// ListPlans retrieves a list of plans
func (c *Client) ListPlans(ctx context.Context, opts ListPlansOptions) ([]*models.StudyPlan, error) {
	path := "/api/v1/plans?"
	if opts.UserID != "" {
		path += fmt.Sprintf("user_id=%s&", opts.UserID)
	}
	if opts.Status != "" {
		path += fmt.Sprintf("status=%s&", opts.Status)
	}
	if opts.Limit > 0 {
		path += fmt.Sprintf("limit=%d&", opts.Limit)
	}
	if opts.Offset > 0 {
		path += fmt.Sprintf("offset=%d&", opts.Offset)
	}

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Plans []*models.StudyPlan `json:"plans"`
			Count int                 `json:"count"`
		} `json:"data"`
		Error *apiErrorBody `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Plans, nil
}

// DeletePlan removes a plan
func (c *Client) DeletePlan(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/plans/%s", id), nil)
	if err != nil {
		return err
	}

	var result struct {
		Success bool          `json:"success"`
		Error   *apiErrorBody `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return nil
}

// AddToCalendar pushes every item of a plan into the user's calendar
func (c *Client) AddToCalendar(ctx context.Context, planID string) (*ProjectionOutcome, error) {
	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/plans/%s/calendar", planID), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool               `json:"success"`
		Data    *ProjectionOutcome `json:"data"`
		Error   *apiErrorBody      `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// CreateCourse adds a course to a user's profile
func (c *Client) CreateCourse(ctx context.Context, userID string, course models.CourseProfile) (*models.CourseProfile, error) {
	body, err := json.Marshal(course)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/users/%s/courses", userID), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                  `json:"success"`
		Data    *models.CourseProfile `json:"data"`
		Error   *apiErrorBody         `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// ListCourses retrieves a user's courses
func (c *Client) ListCourses(ctx context.Context, userID string) ([]models.CourseProfile, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/users/%s/courses", userID), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Courses []models.CourseProfile `json:"courses"`
			Count   int                    `json:"count"`
		} `json:"data"`
		Error *apiErrorBody `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Courses, nil
}

// DeleteCourse removes a course from a user's profile
func (c *Client) DeleteCourse(ctx context.Context, userID, courseID string) error {
	resp, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/users/%s/courses/%s", userID, courseID), nil)
	if err != nil {
		return err
	}

	var result struct {
		Success bool          `json:"success"`
		Error   *apiErrorBody `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return nil
}

// AddCommitment adds a fixed time block to a user's existing schedule
func (c *Client) AddCommitment(ctx context.Context, userID string, commitment models.ExistingCommitment) (*models.ExistingCommitment, error) {
	body, err := json.Marshal(commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/users/%s/schedule", userID), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                       `json:"success"`
		Data    *models.ExistingCommitment `json:"data"`
		Error   *apiErrorBody              `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// ListSchedule retrieves a user's fixed commitments
func (c *Client) ListSchedule(ctx context.Context, userID string) ([]models.ExistingCommitment, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/users/%s/schedule", userID), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Schedule []models.ExistingCommitment `json:"schedule"`
			Count    int                         `json:"count"`
		} `json:"data"`
		Error *apiErrorBody `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Schedule, nil
}

// PutPreferences stores a user's study preferences
func (c *Client) PutPreferences(ctx context.Context, userID string, prefs models.StudyPreferences) error {
	body, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "PUT", fmt.Sprintf("/api/v1/users/%s/preferences", userID), bytes.NewReader(body))
	if err != nil {
		return err
	}

	var result struct {
		Success bool          `json:"success"`
		Error   *apiErrorBody `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return nil
}

// PutSettings stores a user's planner settings
func (c *Client) PutSettings(ctx context.Context, userID string, settings models.UserSettings) error {
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "PUT", fmt.Sprintf("/api/v1/users/%s/settings", userID), bytes.NewReader(body))
	if err != nil {
		return err
	}

	var result struct {
		Success bool          `json:"success"`
		Error   *apiErrorBody `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
