package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyflow/planner-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Courses ---

// CreateCourse creates a new course record
func (r *PostgresRepository) CreateCourse(ctx context.Context, c *models.CourseProfile) error {
	relatedJSON, err := json.Marshal(c.RelatedCourses)
	if err != nil {
		return fmt.Errorf("failed to marshal related courses: %w", err)
	}

	methodsJSON, err := json.Marshal(c.EvaluationMethods)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation methods: %w", err)
	}

	query := `
		INSERT INTO user_courses (id, user_id, course_name, sks, difficulty, has_practical, reading_load, preference, related_courses, evaluation_methods)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.SKS,
		c.Difficulty,
		c.HasPractical,
		nullFloat(c.ReadingLoad),
		nullInt(c.Preference),
		relatedJSON,
		methodsJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

// UpdateCourse updates an existing course
func (r *PostgresRepository) UpdateCourse(ctx context.Context, c *models.CourseProfile) error {
	relatedJSON, err := json.Marshal(c.RelatedCourses)
	if err != nil {
		return fmt.Errorf("failed to marshal related courses: %w", err)
	}

	methodsJSON, err := json.Marshal(c.EvaluationMethods)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation methods: %w", err)
	}

	query := `
		UPDATE user_courses
		SET course_name = $3, sks = $4, difficulty = $5, has_practical = $6, reading_load = $7, preference = $8, related_courses = $9, evaluation_methods = $10
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.SKS,
		c.Difficulty,
		c.HasPractical,
		nullFloat(c.ReadingLoad),
		nullInt(c.Preference),
		relatedJSON,
		methodsJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("course not found: %s", c.ID)
	}

	return nil
}

// DeleteCourse deletes a course by ID
func (r *PostgresRepository) DeleteCourse(ctx context.Context, userID, id string) error {
	query := `DELETE FROM user_courses WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("course not found: %s", id)
	}

	return nil
}

// GetUserCourses returns all courses for a user in insertion order
func (r *PostgresRepository) GetUserCourses(ctx context.Context, userID string) ([]models.CourseProfile, error) {
	query := `
		SELECT id, user_id, course_name, sks, difficulty, has_practical, reading_load, preference, related_courses, evaluation_methods
		FROM user_courses
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	defer rows.Close()

	courses := []models.CourseProfile{}

	for rows.Next() {
		var c models.CourseProfile
		var readingLoad sql.NullFloat64
		var preference sql.NullInt64
		var relatedJSON, methodsJSON []byte

		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Name,
			&c.SKS,
			&c.Difficulty,
			&c.HasPractical,
			&readingLoad,
			&preference,
			&relatedJSON,
			&methodsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		if readingLoad.Valid {
			v := readingLoad.Float64
			c.ReadingLoad = &v
		}
		if preference.Valid {
			v := int(preference.Int64)
			c.Preference = &v
		}

		if relatedJSON != nil {
			if err := json.Unmarshal(relatedJSON, &c.RelatedCourses); err != nil {
				return nil, fmt.Errorf("failed to unmarshal related courses: %w", err)
			}
		}
		if methodsJSON != nil {
			if err := json.Unmarshal(methodsJSON, &c.EvaluationMethods); err != nil {
				return nil, fmt.Errorf("failed to unmarshal evaluation methods: %w", err)
			}
		}

		courses = append(courses, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}

// --- Existing schedule ---

// CreateCommitment creates a fixed schedule entry
func (r *PostgresRepository) CreateCommitment(ctx context.Context, c *models.ExistingCommitment) error {
	query := `
		INSERT INTO user_schedule (id, user_id, day, start_time, end_time, activity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, c.ID, c.UserID, c.Day, c.StartTime, c.EndTime, c.Activity)
	if err != nil {
		return fmt.Errorf("failed to create commitment: %w", err)
	}

	return nil
}

// DeleteCommitment deletes a schedule entry by ID
func (r *PostgresRepository) DeleteCommitment(ctx context.Context, userID, id string) error {
	query := `DELETE FROM user_schedule WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete commitment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("commitment not found: %s", id)
	}

	return nil
}

// GetUserSchedule returns all fixed commitments for a user
func (r *PostgresRepository) GetUserSchedule(ctx context.Context, userID string) ([]models.ExistingCommitment, error) {
	query := `
		SELECT id, user_id, day, start_time, end_time, activity
		FROM user_schedule
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	defer rows.Close()

	schedule := []models.ExistingCommitment{}

	for rows.Next() {
		var c models.ExistingCommitment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Day, &c.StartTime, &c.EndTime, &c.Activity); err != nil {
			return nil, fmt.Errorf("failed to scan commitment: %w", err)
		}
		schedule = append(schedule, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule: %w", err)
	}

	return schedule, nil
}

// --- Preferences and settings ---

// GetUserPreferences returns stored preferences, or zero values for a
// new user so the compiler can substitute defaults
func (r *PostgresRepository) GetUserPreferences(ctx context.Context, userID string) (models.StudyPreferences, error) {
	query := `
		SELECT user_id, preferred_study_times, sleep_time, wake_time, study_days_per_week, learning_style, max_consecutive_minutes
		FROM user_preferences
		WHERE user_id = $1
	`

	var p models.StudyPreferences
	var timesJSON []byte

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&timesJSON,
		&p.SleepTime,
		&p.WakeTime,
		&p.StudyDaysPerWeek,
		&p.LearningStyle,
		&p.MaxConsecutiveMinutes,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StudyPreferences{UserID: userID}, nil
		}
		return models.StudyPreferences{}, fmt.Errorf("failed to get preferences: %w", err)
	}

	if timesJSON != nil {
		if err := json.Unmarshal(timesJSON, &p.PreferredStudyTimes); err != nil {
			return models.StudyPreferences{}, fmt.Errorf("failed to unmarshal preferred study times: %w", err)
		}
	}

	return p, nil
}

// PutUserPreferences upserts preferences for a user
func (r *PostgresRepository) PutUserPreferences(ctx context.Context, p models.StudyPreferences) error {
	timesJSON, err := json.Marshal(p.PreferredStudyTimes)
	if err != nil {
		return fmt.Errorf("failed to marshal preferred study times: %w", err)
	}

	query := `
		INSERT INTO user_preferences (user_id, preferred_study_times, sleep_time, wake_time, study_days_per_week, learning_style, max_consecutive_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET preferred_study_times = EXCLUDED.preferred_study_times,
		    sleep_time = EXCLUDED.sleep_time,
		    wake_time = EXCLUDED.wake_time,
		    study_days_per_week = EXCLUDED.study_days_per_week,
		    learning_style = EXCLUDED.learning_style,
		    max_consecutive_minutes = EXCLUDED.max_consecutive_minutes
	`

	_, err = r.pool.Exec(ctx, query,
		p.UserID,
		timesJSON,
		p.SleepTime,
		p.WakeTime,
		p.StudyDaysPerWeek,
		p.LearningStyle,
		p.MaxConsecutiveMinutes,
	)

	if err != nil {
		return fmt.Errorf("failed to put preferences: %w", err)
	}

	return nil
}

// GetUserSettings returns stored settings, or the default SKS definition
// for a new user
func (r *PostgresRepository) GetUserSettings(ctx context.Context, userID string) (models.UserSettings, error) {
	query := `SELECT user_id, sks_definition FROM user_settings WHERE user_id = $1`

	var s models.UserSettings
	err := r.pool.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.SKSDefinition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserSettings{UserID: userID, SKSDefinition: models.DefaultSKSDefinition}, nil
		}
		return models.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	return s, nil
}

// PutUserSettings upserts settings for a user
func (r *PostgresRepository) PutUserSettings(ctx context.Context, s models.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, sks_definition)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET sks_definition = EXCLUDED.sks_definition
	`

	_, err := r.pool.Exec(ctx, query, s.UserID, s.SKSDefinition)
	if err != nil {
		return fmt.Errorf("failed to put settings: %w", err)
	}

	return nil
}

// --- Calendar credentials ---

// GetCalendarCredential returns the user's stored calendar token, or nil
// when none exists
func (r *PostgresRepository) GetCalendarCredential(ctx context.Context, userID string) (*models.CalendarCredential, error) {
	query := `SELECT user_id, access_token FROM user_calendar_credentials WHERE user_id = $1`

	var cred models.CalendarCredential
	err := r.pool.QueryRow(ctx, query, userID).Scan(&cred.UserID, &cred.AccessToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get calendar credential: %w", err)
	}

	return &cred, nil
}

// PutCalendarCredential upserts a user's calendar token
func (r *PostgresRepository) PutCalendarCredential(ctx context.Context, cred *models.CalendarCredential) error {
	query := `
		INSERT INTO user_calendar_credentials (user_id, access_token)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token
	`

	_, err := r.pool.Exec(ctx, query, cred.UserID, cred.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to put calendar credential: %w", err)
	}

	return nil
}

// --- Study plans ---

// CreatePlan creates a new study plan record
func (r *PostgresRepository) CreatePlan(ctx context.Context, p *models.StudyPlan) error {
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	eventIDsJSON, err := json.Marshal(p.EventIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal event ids: %w", err)
	}

	query := `
		INSERT INTO study_plans (id, user_id, status, items, event_ids, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.UserID,
		string(p.Status),
		itemsJSON,
		eventIDsJSON,
		p.CreatedAt,
		p.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// GetPlan retrieves a study plan by ID
func (r *PostgresRepository) GetPlan(ctx context.Context, id string) (*models.StudyPlan, error) {
	query := `
		SELECT id, user_id, status, items, event_ids, created_at, expires_at
		FROM study_plans
		WHERE id = $1
	`

	return r.scanPlanRow(r.pool.QueryRow(ctx, query, id))
}

// GetLatestPlan retrieves the newest plan for a user
func (r *PostgresRepository) GetLatestPlan(ctx context.Context, userID string) (*models.StudyPlan, error) {
	query := `
		SELECT id, user_id, status, items, event_ids, created_at, expires_at
		FROM study_plans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanPlanRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *PostgresRepository) scanPlanRow(row pgx.Row) (*models.StudyPlan, error) {
	var p models.StudyPlan
	var statusStr string
	var itemsJSON, eventIDsJSON []byte

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&statusStr,
		&itemsJSON,
		&eventIDsJSON,
		&p.CreatedAt,
		&p.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	p.Status = models.PlanStatus(statusStr)

	if err := json.Unmarshal(itemsJSON, &p.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	if eventIDsJSON != nil {
		if err := json.Unmarshal(eventIDsJSON, &p.EventIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event ids: %w", err)
		}
	}

	return &p, nil
}

// ListPlans returns plans matching filters
func (r *PostgresRepository) ListPlans(ctx context.Context, filters models.PlanFilters) ([]*models.StudyPlan, error) {
	query := `
		SELECT id, user_id, status, items, event_ids, created_at, expires_at
		FROM study_plans
		WHERE 1=1
	`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filters.UserID)
		argNum++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	return r.scanPlanRows(rows)
}

// GetStalePlans returns plans past their retention window
func (r *PostgresRepository) GetStalePlans(ctx context.Context) ([]*models.StudyPlan, error) {
	query := `
		SELECT id, user_id, status, items, event_ids, created_at, expires_at
		FROM study_plans
		WHERE expires_at < NOW()
		ORDER BY expires_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale plans: %w", err)
	}
	defer rows.Close()

	return r.scanPlanRows(rows)
}

func (r *PostgresRepository) scanPlanRows(rows pgx.Rows) ([]*models.StudyPlan, error) {
	var plans []*models.StudyPlan

	for rows.Next() {
		var p models.StudyPlan
		var statusStr string
		var itemsJSON, eventIDsJSON []byte

		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&statusStr,
			&itemsJSON,
			&eventIDsJSON,
			&p.CreatedAt,
			&p.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}

		p.Status = models.PlanStatus(statusStr)

		if err := json.Unmarshal(itemsJSON, &p.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		if eventIDsJSON != nil {
			if err := json.Unmarshal(eventIDsJSON, &p.EventIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event ids: %w", err)
			}
		}

		plans = append(plans, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// UpdatePlan updates an existing plan
func (r *PostgresRepository) UpdatePlan(ctx context.Context, p *models.StudyPlan) error {
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	eventIDsJSON, err := json.Marshal(p.EventIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal event ids: %w", err)
	}

	query := `
		UPDATE study_plans
		SET status = $2, items = $3, event_ids = $4, expires_at = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		string(p.Status),
		itemsJSON,
		eventIDsJSON,
		p.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("plan not found: %s", p.ID)
	}

	return nil
}

// DeletePlan deletes a plan by ID
func (r *PostgresRepository) DeletePlan(ctx context.Context, id string) error {
	query := `DELETE FROM study_plans WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("plan not found: %s", id)
	}

	return nil
}

// --- API clients ---

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	_, err := r.pool.Exec(ctx, query, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// Helper functions for nullable values

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
