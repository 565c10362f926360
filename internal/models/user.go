package models

// CourseProfile is one academic course a user is tracking.
// The planner reads these records but never mutates them.
type CourseProfile struct {
	ID                string   `json:"id,omitempty"`
	UserID            string   `json:"user_id,omitempty"`
	Name              string   `json:"course_name"`
	SKS               int      `json:"sks"`
	Difficulty        int      `json:"difficulty"`
	HasPractical      bool     `json:"has_practical"`
	ReadingLoad       *float64 `json:"reading_load,omitempty"`
	Preference        *int     `json:"preference,omitempty"`
	RelatedCourses    []string `json:"related_courses,omitempty"`
	EvaluationMethods []string `json:"evaluation_methods,omitempty"`
}

// ExistingCommitment is a fixed, non-movable time block (an existing
// class or recurring obligation). Supplied by the user, never generated.
type ExistingCommitment struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Activity  string `json:"activity"`
}

// StudyPreferences holds user-level scheduling constraints. Zero values
// mean "not set"; the compiler substitutes defaults.
type StudyPreferences struct {
	UserID                string   `json:"user_id,omitempty"`
	PreferredStudyTimes   []string `json:"preferred_study_times"`
	SleepTime             string   `json:"sleep_time"`
	WakeTime              string   `json:"wake_time"`
	StudyDaysPerWeek      int      `json:"study_days_per_week"`
	LearningStyle         string   `json:"learning_style"`
	MaxConsecutiveMinutes int      `json:"max_consecutive_minutes"`
}

// UserSettings holds per-user planner settings.
type UserSettings struct {
	UserID string `json:"user_id,omitempty"`
	// SKSDefinition is the minutes of independent study assumed per
	// credit unit per week.
	SKSDefinition int `json:"sks_definition"`
}

// DefaultSKSDefinition is used when a user has no stored settings.
const DefaultSKSDefinition = 50

// UserContext bundles everything the compiler needs for one user.
type UserContext struct {
	UserID           string
	Courses          []CourseProfile
	ExistingSchedule []ExistingCommitment
	Preferences      StudyPreferences
	Settings         UserSettings
}

// CalendarCredential is a user-specific stored calendar token. When a
// user has none, the projector falls back to the shared service token.
type CalendarCredential struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"-"`
}
