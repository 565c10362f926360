package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyflow/planner-engine/internal/models"
)

// Preference defaults applied when a user has not configured them
const (
	DefaultSleepTime             = "23:00"
	DefaultWakeTime              = "07:00"
	DefaultStudyDaysPerWeek      = 5
	DefaultLearningStyle         = "visual"
	DefaultMaxConsecutiveMinutes = 120
)

// UserDataPlaceholder marks where the compiled document is embedded in a
// prompt template.
const UserDataPlaceholder = "{{USER_DATA}}"

// CompiledRequest is the canonical document assembled from user data
// before being embedded in the generation prompt. Field order is fixed by
// the struct, so identical inputs serialize to identical bytes.
type CompiledRequest struct {
	UserID           string               `json:"user_id"`
	Courses          []CompiledCourse     `json:"courses"`
	ExistingSchedule []CompiledCommitment `json:"existing_schedule"`
	StudyPreferences CompiledPreferences  `json:"study_preferences"`
	SKSDefinition    int                  `json:"sks_definition"`
}

// CompiledCourse is a course record reduced to the fields meaningful to
// scheduling.
type CompiledCourse struct {
	Name              string   `json:"name"`
	SKS               int      `json:"sks"`
	Difficulty        int      `json:"difficulty"`
	HasPractical      bool     `json:"has_practical"`
	ReadingLoad       *float64 `json:"reading_load"`
	Preference        *int     `json:"preference"`
	RelatedCourses    []string `json:"related_courses,omitempty"`
	EvaluationMethods []string `json:"evaluation_methods,omitempty"`
}

// CompiledCommitment is a fixed time block the generated schedule must
// not overlap.
type CompiledCommitment struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Activity  string `json:"activity"`
}

// CompiledPreferences are the user constraints with defaults applied.
type CompiledPreferences struct {
	PreferredStudyTimes   []string      `json:"preferred_study_times"`
	SleepSchedule         SleepSchedule `json:"sleep_schedule"`
	StudyDaysPerWeek      int           `json:"study_days_per_week"`
	LearningStyle         string        `json:"learning_style"`
	MaxConsecutiveMinutes int           `json:"max_consecutive_minutes"`
}

// SleepSchedule is the user's sleep window.
type SleepSchedule struct {
	SleepTime string `json:"sleep_time"`
	WakeTime  string `json:"wake_time"`
}

// Compile deterministically maps a user context to the canonical compiled
// request. Pure: no I/O, no timestamps, input order preserved.
func Compile(uc models.UserContext) (*CompiledRequest, error) {
	courses := make([]CompiledCourse, 0, len(uc.Courses))
	for i, c := range uc.Courses {
		if strings.TrimSpace(c.Name) == "" {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("courses[%d].course_name", i),
				Message: "course name is required",
			}
		}

		courses = append(courses, CompiledCourse{
			Name:              c.Name,
			SKS:               c.SKS,
			Difficulty:        c.Difficulty,
			HasPractical:      c.HasPractical,
			ReadingLoad:       c.ReadingLoad,
			Preference:        c.Preference,
			RelatedCourses:    c.RelatedCourses,
			EvaluationMethods: c.EvaluationMethods,
		})
	}

	commitments := make([]CompiledCommitment, 0, len(uc.ExistingSchedule))
	for _, item := range uc.ExistingSchedule {
		commitments = append(commitments, CompiledCommitment{
			Day:       item.Day,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
			Activity:  item.Activity,
		})
	}

	sks := uc.Settings.SKSDefinition
	if sks <= 0 {
		sks = models.DefaultSKSDefinition
	}

	return &CompiledRequest{
		UserID:           uc.UserID,
		Courses:          courses,
		ExistingSchedule: commitments,
		StudyPreferences: compilePreferences(uc.Preferences),
		SKSDefinition:    sks,
	}, nil
}

// compilePreferences applies defaults for any unset preference fields
func compilePreferences(p models.StudyPreferences) CompiledPreferences {
	out := CompiledPreferences{
		PreferredStudyTimes: p.PreferredStudyTimes,
		SleepSchedule: SleepSchedule{
			SleepTime: p.SleepTime,
			WakeTime:  p.WakeTime,
		},
		StudyDaysPerWeek:      p.StudyDaysPerWeek,
		LearningStyle:         p.LearningStyle,
		MaxConsecutiveMinutes: p.MaxConsecutiveMinutes,
	}

	if out.PreferredStudyTimes == nil {
		out.PreferredStudyTimes = []string{}
	}
	if out.SleepSchedule.SleepTime == "" {
		out.SleepSchedule.SleepTime = DefaultSleepTime
	}
	if out.SleepSchedule.WakeTime == "" {
		out.SleepSchedule.WakeTime = DefaultWakeTime
	}
	if out.StudyDaysPerWeek == 0 {
		out.StudyDaysPerWeek = DefaultStudyDaysPerWeek
	}
	if out.LearningStyle == "" {
		out.LearningStyle = DefaultLearningStyle
	}
	if out.MaxConsecutiveMinutes == 0 {
		out.MaxConsecutiveMinutes = DefaultMaxConsecutiveMinutes
	}

	return out
}

// Document serializes the compiled request as indented JSON. The bytes
// are embedded verbatim into the prompt, so they must be stable and
// human-readable.
func (r *CompiledRequest) Document() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize compiled request: %w", err)
	}
	return data, nil
}

// BuildPrompt embeds the compiled document into an instruction template
func BuildPrompt(template string, r *CompiledRequest) (string, error) {
	doc, err := r.Document()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(template, UserDataPlaceholder, string(doc)), nil
}
