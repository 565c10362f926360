package planner

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/studyflow/planner-engine/internal/models"
)

func sampleContext() models.UserContext {
	reading := 0.5
	pref := 2
	return models.UserContext{
		UserID: "user-1",
		Courses: []models.CourseProfile{
			{Name: "Algoritma", SKS: 3, Difficulty: 4, HasPractical: true, ReadingLoad: &reading},
			{Name: "Basis Data", SKS: 2, Difficulty: 3, Preference: &pref},
		},
		ExistingSchedule: []models.ExistingCommitment{
			{Day: "Monday", StartTime: "08:00", EndTime: "10:00", Activity: "Kuliah Algoritma"},
		},
		Preferences: models.StudyPreferences{
			PreferredStudyTimes: []string{"evening"},
			SleepTime:           "22:30",
			WakeTime:            "06:00",
			StudyDaysPerWeek:    6,
			LearningStyle:       "auditory",
		},
		Settings: models.UserSettings{SKSDefinition: 60},
	}
}

func TestCompileDeterministic(t *testing.T) {
	uc := sampleContext()

	first, err := Compile(uc)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	second, err := Compile(uc)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	docA, err := first.Document()
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	docB, err := second.Document()
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	if !bytes.Equal(docA, docB) {
		t.Error("identical input produced different documents")
	}
}

func TestCompilePreservesCourseOrder(t *testing.T) {
	uc := sampleContext()

	compiled, err := Compile(uc)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if len(compiled.Courses) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(compiled.Courses))
	}
	if compiled.Courses[0].Name != "Algoritma" {
		t.Errorf("expected first course 'Algoritma', got %q", compiled.Courses[0].Name)
	}
	if compiled.Courses[1].Name != "Basis Data" {
		t.Errorf("expected second course 'Basis Data', got %q", compiled.Courses[1].Name)
	}
}

func TestCompileAppliesPreferenceDefaults(t *testing.T) {
	uc := models.UserContext{UserID: "user-2"}

	compiled, err := Compile(uc)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	prefs := compiled.StudyPreferences
	if prefs.SleepSchedule.SleepTime != "23:00" {
		t.Errorf("expected default sleep time 23:00, got %q", prefs.SleepSchedule.SleepTime)
	}
	if prefs.SleepSchedule.WakeTime != "07:00" {
		t.Errorf("expected default wake time 07:00, got %q", prefs.SleepSchedule.WakeTime)
	}
	if prefs.StudyDaysPerWeek != 5 {
		t.Errorf("expected default study days 5, got %d", prefs.StudyDaysPerWeek)
	}
	if prefs.LearningStyle != "visual" {
		t.Errorf("expected default learning style visual, got %q", prefs.LearningStyle)
	}
	if prefs.MaxConsecutiveMinutes != 120 {
		t.Errorf("expected default max consecutive 120, got %d", prefs.MaxConsecutiveMinutes)
	}
	if prefs.PreferredStudyTimes == nil {
		t.Error("preferred study times should serialize as an empty list, not null")
	}
}

func TestCompileKeepsExplicitPreferences(t *testing.T) {
	uc := sampleContext()

	compiled, err := Compile(uc)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	prefs := compiled.StudyPreferences
	if prefs.SleepSchedule.SleepTime != "22:30" {
		t.Errorf("explicit sleep time overwritten: %q", prefs.SleepSchedule.SleepTime)
	}
	if prefs.StudyDaysPerWeek != 6 {
		t.Errorf("explicit study days overwritten: %d", prefs.StudyDaysPerWeek)
	}
	if prefs.LearningStyle != "auditory" {
		t.Errorf("explicit learning style overwritten: %q", prefs.LearningStyle)
	}
}

func TestCompileDefaultSKSDefinition(t *testing.T) {
	uc := models.UserContext{
		UserID:  "user-3",
		Courses: []models.CourseProfile{{Name: "Statistika", SKS: 3, Difficulty: 2}},
	}

	compiled, err := Compile(uc)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if compiled.SKSDefinition != 50 {
		t.Errorf("expected default sks_definition 50, got %d", compiled.SKSDefinition)
	}

	// A 3-credit course at 50 minutes per credit implies 150 weekly
	// minutes; both numbers must reach the document unchanged.
	doc, err := compiled.Document()
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if !strings.Contains(string(doc), `"sks_definition": 50`) {
		t.Error("document does not carry the default sks_definition")
	}
	if !strings.Contains(string(doc), `"sks": 3`) {
		t.Error("document does not carry the course credit load")
	}
}

func TestCompileRejectsUnnamedCourse(t *testing.T) {
	uc := models.UserContext{
		UserID: "user-4",
		Courses: []models.CourseProfile{
			{Name: "Kalkulus", SKS: 3, Difficulty: 3},
			{Name: "   ", SKS: 2, Difficulty: 2},
		},
	}

	_, err := Compile(uc)
	if err == nil {
		t.Fatal("expected validation error for blank course name")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if validation.Field != "courses[1].course_name" {
		t.Errorf("expected field courses[1].course_name, got %q", validation.Field)
	}
}

func TestBuildPromptEmbedsDocument(t *testing.T) {
	compiled, err := Compile(sampleContext())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	template := "Plan the week.\n```json\n" + UserDataPlaceholder + "\n```\nReturn JSON."
	prompt, err := BuildPrompt(template, compiled)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	if strings.Contains(prompt, UserDataPlaceholder) {
		t.Error("placeholder was not replaced")
	}
	if !strings.Contains(prompt, `"user_id": "user-1"`) {
		t.Error("compiled document missing from prompt")
	}
	if !strings.Contains(prompt, "Return JSON.") {
		t.Error("template text around the placeholder was lost")
	}
}
