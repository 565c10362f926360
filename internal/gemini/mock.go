package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MockGenerator fabricates a plausible study schedule without calling the
// generation API. It backs guest mode and tests; selection happens at
// wiring time, the pipeline itself never branches on mode.
type MockGenerator struct {
	// Start anchors the fabricated week. Zero means the Monday after
	// the current date.
	Start time.Time
}

// mock session slots cycled across the week, HH:MM pairs
var mockSlots = [][2]string{
	{"09:00", "10:30"},
	{"13:00", "14:30"},
	{"19:00", "20:30"},
}

var mockActivities = []string{
	"Review lecture notes and summarize key concepts",
	"Work through practice problems",
	"Prepare questions for the next session",
}

// Generate builds a deterministic schedule from the course list embedded
// in the prompt and wraps it in the same fenced-JSON envelope the real
// model produces.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{Err: err}
	}

	courses := coursesFromPrompt(prompt)
	if len(courses) == 0 {
		courses = []string{"Independent Study"}
	}

	start := m.Start
	if start.IsZero() {
		start = nextMonday(time.Now())
	}

	type item struct {
		Date       string `json:"tanggal"`
		StartTime  string `json:"waktu_mulai"`
		EndTime    string `json:"waktu_berakhir"`
		CourseName string `json:"mata_kuliah"`
		Activity   string `json:"aktivitas"`
	}

	// Walk distinct (day, slot) pairs so fabricated sessions never
	// overlap one another.
	var items []item
	k := 0
	for i, course := range courses {
		for j := 0; j < 2; j++ {
			day := k % 7
			slot := mockSlots[(k/7)%len(mockSlots)]
			items = append(items, item{
				Date:       start.AddDate(0, 0, day).Format("2006-01-02"),
				StartTime:  slot[0],
				EndTime:    slot[1],
				CourseName: course,
				Activity:   mockActivities[(i+j)%len(mockActivities)],
			})
			k++
		}
	}

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mock schedule: %w", err)
	}

	text := "```json\n" + string(payload) + "\n```"
	return &Response{
		Candidates: []Candidate{
			{Content: Content{Parts: []Part{{Text: text}}}},
		},
	}, nil
}

// coursesFromPrompt recovers course names from the compiled document
// embedded between the prompt's code fences.
func coursesFromPrompt(prompt string) []string {
	open := strings.Index(prompt, "```json")
	if open < 0 {
		return nil
	}
	rest := prompt[open+len("```json"):]
	close := strings.Index(rest, "```")
	if close < 0 {
		return nil
	}

	var doc struct {
		Courses []struct {
			Name string `json:"name"`
		} `json:"courses"`
	}
	if err := json.Unmarshal([]byte(rest[:close]), &doc); err != nil {
		return nil
	}

	names := make([]string, 0, len(doc.Courses))
	for _, c := range doc.Courses {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

// nextMonday returns the Monday strictly after t, at midnight
func nextMonday(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return t.AddDate(0, 0, offset)
}
