package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

const mockPrompt = "Generate a study schedule.\n```json\n" + `{
  "user_id": "user-1",
  "courses": [
    {"name": "Algoritma", "sks": 3},
    {"name": "Basis Data", "sks": 2}
  ]
}` + "\n```\nReturn a JSON array."

type mockItem struct {
	Date      string `json:"tanggal"`
	StartTime string `json:"waktu_mulai"`
	EndTime   string `json:"waktu_berakhir"`
	Course    string `json:"mata_kuliah"`
	Activity  string `json:"aktivitas"`
}

func mockItems(t *testing.T, gen *MockGenerator, prompt string) []mockItem {
	t.Helper()

	resp, err := gen.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	text, ok := resp.FirstText()
	if !ok {
		t.Fatal("mock response has no text")
	}
	if !strings.HasPrefix(text, "```json") {
		t.Error("mock response should be fenced like the real model's")
	}

	clean := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(text, "```json", ""), "```", ""))
	var items []mockItem
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		t.Fatalf("mock payload is not valid JSON: %v", err)
	}
	return items
}

func TestMockGeneratorSessionsPerCourse(t *testing.T) {
	gen := &MockGenerator{Start: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)}

	items := mockItems(t, gen, mockPrompt)
	if len(items) != 4 {
		t.Fatalf("expected 2 sessions per course, got %d items", len(items))
	}

	counts := map[string]int{}
	for _, item := range items {
		counts[item.Course]++
	}
	if counts["Algoritma"] != 2 || counts["Basis Data"] != 2 {
		t.Errorf("unexpected session distribution: %v", counts)
	}
}

func TestMockGeneratorNoOverlaps(t *testing.T) {
	gen := &MockGenerator{Start: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)}

	items := mockItems(t, gen, mockPrompt)
	seen := map[string]bool{}
	for _, item := range items {
		key := item.Date + " " + item.StartTime
		if seen[key] {
			t.Errorf("two sessions share slot %s", key)
		}
		seen[key] = true
	}
}

func TestMockGeneratorDeterministic(t *testing.T) {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	a := mockItems(t, &MockGenerator{Start: start}, mockPrompt)
	b := mockItems(t, &MockGenerator{Start: start}, mockPrompt)

	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("item %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestMockGeneratorNoCoursesFallback(t *testing.T) {
	gen := &MockGenerator{Start: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)}

	items := mockItems(t, gen, "no document here")
	if len(items) == 0 {
		t.Fatal("expected fallback schedule for a prompt without courses")
	}
	for _, item := range items {
		if item.Course == "" {
			t.Error("fallback items must still carry a course name")
		}
	}
}

func TestNextMonday(t *testing.T) {
	// 2026-09-02 is a Wednesday; the Monday after is 2026-09-07
	wed := time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC)
	got := nextMonday(wed)
	if got.Format("2006-01-02") != "2026-09-07" {
		t.Errorf("expected 2026-09-07, got %s", got.Format("2006-01-02"))
	}

	// From a Monday, the next Monday is a full week out
	mon := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	got = nextMonday(mon)
	if got.Format("2006-01-02") != "2026-09-14" {
		t.Errorf("expected 2026-09-14, got %s", got.Format("2006-01-02"))
	}
}
