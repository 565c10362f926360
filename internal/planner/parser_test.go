package planner

import (
	"errors"
	"strings"
	"testing"

	"github.com/studyflow/planner-engine/internal/gemini"
)

const validPayload = `[
  {
    "tanggal": "2026-09-07",
    "waktu_mulai": "19:00",
    "waktu_berakhir": "20:30",
    "mata_kuliah": "Algoritma",
    "aktivitas": "Review lecture notes"
  },
  {
    "tanggal": "2026-09-08",
    "waktu_mulai": "09:00",
    "waktu_berakhir": "10:30",
    "mata_kuliah": "Basis Data",
    "aktivitas": "Practice SQL queries"
  }
]`

func TestParseScheduleValid(t *testing.T) {
	items, err := ParseSchedule(validPayload)
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].CourseName != "Algoritma" {
		t.Errorf("expected course 'Algoritma', got %q", items[0].CourseName)
	}
	if items[1].Date != "2026-09-08" {
		t.Errorf("expected date 2026-09-08, got %q", items[1].Date)
	}
}

func TestParseScheduleStripsFences(t *testing.T) {
	fenced := "```json\n" + validPayload + "\n```"

	items, err := ParseSchedule(fenced)
	if err != nil {
		t.Fatalf("ParseSchedule failed on fenced payload: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestParseScheduleMissingKey(t *testing.T) {
	payload := `[{"tanggal": "2026-09-07", "waktu_mulai": "19:00", "mata_kuliah": "Algoritma", "aktivitas": "Review"}]`

	_, err := ParseSchedule(payload)
	if err == nil {
		t.Fatal("expected error for missing key")
	}

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %T", err)
	}
	if !strings.Contains(malformed.Reason, "waktu_berakhir") {
		t.Errorf("error should name the missing key, got %q", malformed.Reason)
	}
	if malformed.Raw != payload {
		t.Error("error should retain the raw response text")
	}
}

func TestParseScheduleRejectsNonArray(t *testing.T) {
	payload := `{"tanggal": "2026-09-07"}`

	_, err := ParseSchedule(payload)
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if !strings.Contains(malformed.Reason, "not an array") {
		t.Errorf("unexpected reason: %q", malformed.Reason)
	}
}

func TestParseScheduleRejectsInvalidJSON(t *testing.T) {
	_, err := ParseSchedule("I could not generate a schedule, sorry!")
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestParseScheduleRejectsNonStringValue(t *testing.T) {
	payload := `[{"tanggal": "2026-09-07", "waktu_mulai": "19:00", "waktu_berakhir": "20:30", "mata_kuliah": "Algoritma", "aktivitas": 42}]`

	_, err := ParseSchedule(payload)
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if !strings.Contains(malformed.Reason, "aktivitas") {
		t.Errorf("error should name the offending key, got %q", malformed.Reason)
	}
}

func TestParseScheduleRejectsBadDate(t *testing.T) {
	payload := `[{"tanggal": "07-09-2026", "waktu_mulai": "19:00", "waktu_berakhir": "20:30", "mata_kuliah": "Algoritma", "aktivitas": "Review"}]`

	if _, err := ParseSchedule(payload); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestParseScheduleRejectsBadClock(t *testing.T) {
	payload := `[{"tanggal": "2026-09-07", "waktu_mulai": "7pm", "waktu_berakhir": "20:30", "mata_kuliah": "Algoritma", "aktivitas": "Review"}]`

	if _, err := ParseSchedule(payload); err == nil {
		t.Fatal("expected error for non-HH:MM time")
	}
}

func TestParseScheduleRejectsInvertedInterval(t *testing.T) {
	payload := `[{"tanggal": "2026-09-07", "waktu_mulai": "20:30", "waktu_berakhir": "19:00", "mata_kuliah": "Algoritma", "aktivitas": "Review"}]`

	if _, err := ParseSchedule(payload); err == nil {
		t.Fatal("expected error when start is not before end")
	}
}

func TestParseScheduleEmptyArray(t *testing.T) {
	items, err := ParseSchedule("[]")
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty schedule, got %d items", len(items))
	}
}

func TestParseResponseNoText(t *testing.T) {
	_, err := ParseResponse(&gemini.Response{})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestParseResponseFirstCandidate(t *testing.T) {
	resp := &gemini.Response{
		Candidates: []gemini.Candidate{
			{Content: gemini.Content{Parts: []gemini.Part{{Text: "```json\n" + validPayload + "\n```"}}}},
		},
	}

	items, err := ParseResponse(resp)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}
