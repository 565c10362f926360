package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studyflow/planner-engine/internal/gemini"
	"github.com/studyflow/planner-engine/internal/models"
)

// requiredItemKeys are the five mandatory keys of every schedule item,
// checked in this order so failures name the first missing key.
var requiredItemKeys = []string{"tanggal", "waktu_mulai", "waktu_berakhir", "mata_kuliah", "aktivitas"}

// ParseResponse extracts the first text payload from a generation
// response and parses it into schedule items.
func ParseResponse(resp *gemini.Response) ([]models.ScheduleItem, error) {
	text, ok := resp.FirstText()
	if !ok {
		return nil, &MalformedResponseError{Reason: "response contains no text payload"}
	}
	return ParseSchedule(text)
}

// ParseSchedule parses raw generation output into schedule items. It
// never repairs or drops data: any schema violation rejects the whole
// batch with a MalformedResponseError carrying the raw text.
func ParseSchedule(raw string) ([]models.ScheduleItem, error) {
	clean := stripFences(raw)

	var parsed any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON", Raw: raw, Err: err}
	}

	elements, ok := parsed.([]any)
	if !ok {
		return nil, &MalformedResponseError{Reason: "response is not an array", Raw: raw}
	}

	items := make([]models.ScheduleItem, 0, len(elements))
	for i, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, &MalformedResponseError{
				Reason: fmt.Sprintf("item %d is not an object", i),
				Raw:    raw,
			}
		}

		fields := make(map[string]string, len(requiredItemKeys))
		for _, key := range requiredItemKeys {
			v, present := obj[key]
			if !present {
				return nil, &MalformedResponseError{
					Reason: fmt.Sprintf("missing required key in schedule item: %s", key),
					Raw:    raw,
				}
			}
			s, ok := v.(string)
			if !ok {
				return nil, &MalformedResponseError{
					Reason: fmt.Sprintf("key %s in item %d is not a string", key, i),
					Raw:    raw,
				}
			}
			fields[key] = s
		}

		item := models.ScheduleItem{
			Date:       fields["tanggal"],
			StartTime:  fields["waktu_mulai"],
			EndTime:    fields["waktu_berakhir"],
			CourseName: fields["mata_kuliah"],
			Activity:   fields["aktivitas"],
		}

		if err := validateItem(item, i); err != nil {
			return nil, &MalformedResponseError{
				Reason: err.Error(),
				Raw:    raw,
			}
		}

		items = append(items, item)
	}

	return items, nil
}

// validateItem enforces the data-model invariants the model is asked for
// but cannot be trusted to honor: a real calendar date, HH:MM clock
// times, and a session that starts before it ends on the same day.
func validateItem(item models.ScheduleItem, index int) error {
	if !validDate(item.Date) {
		return fmt.Errorf("item %d has invalid date %q", index, item.Date)
	}

	start, ok := parseClock(item.StartTime)
	if !ok {
		return fmt.Errorf("item %d has invalid start time %q", index, item.StartTime)
	}

	end, ok := parseClock(item.EndTime)
	if !ok {
		return fmt.Errorf("item %d has invalid end time %q", index, item.EndTime)
	}

	if start >= end {
		return fmt.Errorf("item %d start time %s is not before end time %s", index, item.StartTime, item.EndTime)
	}

	return nil
}

// stripFences removes Markdown code-fence markers around the payload.
// Fences are optional; unfenced text passes through unchanged.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// validDate reports whether s is an ISO calendar date (YYYY-MM-DD)
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// parseClock converts an HH:MM 24-hour time to minutes since midnight
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
