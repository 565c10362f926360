package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/studyflow/planner-engine/internal/models"
)

// CheckConflicts rejects a generated schedule whose sessions overlap each
// other or an existing commitment. The generation model is instructed not
// to produce conflicts but gives no guarantee, so a plan is only accepted
// after this check passes. Items must already be validated by the parser.
func CheckConflicts(items []models.ScheduleItem, commitments []models.ExistingCommitment) error {
	// Session vs session, same calendar date
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].Date != items[j].Date {
				continue
			}
			if sessionsOverlap(items[i].StartTime, items[i].EndTime, items[j].StartTime, items[j].EndTime) {
				return &ConflictError{
					First:  describeItem(items[i]),
					Second: describeItem(items[j]),
				}
			}
		}
	}

	// Session vs commitment, matched by weekday or exact date
	for _, item := range items {
		for _, c := range commitments {
			if !commitmentApplies(c, item.Date) {
				continue
			}
			if sessionsOverlap(item.StartTime, item.EndTime, c.StartTime, c.EndTime) {
				return &ConflictError{
					First:  describeItem(item),
					Second: fmt.Sprintf("%s %s-%s %s", c.Day, c.StartTime, c.EndTime, c.Activity),
				}
			}
		}
	}

	return nil
}

// commitmentApplies reports whether a commitment falls on the given
// date. Commitments carry either a weekday name or an exact date.
func commitmentApplies(c models.ExistingCommitment, date string) bool {
	if c.Day == date {
		return true
	}

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}

	return strings.EqualFold(c.Day, d.Weekday().String())
}

// sessionsOverlap reports whether two HH:MM intervals intersect.
// Unparsable bounds never overlap; commitment times are validated when
// stored, schedule item times by the parser.
func sessionsOverlap(aStart, aEnd, bStart, bEnd string) bool {
	as, ok := parseClock(aStart)
	if !ok {
		return false
	}
	ae, ok := parseClock(aEnd)
	if !ok {
		return false
	}
	bs, ok := parseClock(bStart)
	if !ok {
		return false
	}
	be, ok := parseClock(bEnd)
	if !ok {
		return false
	}

	return as < be && bs < ae
}

func describeItem(item models.ScheduleItem) string {
	return fmt.Sprintf("%s %s-%s %s", item.Date, item.StartTime, item.EndTime, item.CourseName)
}
