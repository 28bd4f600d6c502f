package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// AvailabilityResult is the advisory outcome of an availability check.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// AvailabilityChecker compares proposed lessons with a student's weekly rules.
// A negative result is a warning: booking is never blocked on it.
type AvailabilityChecker struct {
	loc *time.Location
}

// NewAvailabilityChecker builds a checker reading weekdays and hours in loc.
func NewAvailabilityChecker(loc *time.Location) *AvailabilityChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityChecker{loc: loc}
}

// Check reports whether [start, end) fits the student's rules. Only the first
// rule for the weekday is considered.
func (c *AvailabilityChecker) Check(student models.Student, start, end time.Time) AvailabilityResult {
	if len(student.Availability) == 0 {
		return AvailabilityResult{Available: true}
	}
	start = start.In(c.loc)
	end = end.In(c.loc)

	day := int(start.Weekday())
	var rule *models.Availability
	for i := range student.Availability {
		if student.Availability[i].Day == day {
			rule = &student.Availability[i]
			break
		}
	}
	if rule == nil {
		return AvailabilityResult{
			Reason: fmt.Sprintf("%s is not available on %s", student.FirstName, start.Weekday()),
		}
	}
	if start.Hour() < rule.StartHour || end.Hour() > rule.EndHour {
		return AvailabilityResult{
			Reason: fmt.Sprintf("%s is only available from %dh to %dh that day", student.FirstName, rule.StartHour, rule.EndHour),
		}
	}
	return AvailabilityResult{Available: true}
}
