package calendar

import (
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// Private extended property keys carried by every lesson event.
const (
	PropStudentID    = "studentId"
	PropInstructorID = "instructorId"
	PropConfirmed    = "confirmed"
)

const dateLayout = "2006-01-02"

// EventTime is either a timed instant or an all-day date.
type EventTime struct {
	DateTime string
	Date     string
}

// RawEvent is an event as received from the provider, before any defaulting.
type RawEvent struct {
	ID       string
	Start    EventTime
	End      EventTime
	Metadata map[string]string
}

// NormalizationError reports why a raw event could not become a lesson.
type NormalizationError struct {
	EventID string
	Reason  string
}

func (e *NormalizationError) Error() string {
	if e.EventID == "" {
		return "normalize event: " + e.Reason
	}
	return fmt.Sprintf("normalize event %s: %s", e.EventID, e.Reason)
}

// Normalize turns a raw event into a lesson. Missing metadata defaults to
// empty ids and an unconfirmed lesson; all-day dates are read in loc.
func Normalize(raw RawEvent, loc *time.Location) (models.Lesson, error) {
	if loc == nil {
		loc = time.UTC
	}
	if raw.ID == "" {
		return models.Lesson{}, &NormalizationError{Reason: "missing id"}
	}
	start, err := parseEventTime(raw.Start, loc)
	if err != nil {
		return models.Lesson{}, &NormalizationError{EventID: raw.ID, Reason: "start: " + err.Error()}
	}
	end, err := parseEventTime(raw.End, loc)
	if err != nil {
		return models.Lesson{}, &NormalizationError{EventID: raw.ID, Reason: "end: " + err.Error()}
	}
	if !end.After(start) {
		return models.Lesson{}, &NormalizationError{EventID: raw.ID, Reason: "end is not after start"}
	}
	return models.Lesson{
		ID:           raw.ID,
		StudentID:    raw.Metadata[PropStudentID],
		InstructorID: raw.Metadata[PropInstructorID],
		Start:        start,
		End:          end,
		Confirmed:    raw.Metadata[PropConfirmed] == "true",
	}, nil
}

func parseEventTime(t EventTime, loc *time.Location) (time.Time, error) {
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid dateTime %q", t.DateTime)
		}
		return parsed, nil
	}
	if t.Date != "" {
		parsed, err := time.ParseInLocation(dateLayout, t.Date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", t.Date)
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("missing")
}

// FromGoogle copies the fields the adapter reads out of a provider event.
func FromGoogle(ev *gcal.Event) RawEvent {
	if ev == nil {
		return RawEvent{}
	}
	raw := RawEvent{ID: ev.Id}
	if ev.Start != nil {
		raw.Start = EventTime{DateTime: ev.Start.DateTime, Date: ev.Start.Date}
	}
	if ev.End != nil {
		raw.End = EventTime{DateTime: ev.End.DateTime, Date: ev.End.Date}
	}
	if ev.ExtendedProperties != nil {
		raw.Metadata = ev.ExtendedProperties.Private
	}
	return raw
}

func lessonMetadata(lesson models.Lesson) map[string]string {
	return map[string]string{
		PropStudentID:    lesson.StudentID,
		PropInstructorID: lesson.InstructorID,
		PropConfirmed:    formatBool(lesson.Confirmed),
	}
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func eventDateTime(t time.Time, loc *time.Location) *gcal.EventDateTime {
	return &gcal.EventDateTime{DateTime: t.In(loc).Format(time.RFC3339), TimeZone: loc.String()}
}
