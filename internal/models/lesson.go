package models

import "time"

// UnknownLabel is displayed in place of a student or instructor that no longer resolves.
const UnknownLabel = "unknown"

// Lesson links one student and one instructor to a time interval.
// ID is either generated locally or the calendar event id.
type Lesson struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	InstructorID string    `json:"instructor_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Confirmed    bool      `json:"confirmed"`
}

// Valid reports whether the lesson interval is well formed.
func (l Lesson) Valid() bool {
	return !l.Start.IsZero() && l.End.After(l.Start)
}

// Duration of the lesson.
func (l Lesson) Duration() time.Duration {
	return l.End.Sub(l.Start)
}

// Overlaps reports whether the lesson intersects the half-open range [start, end).
func (l Lesson) Overlaps(start, end time.Time) bool {
	return l.Start.Before(end) && l.End.After(start)
}

// LessonPatch carries a partial lesson update. Nil fields are left untouched.
type LessonPatch struct {
	Summary     *string    `json:"summary,omitempty"`
	Description *string    `json:"description,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Confirmed   *bool      `json:"confirmed,omitempty"`
}

// Apply returns a copy of lesson with the patch fields applied.
func (p LessonPatch) Apply(lesson Lesson) Lesson {
	if p.Start != nil {
		lesson.Start = *p.Start
	}
	if p.End != nil {
		lesson.End = *p.End
	}
	if p.Confirmed != nil {
		lesson.Confirmed = *p.Confirmed
	}
	return lesson
}
