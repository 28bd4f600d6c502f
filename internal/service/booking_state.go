package service

import (
	"time"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// BookingStep names the kind of a booking state.
type BookingStep string

const (
	StepIdle          BookingStep = "idle"
	StepSlotSelected  BookingStep = "slot_selected"
	StepStudentChosen BookingStep = "student_chosen"
	StepLessonCreated BookingStep = "lesson_created"
	StepConfirming    BookingStep = "confirming"
	StepConfirmed     BookingStep = "confirmed"
)

// NoteNotificationFailed marks a lesson whose confirmation message could not be sent.
const NoteNotificationFailed = "notification_failed"

// NoteConfirmationNotSaved marks a lesson whose confirmed flag the lesson source did not keep.
const NoteConfirmationNotSaved = "confirmation_not_saved"

// Slot is the interval picked on the grid.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BookingState is one of the booking workflow states below. Each state
// carries only the data valid in it.
type BookingState interface {
	Step() BookingStep
	bookingState()
}

// IdleState: nothing selected.
type IdleState struct{}

// SlotSelectedState: an empty grid cell was picked, optionally within an instructor column.
type SlotSelectedState struct {
	Slot         Slot
	InstructorID string
}

// StudentChosenState: a student was picked for the slot and checked against their availability.
type StudentChosenState struct {
	Slot         Slot
	StudentID    string
	InstructorID string
	Availability AvailabilityResult
}

// LessonCreatedState: a lesson exists and is shown in detail.
type LessonCreatedState struct {
	Lesson       models.Lesson
	Availability *AvailabilityResult
	Note         string
}

// ConfirmingState: the confirmation notification is in flight.
type ConfirmingState struct {
	Lesson models.Lesson
}

// ConfirmedState: the lesson is confirmed.
type ConfirmedState struct {
	Lesson   models.Lesson
	Notified bool
}

func (IdleState) Step() BookingStep          { return StepIdle }
func (SlotSelectedState) Step() BookingStep  { return StepSlotSelected }
func (StudentChosenState) Step() BookingStep { return StepStudentChosen }
func (LessonCreatedState) Step() BookingStep { return StepLessonCreated }
func (ConfirmingState) Step() BookingStep    { return StepConfirming }
func (ConfirmedState) Step() BookingStep     { return StepConfirmed }

func (IdleState) bookingState()          {}
func (SlotSelectedState) bookingState()  {}
func (StudentChosenState) bookingState() {}
func (LessonCreatedState) bookingState() {}
func (ConfirmingState) bookingState()    {}
func (ConfirmedState) bookingState()     {}

// BookingView is the JSON representation of a booking session.
type BookingView struct {
	SessionID    string              `json:"session_id,omitempty"`
	Step         BookingStep         `json:"step"`
	Slot         *Slot               `json:"slot,omitempty"`
	StudentID    string              `json:"student_id,omitempty"`
	InstructorID string              `json:"instructor_id,omitempty"`
	Lesson       *models.Lesson      `json:"lesson,omitempty"`
	Availability *AvailabilityResult `json:"availability,omitempty"`
	Notified     bool                `json:"notified,omitempty"`
	Note         string              `json:"note,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
}

// DescribeBooking flattens a state into its view.
func DescribeBooking(state BookingState) BookingView {
	switch s := state.(type) {
	case SlotSelectedState:
		slot := s.Slot
		return BookingView{Step: s.Step(), Slot: &slot, InstructorID: s.InstructorID}
	case StudentChosenState:
		slot := s.Slot
		availability := s.Availability
		return BookingView{Step: s.Step(), Slot: &slot, StudentID: s.StudentID, InstructorID: s.InstructorID, Availability: &availability}
	case LessonCreatedState:
		lesson := s.Lesson
		return BookingView{Step: s.Step(), Lesson: &lesson, StudentID: lesson.StudentID, InstructorID: lesson.InstructorID, Availability: s.Availability, Note: s.Note}
	case ConfirmingState:
		lesson := s.Lesson
		return BookingView{Step: s.Step(), Lesson: &lesson, StudentID: lesson.StudentID, InstructorID: lesson.InstructorID}
	case ConfirmedState:
		lesson := s.Lesson
		return BookingView{Step: s.Step(), Lesson: &lesson, StudentID: lesson.StudentID, InstructorID: lesson.InstructorID, Notified: s.Notified}
	default:
		return BookingView{Step: StepIdle}
	}
}
