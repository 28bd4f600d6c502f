package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

// LessonSource is where lessons live: the Google calendar or the local store.
// Write failures are logged by the implementation and not reported.
type LessonSource interface {
	ListRange(ctx context.Context, start, end time.Time) []models.Lesson
	CreateFromLesson(ctx context.Context, lesson models.Lesson, summary, description string)
	UpdateEvent(ctx context.Context, id string, patch models.LessonPatch)
	DeleteEvent(ctx context.Context, id string)
}

type bookingDirectory interface {
	GetStudents(ctx context.Context) []models.Student
	GetInstructors(ctx context.Context) []models.Instructor
	GetSettings(ctx context.Context) models.AppSettings
}

type confirmationNotifier interface {
	SendConfirmation(ctx context.Context, lesson models.Lesson, student models.Student, instructor models.Instructor, settings models.AppSettings) bool
}

// BookingEventType names a workflow event.
type BookingEventType string

const (
	EventSelectSlot       BookingEventType = "select_slot"
	EventChooseStudent    BookingEventType = "choose_student"
	EventChooseInstructor BookingEventType = "choose_instructor"
	EventCreate           BookingEventType = "create"
	EventOpenLesson       BookingEventType = "open_lesson"
	EventConfirm          BookingEventType = "confirm"
	EventDelete           BookingEventType = "delete"
	EventClose            BookingEventType = "close"
	// EventDispatch sends the confirmation of a ConfirmingState. It is raised
	// by the session store and not accepted from clients.
	EventDispatch BookingEventType = "dispatch"
)

// BookingEvent is an input of the workflow. Only the fields the event type uses are read.
type BookingEvent struct {
	Type         BookingEventType `json:"type" validate:"required,oneof=select_slot choose_student choose_instructor create open_lesson confirm delete close"`
	Start        *time.Time       `json:"start,omitempty"`
	End          *time.Time       `json:"end,omitempty"`
	StudentID    string           `json:"student_id,omitempty"`
	InstructorID string           `json:"instructor_id,omitempty"`
	LessonID     string           `json:"lesson_id,omitempty"`
}

// BookingWorkflow is the transition function of a booking interaction.
// Each transition performs at most one lesson mutation and one notification.
type BookingWorkflow struct {
	lessons   LessonSource
	directory bookingDirectory
	checker   *AvailabilityChecker
	notifier  confirmationNotifier
	cache     *CacheService
	metrics   *MetricsService
	loc       *time.Location
	logger    *zap.Logger
	newID     func() string
}

// NewBookingWorkflow wires the workflow collaborators.
func NewBookingWorkflow(lessons LessonSource, directory bookingDirectory, checker *AvailabilityChecker, notifier confirmationNotifier, cache *CacheService, metrics *MetricsService, loc *time.Location, logger *zap.Logger) *BookingWorkflow {
	if loc == nil {
		loc = time.UTC
	}
	if checker == nil {
		checker = NewAvailabilityChecker(loc)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingWorkflow{
		lessons:   lessons,
		directory: directory,
		checker:   checker,
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		loc:       loc,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Apply returns the state reached from state on event. On error the caller keeps state.
func (w *BookingWorkflow) Apply(ctx context.Context, state BookingState, event BookingEvent) (BookingState, error) {
	if state == nil {
		state = IdleState{}
	}
	next, err := w.transition(ctx, state, event)
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
		if appErrors.FromError(err).Status >= 500 {
			outcome = "error"
		}
		w.logger.Debug("booking event rejected", zap.String("event", string(event.Type)), zap.String("step", string(state.Step())), zap.Error(err))
	}
	w.metrics.RecordBookingTransition(string(event.Type), outcome)
	return next, err
}

func (w *BookingWorkflow) transition(ctx context.Context, state BookingState, event BookingEvent) (BookingState, error) {
	switch event.Type {
	case EventSelectSlot:
		return w.selectSlot(ctx, event)
	case EventClose:
		return IdleState{}, nil
	case EventOpenLesson:
		return w.openLesson(ctx, event)
	}

	switch s := state.(type) {
	case SlotSelectedState:
		switch event.Type {
		case EventChooseStudent:
			return w.chooseStudent(ctx, s.Slot, s.InstructorID, event)
		case EventChooseInstructor:
			id, err := w.resolveInstructorID(ctx, event.InstructorID)
			if err != nil {
				return nil, err
			}
			s.InstructorID = id
			return s, nil
		case EventCreate:
			return nil, appErrors.Clone(appErrors.ErrValidation, "a student must be chosen before creating the lesson")
		}
	case StudentChosenState:
		switch event.Type {
		case EventChooseStudent:
			return w.chooseStudent(ctx, s.Slot, s.InstructorID, event)
		case EventChooseInstructor:
			id, err := w.resolveInstructorID(ctx, event.InstructorID)
			if err != nil {
				return nil, err
			}
			s.InstructorID = id
			return s, nil
		case EventCreate:
			return w.create(ctx, s)
		}
	case LessonCreatedState:
		switch event.Type {
		case EventConfirm:
			return ConfirmingState{Lesson: s.Lesson}, nil
		case EventDelete:
			return w.delete(ctx, s.Lesson)
		}
	case ConfirmingState:
		if event.Type == EventDispatch {
			return w.dispatch(ctx, s)
		}
	case ConfirmedState:
		if event.Type == EventDelete {
			return w.delete(ctx, s.Lesson)
		}
	}
	return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot %s while %s", event.Type, state.Step()))
}

// selectSlot snaps a bare grid click to its hour and gives it one hour. An
// explicit start and end pair is kept as sent.
func (w *BookingWorkflow) selectSlot(ctx context.Context, event BookingEvent) (BookingState, error) {
	if event.Start == nil || event.Start.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start is required to select a slot")
	}
	var start, end time.Time
	if event.End != nil && !event.End.IsZero() {
		start, end = event.Start.In(w.loc), event.End.In(w.loc)
	} else {
		local := event.Start.In(w.loc)
		start = time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, w.loc)
		end = start.Add(time.Hour)
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot end must be after its start")
	}
	instructorID := ""
	if event.InstructorID != "" {
		id, err := w.resolveInstructorID(ctx, event.InstructorID)
		if err != nil {
			return nil, err
		}
		instructorID = id
	}
	return SlotSelectedState{Slot: Slot{Start: start, End: end}, InstructorID: instructorID}, nil
}

func (w *BookingWorkflow) chooseStudent(ctx context.Context, slot Slot, instructorID string, event BookingEvent) (BookingState, error) {
	if event.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	student, ok := w.findStudent(ctx, event.StudentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return StudentChosenState{
		Slot:         slot,
		StudentID:    student.ID,
		InstructorID: instructorID,
		Availability: w.checker.Check(student, slot.Start, slot.End),
	}, nil
}

func (w *BookingWorkflow) resolveInstructorID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "instructor_id is required")
	}
	if _, ok := w.findInstructor(ctx, id); !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	return id, nil
}

func (w *BookingWorkflow) create(ctx context.Context, s StudentChosenState) (BookingState, error) {
	if s.InstructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an instructor must be chosen before creating the lesson")
	}
	if !s.Slot.End.After(s.Slot.Start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot end must be after its start")
	}
	student, ok := w.findStudent(ctx, s.StudentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	instructor, ok := w.findInstructor(ctx, s.InstructorID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}

	placeholder := models.Lesson{
		ID:           w.newID(),
		StudentID:    student.ID,
		InstructorID: s.InstructorID,
		Start:        s.Slot.Start,
		End:          s.Slot.End,
	}
	summary := fmt.Sprintf("Driving lesson: %s", student.FullName())
	description := fmt.Sprintf("Student: %s\nInstructor: %s", student.FullName(), displayInstructor(instructor))
	w.lessons.CreateFromLesson(ctx, placeholder, summary, description)
	w.cache.Invalidate(ctx, dashboardCachePattern)

	lesson := w.canonicalLesson(ctx, placeholder)
	w.logger.Info("lesson created", zap.String("lesson_id", lesson.ID), zap.String("student_id", lesson.StudentID), zap.String("instructor_id", lesson.InstructorID))

	availability := s.Availability
	return LessonCreatedState{Lesson: lesson, Availability: &availability}, nil
}

// canonicalLesson re-reads the slot to pick up the id assigned by the lesson source.
func (w *BookingWorkflow) canonicalLesson(ctx context.Context, placeholder models.Lesson) models.Lesson {
	var match *models.Lesson
	for _, lesson := range w.lessons.ListRange(ctx, placeholder.Start, placeholder.End) {
		if lesson.ID == placeholder.ID {
			return lesson
		}
		if lesson.StudentID == placeholder.StudentID && lesson.InstructorID == placeholder.InstructorID && lesson.Start.Equal(placeholder.Start) {
			found := lesson
			match = &found
		}
	}
	if match != nil {
		return *match
	}
	w.logger.Warn("created lesson not found on re-read, keeping placeholder", zap.String("lesson_id", placeholder.ID))
	return placeholder
}

func (w *BookingWorkflow) openLesson(ctx context.Context, event BookingEvent) (BookingState, error) {
	if event.LessonID == "" || event.Start == nil || event.End == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson_id, start and end are required to open a lesson")
	}
	for _, lesson := range w.lessons.ListRange(ctx, *event.Start, *event.End) {
		if lesson.ID != event.LessonID {
			continue
		}
		if lesson.Confirmed {
			return ConfirmedState{Lesson: lesson}, nil
		}
		return LessonCreatedState{Lesson: lesson}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
}

// dispatch notifies the student and marks the lesson confirmed. When either
// party no longer exists the message is skipped and the lesson is still confirmed.
func (w *BookingWorkflow) dispatch(ctx context.Context, s ConfirmingState) (BookingState, error) {
	lesson := s.Lesson
	student, studentOK := w.findStudent(ctx, lesson.StudentID)
	instructor, instructorOK := w.findInstructor(ctx, lesson.InstructorID)

	notified := false
	if studentOK && instructorOK {
		settings := w.directory.GetSettings(ctx)
		if !w.notifier.SendConfirmation(ctx, lesson, student, instructor, settings) {
			w.logger.Warn("confirmation not sent, lesson left unconfirmed", zap.String("lesson_id", lesson.ID))
			return LessonCreatedState{Lesson: lesson, Note: NoteNotificationFailed}, nil
		}
		notified = true
	} else {
		w.logger.Warn("lesson references a missing student or instructor, notification skipped",
			zap.String("lesson_id", lesson.ID), zap.Bool("student_found", studentOK), zap.Bool("instructor_found", instructorOK))
	}

	confirmed := true
	w.lessons.UpdateEvent(ctx, lesson.ID, models.LessonPatch{Confirmed: &confirmed})
	w.cache.Invalidate(ctx, dashboardCachePattern)
	lesson.Confirmed = true

	if stored, found := w.storedLesson(ctx, lesson); found {
		if !stored.Confirmed {
			w.logger.Warn("confirmation flag not saved by the lesson source", zap.String("lesson_id", lesson.ID), zap.Bool("notified", notified))
			return LessonCreatedState{Lesson: stored, Note: NoteConfirmationNotSaved}, nil
		}
		lesson = stored
	}
	w.logger.Info("lesson confirmed", zap.String("lesson_id", lesson.ID), zap.Bool("notified", notified))
	return ConfirmedState{Lesson: lesson, Notified: notified}, nil
}

// storedLesson re-reads lesson from the lesson source, whose writes only log failures.
func (w *BookingWorkflow) storedLesson(ctx context.Context, lesson models.Lesson) (models.Lesson, bool) {
	for _, candidate := range w.lessons.ListRange(ctx, lesson.Start, lesson.End) {
		if candidate.ID == lesson.ID {
			return candidate, true
		}
	}
	return models.Lesson{}, false
}

func (w *BookingWorkflow) delete(ctx context.Context, lesson models.Lesson) (BookingState, error) {
	w.lessons.DeleteEvent(ctx, lesson.ID)
	w.cache.Invalidate(ctx, dashboardCachePattern)
	w.logger.Info("lesson deleted", zap.String("lesson_id", lesson.ID))
	return IdleState{}, nil
}

func (w *BookingWorkflow) findStudent(ctx context.Context, id string) (models.Student, bool) {
	if id == "" {
		return models.Student{}, false
	}
	for _, student := range w.directory.GetStudents(ctx) {
		if student.ID == id {
			return student, true
		}
	}
	return models.Student{}, false
}

func (w *BookingWorkflow) findInstructor(ctx context.Context, id string) (models.Instructor, bool) {
	if id == "" {
		return models.Instructor{}, false
	}
	for _, instructor := range w.directory.GetInstructors(ctx) {
		if instructor.ID == id {
			return instructor, true
		}
	}
	return models.Instructor{}, false
}

func displayInstructor(instructor models.Instructor) string {
	if name := instructor.FullName(); name != "" {
		return name
	}
	return models.UnknownLabel
}

// IsInvalidTransition reports whether err rejects an event for the current state.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, appErrors.ErrInvalidTransition)
}
