package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

func newTestWorkflow(cal *fakeCalendar, dir *fakeDirectory, notifier *fakeNotifier) *BookingWorkflow {
	return NewBookingWorkflow(cal, dir, nil, notifier, nil, nil, time.UTC, zap.NewNop())
}

func timePtr(t time.Time) *time.Time { return &t }

// bookLesson drives a workflow from idle to a created lesson on Monday 10:00.
func bookLesson(t *testing.T, wf *BookingWorkflow) BookingState {
	t.Helper()
	ctx := context.Background()
	state, err := wf.Apply(ctx, IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 23))})
	require.NoError(t, err)
	state, err = wf.Apply(ctx, state, BookingEvent{Type: EventChooseStudent, StudentID: "alice"})
	require.NoError(t, err)
	state, err = wf.Apply(ctx, state, BookingEvent{Type: EventChooseInstructor, InstructorID: "bob"})
	require.NoError(t, err)
	state, err = wf.Apply(ctx, state, BookingEvent{Type: EventCreate})
	require.NoError(t, err)
	return state
}

func TestBookingWorkflowSelectSlotSnapsToHour(t *testing.T) {
	wf := newTestWorkflow(&fakeCalendar{}, testDirectory(), &fakeNotifier{})

	state, err := wf.Apply(context.Background(), nil, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 23)), InstructorID: "bob"})
	require.NoError(t, err)
	slot, ok := state.(SlotSelectedState)
	require.True(t, ok)
	assert.Equal(t, at(4, 10, 0), slot.Slot.Start)
	assert.Equal(t, at(4, 11, 0), slot.Slot.End)
	assert.Equal(t, "bob", slot.InstructorID)
}

func TestBookingWorkflowSelectSlotKeepsExplicitBounds(t *testing.T) {
	wf := newTestWorkflow(&fakeCalendar{}, testDirectory(), &fakeNotifier{})

	state, err := wf.Apply(context.Background(), IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 45)), End: timePtr(at(4, 11, 30))})
	require.NoError(t, err)
	slot := state.(SlotSelectedState).Slot
	assert.True(t, slot.Start.Equal(at(4, 10, 45)))
	assert.True(t, slot.End.Equal(at(4, 11, 30)))
}

func TestBookingWorkflowSelectSlotRejectsUnknownInstructor(t *testing.T) {
	cal := &fakeCalendar{}
	wf := newTestWorkflow(cal, testDirectory(), &fakeNotifier{})

	state, err := wf.Apply(context.Background(), IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0)), InstructorID: "ghost"})
	require.Error(t, err)
	assert.Nil(t, state)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Empty(t, cal.events)
}

func TestBookingWorkflowCreateRejectsRemovedInstructor(t *testing.T) {
	cal := &fakeCalendar{}
	dir := testDirectory()
	wf := newTestWorkflow(cal, dir, &fakeNotifier{})
	ctx := context.Background()

	state, err := wf.Apply(ctx, IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0)), InstructorID: "bob"})
	require.NoError(t, err)
	state, err = wf.Apply(ctx, state, BookingEvent{Type: EventChooseStudent, StudentID: "alice"})
	require.NoError(t, err)
	dir.instructors = nil

	_, err = wf.Apply(ctx, state, BookingEvent{Type: EventCreate})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Empty(t, cal.events)
	assert.Empty(t, cal.created)
}

func TestBookingWorkflowSelectSlotRejectsEmptyInterval(t *testing.T) {
	wf := newTestWorkflow(&fakeCalendar{}, testDirectory(), &fakeNotifier{})

	_, err := wf.Apply(context.Background(), IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0)), End: timePtr(at(4, 10, 0))})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestBookingWorkflowChooseStudentChecksAvailability(t *testing.T) {
	wf := newTestWorkflow(&fakeCalendar{}, testDirectory(), &fakeNotifier{})
	ctx := context.Background()

	state, err := wf.Apply(ctx, IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 13, 0))})
	require.NoError(t, err)
	state, err = wf.Apply(ctx, state, BookingEvent{Type: EventChooseStudent, StudentID: "alice"})
	require.NoError(t, err)

	chosen := state.(StudentChosenState)
	assert.False(t, chosen.Availability.Available)
	assert.Equal(t, "Alice is only available from 9h to 12h that day", chosen.Availability.Reason)
}

func TestBookingWorkflowUnknownStudent(t *testing.T) {
	wf := newTestWorkflow(&fakeCalendar{}, testDirectory(), &fakeNotifier{})
	ctx := context.Background()

	state, err := wf.Apply(ctx, IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0))})
	require.NoError(t, err)
	_, err = wf.Apply(ctx, state, BookingEvent{Type: EventChooseStudent, StudentID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestBookingWorkflowCreateUsesCanonicalID(t *testing.T) {
	cal := &fakeCalendar{}
	wf := newTestWorkflow(cal, testDirectory(), &fakeNotifier{})

	state := bookLesson(t, wf)
	created, ok := state.(LessonCreatedState)
	require.True(t, ok)
	assert.Equal(t, "evt-1", created.Lesson.ID)
	assert.Equal(t, "alice", created.Lesson.StudentID)
	assert.Equal(t, "bob", created.Lesson.InstructorID)
	assert.False(t, created.Lesson.Confirmed)
	require.NotNil(t, created.Availability)
	assert.True(t, created.Availability.Available)
	assert.Equal(t, []string{"Driving lesson: Alice Martin"}, cal.created)
}

func TestBookingWorkflowCreateKeepsPlaceholderWhenReadFails(t *testing.T) {
	cal := &fakeCalendar{hideAll: true}
	wf := newTestWorkflow(cal, testDirectory(), &fakeNotifier{})
	wf.newID = func() string { return "placeholder" }

	created := bookLesson(t, wf).(LessonCreatedState)
	assert.Equal(t, "placeholder", created.Lesson.ID)
}

func TestBookingWorkflowCreateRequiresStudentAndInstructor(t *testing.T) {
	wf := newTestWorkflow(&fakeCalendar{}, testDirectory(), &fakeNotifier{})
	ctx := context.Background()

	slot, err := wf.Apply(ctx, IdleState{}, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0))})
	require.NoError(t, err)
	_, err = wf.Apply(ctx, slot, BookingEvent{Type: EventCreate})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	chosen, err := wf.Apply(ctx, slot, BookingEvent{Type: EventChooseStudent, StudentID: "alice"})
	require.NoError(t, err)
	_, err = wf.Apply(ctx, chosen, BookingEvent{Type: EventCreate})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestBookingWorkflowInvalidTransition(t *testing.T) {
	wf := newTestWorkflow(&fakeCalendar{}, testDirectory(), &fakeNotifier{})

	_, err := wf.Apply(context.Background(), IdleState{}, BookingEvent{Type: EventConfirm})
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)

	_, err = wf.Apply(context.Background(), IdleState{}, BookingEvent{Type: EventDispatch})
	assert.True(t, IsInvalidTransition(err))
}

func TestBookingWorkflowConfirmSendsAndMarksConfirmed(t *testing.T) {
	cal := &fakeCalendar{}
	notifier := &fakeNotifier{result: true}
	wf := newTestWorkflow(cal, testDirectory(), notifier)
	ctx := context.Background()

	state, err := wf.Apply(ctx, bookLesson(t, wf), BookingEvent{Type: EventConfirm})
	require.NoError(t, err)
	confirming, ok := state.(ConfirmingState)
	require.True(t, ok)
	assert.Zero(t, notifier.calls, "confirm itself has no side effect")

	state, err = wf.Apply(ctx, confirming, BookingEvent{Type: EventDispatch})
	require.NoError(t, err)
	confirmed, ok := state.(ConfirmedState)
	require.True(t, ok)
	assert.True(t, confirmed.Notified)
	assert.True(t, confirmed.Lesson.Confirmed)
	assert.Equal(t, 1, notifier.calls)
	require.Contains(t, cal.updates, "evt-1")
	assert.True(t, *cal.updates["evt-1"].Confirmed)
}

func TestBookingWorkflowFailedNotificationKeepsLessonUnconfirmed(t *testing.T) {
	cal := &fakeCalendar{}
	wf := newTestWorkflow(cal, testDirectory(), &fakeNotifier{result: false})
	ctx := context.Background()

	state, err := wf.Apply(ctx, ConfirmingState{Lesson: bookLesson(t, wf).(LessonCreatedState).Lesson}, BookingEvent{Type: EventDispatch})
	require.NoError(t, err)
	created, ok := state.(LessonCreatedState)
	require.True(t, ok)
	assert.Equal(t, NoteNotificationFailed, created.Note)
	assert.False(t, created.Lesson.Confirmed)
	assert.Empty(t, cal.updates)
	assert.False(t, cal.ListRange(ctx, at(4, 0, 0), at(5, 0, 0))[0].Confirmed)
}

func TestBookingWorkflowMissingStudentStillConfirms(t *testing.T) {
	cal := &fakeCalendar{}
	dir := testDirectory()
	notifier := &fakeNotifier{result: true}
	wf := newTestWorkflow(cal, dir, notifier)

	lesson := bookLesson(t, wf).(LessonCreatedState).Lesson
	dir.students = nil

	state, err := wf.Apply(context.Background(), ConfirmingState{Lesson: lesson}, BookingEvent{Type: EventDispatch})
	require.NoError(t, err)
	confirmed := state.(ConfirmedState)
	assert.False(t, confirmed.Notified)
	assert.True(t, confirmed.Lesson.Confirmed)
	assert.Zero(t, notifier.calls)
}

func TestBookingWorkflowDispatchReportsStoredConfirmation(t *testing.T) {
	cal := &fakeCalendar{}
	notifier := &fakeNotifier{result: true}
	wf := newTestWorkflow(cal, testDirectory(), notifier)
	ctx := context.Background()

	lesson := bookLesson(t, wf).(LessonCreatedState).Lesson
	cal.dropUpdates = true

	state, err := wf.Apply(ctx, ConfirmingState{Lesson: lesson}, BookingEvent{Type: EventDispatch})
	require.NoError(t, err)
	created, ok := state.(LessonCreatedState)
	require.True(t, ok)
	assert.Equal(t, NoteConfirmationNotSaved, created.Note)
	assert.False(t, created.Lesson.Confirmed)
	assert.Equal(t, 1, notifier.calls)
	assert.False(t, cal.ListRange(ctx, at(4, 0, 0), at(5, 0, 0))[0].Confirmed)
}

func TestBookingWorkflowOpenLesson(t *testing.T) {
	cal := &fakeCalendar{}
	wf := newTestWorkflow(cal, testDirectory(), &fakeNotifier{result: true})
	ctx := context.Background()
	lesson := bookLesson(t, wf).(LessonCreatedState).Lesson

	open := BookingEvent{Type: EventOpenLesson, LessonID: lesson.ID, Start: timePtr(lesson.Start), End: timePtr(lesson.End)}
	state, err := wf.Apply(ctx, IdleState{}, open)
	require.NoError(t, err)
	assert.Equal(t, StepLessonCreated, state.Step())

	_, err = wf.Apply(ctx, ConfirmingState{Lesson: lesson}, BookingEvent{Type: EventDispatch})
	require.NoError(t, err)
	state, err = wf.Apply(ctx, IdleState{}, open)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmed, state.Step())

	open.LessonID = "missing"
	_, err = wf.Apply(ctx, IdleState{}, open)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestBookingWorkflowDeleteAndClose(t *testing.T) {
	cal := &fakeCalendar{}
	wf := newTestWorkflow(cal, testDirectory(), &fakeNotifier{result: true})
	ctx := context.Background()

	state, err := wf.Apply(ctx, bookLesson(t, wf), BookingEvent{Type: EventDelete})
	require.NoError(t, err)
	assert.Equal(t, StepIdle, state.Step())
	assert.Equal(t, []string{"evt-1"}, cal.deleted)
	assert.Empty(t, cal.ListRange(ctx, at(4, 0, 0), at(5, 0, 0)))

	state, err = wf.Apply(ctx, SlotSelectedState{}, BookingEvent{Type: EventClose})
	require.NoError(t, err)
	assert.Equal(t, StepIdle, state.Step())
}

func TestDescribeBooking(t *testing.T) {
	view := DescribeBooking(StudentChosenState{Slot: Slot{Start: at(4, 10, 0), End: at(4, 11, 0)}, StudentID: "alice", Availability: AvailabilityResult{Available: true}})
	assert.Equal(t, StepStudentChosen, view.Step)
	require.NotNil(t, view.Slot)
	require.NotNil(t, view.Availability)
	assert.Nil(t, view.Lesson)

	assert.Equal(t, StepIdle, DescribeBooking(nil).Step)
}
