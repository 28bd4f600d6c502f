package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestSessions(notifier *fakeNotifier) (*BookingSessionStore, *fakeCalendar, *fakeClock) {
	cal := &fakeCalendar{}
	wf := NewBookingWorkflow(cal, testDirectory(), nil, notifier, nil, nil, time.UTC, zap.NewNop())
	store := NewBookingSessionStore(wf, validator.New(), 10*time.Minute, nil, zap.NewNop())
	clock := &fakeClock{now: at(1, 12, 0)}
	store.now = clock.Now
	return store, cal, clock
}

func TestBookingSessionOpen(t *testing.T) {
	store, _, clock := newTestSessions(&fakeNotifier{})

	view := store.Open()
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, StepIdle, view.Step)
	require.NotNil(t, view.ExpiresAt)
	assert.Equal(t, clock.now.Add(10*time.Minute), *view.ExpiresAt)

	got, err := store.Get(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, view, got)
}

func TestBookingSessionFullFlow(t *testing.T) {
	notifier := &fakeNotifier{result: true}
	store, cal, _ := newTestSessions(notifier)
	ctx := context.Background()
	id := store.Open().SessionID

	var observed BookingStep
	notifier.hook = func() {
		view, err := store.Get(id)
		if err == nil {
			observed = view.Step
		}
	}

	events := []BookingEvent{
		{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0)), InstructorID: "bob"},
		{Type: EventChooseStudent, StudentID: "alice"},
		{Type: EventCreate},
	}
	for _, event := range events {
		_, err := store.Apply(ctx, id, event)
		require.NoError(t, err)
	}

	view, err := store.Apply(ctx, id, BookingEvent{Type: EventConfirm})
	require.NoError(t, err)
	assert.Equal(t, StepConfirming, observed)
	assert.Equal(t, StepConfirmed, view.Step)
	assert.True(t, view.Notified)
	require.NotNil(t, view.Lesson)
	assert.Equal(t, "evt-1", view.Lesson.ID)
	assert.True(t, cal.events[0].Confirmed)
}

func TestBookingSessionFailedNotification(t *testing.T) {
	store, _, _ := newTestSessions(&fakeNotifier{result: false})
	ctx := context.Background()
	id := store.Open().SessionID

	for _, event := range []BookingEvent{
		{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0)), InstructorID: "bob"},
		{Type: EventChooseStudent, StudentID: "alice"},
		{Type: EventCreate},
	} {
		_, err := store.Apply(ctx, id, event)
		require.NoError(t, err)
	}
	view, err := store.Apply(ctx, id, BookingEvent{Type: EventConfirm})
	require.NoError(t, err)
	assert.Equal(t, StepLessonCreated, view.Step)
	assert.Equal(t, NoteNotificationFailed, view.Note)
}

func TestBookingSessionRejectedEventKeepsState(t *testing.T) {
	store, _, _ := newTestSessions(&fakeNotifier{})
	ctx := context.Background()
	id := store.Open().SessionID

	_, err := store.Apply(ctx, id, BookingEvent{Type: EventSelectSlot, Start: timePtr(at(4, 10, 0))})
	require.NoError(t, err)

	_, err = store.Apply(ctx, id, BookingEvent{Type: EventConfirm})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)

	view, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StepSlotSelected, view.Step)
}

func TestBookingSessionValidatesEvent(t *testing.T) {
	store, _, _ := newTestSessions(&fakeNotifier{})
	id := store.Open().SessionID

	for _, eventType := range []BookingEventType{"", EventDispatch, "teleport"} {
		_, err := store.Apply(context.Background(), id, BookingEvent{Type: eventType})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	}
}

func TestBookingSessionExpiry(t *testing.T) {
	store, _, clock := newTestSessions(&fakeNotifier{})
	first := store.Open().SessionID
	clock.now = clock.now.Add(6 * time.Minute)
	second := store.Open().SessionID

	clock.now = clock.now.Add(5 * time.Minute)
	_, err := store.Get(first)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, err = store.Get(second)
	require.NoError(t, err)

	clock.now = clock.now.Add(10 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Sweep())
}

func TestBookingSessionClose(t *testing.T) {
	store, _, _ := newTestSessions(&fakeNotifier{})
	id := store.Open().SessionID

	require.NoError(t, store.Close(id))
	assert.Error(t, store.Close(id))
	_, err := store.Get(id)
	assert.Error(t, err)
}
