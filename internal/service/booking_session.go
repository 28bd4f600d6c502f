package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

type bookingSession struct {
	id string
	// step serializes transitions; one booking interaction at a time.
	step sync.Mutex

	mu      sync.RWMutex
	state   BookingState
	touched time.Time
}

func (s *bookingSession) snapshot() (BookingState, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.touched
}

func (s *bookingSession) publish(state BookingState, at time.Time) {
	s.mu.Lock()
	s.state = state
	s.touched = at
	s.mu.Unlock()
}

// BookingSessionStore holds the in-progress booking of each client session.
// Sessions idle for longer than the TTL are discarded.
type BookingSessionStore struct {
	workflow  *BookingWorkflow
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*bookingSession
}

// NewBookingSessionStore constructs an empty session store.
func NewBookingSessionStore(workflow *BookingWorkflow, validate *validator.Validate, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *BookingSessionStore {
	if validate == nil {
		validate = validator.New()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingSessionStore{
		workflow:  workflow,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*bookingSession),
	}
}

// Open starts a new idle session.
func (s *BookingSessionStore) Open() BookingView {
	now := s.now()
	session := &bookingSession{id: uuid.NewString(), state: IdleState{}, touched: now}
	s.mu.Lock()
	s.sessions[session.id] = session
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(count)
	return s.view(session.id, session.state, now)
}

// Get returns the current state of a session.
func (s *BookingSessionStore) Get(id string) (BookingView, error) {
	session, err := s.lookup(id)
	if err != nil {
		return BookingView{}, err
	}
	state, touched := session.snapshot()
	return s.view(id, state, touched), nil
}

// Apply feeds event to the session. A confirm event runs through the
// confirming state, which readers can observe while the message is sent.
func (s *BookingSessionStore) Apply(ctx context.Context, id string, event BookingEvent) (BookingView, error) {
	if err := s.validator.Struct(event); err != nil {
		return BookingView{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking event")
	}
	session, err := s.lookup(id)
	if err != nil {
		return BookingView{}, err
	}

	session.step.Lock()
	defer session.step.Unlock()

	current, _ := session.snapshot()
	next, err := s.workflow.Apply(ctx, current, event)
	if err != nil {
		return BookingView{}, err
	}
	if confirming, ok := next.(ConfirmingState); ok {
		session.publish(confirming, s.now())
		next, err = s.workflow.Apply(ctx, confirming, BookingEvent{Type: EventDispatch})
		if err != nil {
			session.publish(current, s.now())
			return BookingView{}, err
		}
	}
	now := s.now()
	session.publish(next, now)
	return s.view(id, next, now), nil
}

// Close drops a session.
func (s *BookingSessionStore) Close(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "booking session not found")
	}
	s.metrics.SetActiveSessions(count)
	return nil
}

// Sweep removes expired sessions and returns how many were removed.
func (s *BookingSessionStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if _, touched := session.snapshot(); touched.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(count)
	if removed > 0 {
		s.logger.Debug("expired booking sessions removed", zap.Int("count", removed))
	}
	return removed
}

func (s *BookingSessionStore) lookup(id string) (*bookingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking session not found")
	}
	if _, touched := session.snapshot(); touched.Before(s.now().Add(-s.ttl)) {
		delete(s.sessions, id)
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking session expired")
	}
	return session, nil
}

func (s *BookingSessionStore) view(id string, state BookingState, touched time.Time) BookingView {
	view := DescribeBooking(state)
	view.SessionID = id
	expires := touched.Add(s.ttl).UTC()
	view.ExpiresAt = &expires
	return view
}
