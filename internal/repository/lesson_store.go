package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// LocalLessonStore keeps lessons in the entity store when calendar sync is off.
// It mirrors the calendar adapter contract: writes report failures through the log only.
type LocalLessonStore struct {
	store  *EntityStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewLocalLessonStore constructs the local lesson source.
func NewLocalLessonStore(store *EntityStore, logger *zap.Logger) *LocalLessonStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalLessonStore{store: store, logger: logger}
}

// ListRange returns lessons overlapping [start, end) ordered by start time.
func (s *LocalLessonStore) ListRange(ctx context.Context, start, end time.Time) []models.Lesson {
	all := s.store.GetLessons(ctx)
	result := make([]models.Lesson, 0, len(all))
	for _, lesson := range all {
		if lesson.Overlaps(start, end) {
			result = append(result, lesson)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result
}

// CreateFromLesson appends the lesson, keeping its id when one is set.
func (s *LocalLessonStore) CreateFromLesson(ctx context.Context, lesson models.Lesson, _, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	lessons := append(s.store.GetLessons(ctx), lesson)
	if err := s.store.SaveLessons(ctx, lessons); err != nil {
		s.logger.Error("failed to store lesson", zap.String("lesson_id", lesson.ID), zap.Error(err))
	}
}

// UpdateEvent applies a partial update to the lesson with the given id.
func (s *LocalLessonStore) UpdateEvent(ctx context.Context, id string, patch models.LessonPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lessons := s.store.GetLessons(ctx)
	found := false
	for i := range lessons {
		if lessons[i].ID == id {
			lessons[i] = patch.Apply(lessons[i])
			found = true
			break
		}
	}
	if !found {
		s.logger.Warn("lesson to update not found", zap.String("lesson_id", id))
		return
	}
	if err := s.store.SaveLessons(ctx, lessons); err != nil {
		s.logger.Error("failed to update lesson", zap.String("lesson_id", id), zap.Error(err))
	}
}

// DeleteEvent removes the lesson with the given id.
func (s *LocalLessonStore) DeleteEvent(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lessons := s.store.GetLessons(ctx)
	kept := lessons[:0]
	for _, lesson := range lessons {
		if lesson.ID != id {
			kept = append(kept, lesson)
		}
	}
	if len(kept) == len(lessons) {
		s.logger.Warn("lesson to delete not found", zap.String("lesson_id", id))
		return
	}
	if err := s.store.SaveLessons(ctx, kept); err != nil {
		s.logger.Error("failed to delete lesson", zap.String("lesson_id", id), zap.Error(err))
	}
}
