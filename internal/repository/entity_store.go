package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// Collection keys, shared with the browser storage of the first release.
const (
	KeyStudents    = "autoplanning_students"
	KeyInstructors = "autoplanning_instructors"
	KeyLessons     = "autoplanning_lessons"
	KeySettings    = "autoplanning_settings"
)

// EntityStore reads and writes whole collections. Writes are last-write-wins.
// Reads never fail: missing or malformed data yields an empty collection.
type EntityStore struct {
	kv     Persistence
	logger *zap.Logger
	now    func() time.Time
}

// NewEntityStore constructs an entity store over the given persistence.
func NewEntityStore(kv Persistence, logger *zap.Logger) *EntityStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityStore{kv: kv, logger: logger, now: time.Now}
}

// GetStudents returns all students.
func (s *EntityStore) GetStudents(ctx context.Context) []models.Student {
	var students []models.Student
	if !s.load(ctx, KeyStudents, &students) || students == nil {
		return []models.Student{}
	}
	return students
}

// SaveStudents replaces the student collection.
func (s *EntityStore) SaveStudents(ctx context.Context, students []models.Student) error {
	return s.store(ctx, KeyStudents, students)
}

// GetInstructors returns all instructors.
func (s *EntityStore) GetInstructors(ctx context.Context) []models.Instructor {
	var instructors []models.Instructor
	if !s.load(ctx, KeyInstructors, &instructors) || instructors == nil {
		return []models.Instructor{}
	}
	return instructors
}

// SaveInstructors replaces the instructor collection.
func (s *EntityStore) SaveInstructors(ctx context.Context, instructors []models.Instructor) error {
	return s.store(ctx, KeyInstructors, instructors)
}

// GetLessons returns the locally stored lessons.
func (s *EntityStore) GetLessons(ctx context.Context) []models.Lesson {
	var lessons []models.Lesson
	if !s.load(ctx, KeyLessons, &lessons) || lessons == nil {
		return []models.Lesson{}
	}
	return lessons
}

// SaveLessons replaces the local lesson collection.
func (s *EntityStore) SaveLessons(ctx context.Context, lessons []models.Lesson) error {
	return s.store(ctx, KeyLessons, lessons)
}

// GetSettings returns the settings singleton, or defaults when none are stored.
func (s *EntityStore) GetSettings(ctx context.Context) models.AppSettings {
	settings := models.DefaultSettings()
	if !s.load(ctx, KeySettings, &settings) {
		return models.DefaultSettings()
	}
	if settings.NotificationMethod == "" {
		settings.NotificationMethod = models.NotificationSMS
	}
	return settings
}

// SaveSettings replaces the settings singleton.
func (s *EntityStore) SaveSettings(ctx context.Context, settings models.AppSettings) error {
	return s.store(ctx, KeySettings, settings)
}

// Seed writes the starter instructors and default settings when they were never stored.
func (s *EntityStore) Seed(ctx context.Context) error {
	if _, err := s.kv.Read(ctx, KeyInstructors); errors.Is(err, ErrKeyNotFound) {
		now := s.now().UTC()
		seed := []models.Instructor{
			{ID: uuid.NewString(), FirstName: "Jean", LastName: "Dupont", Email: "jean@ecole.fr", Phone: "0600000001", Color: models.InstructorPalette[0], CreatedAt: now, UpdatedAt: now},
			{ID: uuid.NewString(), FirstName: "Marie", LastName: "Curie", Email: "marie@ecole.fr", Phone: "0600000002", Color: models.InstructorPalette[5], CreatedAt: now, UpdatedAt: now},
		}
		if err := s.SaveInstructors(ctx, seed); err != nil {
			return err
		}
		s.logger.Info("seeded default instructors", zap.Int("count", len(seed)))
	}
	if _, err := s.kv.Read(ctx, KeySettings); errors.Is(err, ErrKeyNotFound) {
		if err := s.SaveSettings(ctx, models.DefaultSettings()); err != nil {
			return err
		}
	}
	return nil
}

// load decodes the value under key into dest and reports whether it succeeded.
func (s *EntityStore) load(ctx context.Context, key string, dest interface{}) bool {
	raw, err := s.kv.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("collection read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("malformed collection ignored", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *EntityStore) store(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal collection %s: %w", key, err)
	}
	return s.kv.Write(ctx, key, payload)
}
