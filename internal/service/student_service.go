package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

type studentStore interface {
	GetStudents(ctx context.Context) []models.Student
	SaveStudents(ctx context.Context, students []models.Student) error
}

// StudentRequest holds the payload for creating or updating students.
type StudentRequest struct {
	FirstName    string                `json:"first_name" validate:"required"`
	LastName     string                `json:"last_name" validate:"required"`
	Email        string                `json:"email" validate:"omitempty,email"`
	Phone        string                `json:"phone"`
	Notes        string                `json:"notes"`
	Availability []models.Availability `json:"availability" validate:"dive"`
}

// StudentService handles student use-cases.
type StudentService struct {
	store     studentStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	mu        sync.Mutex
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(store studentStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{store: store, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns students matching the filter, with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	all := s.store.GetStudents(ctx)
	matched := make([]models.Student, 0, len(all))
	for _, student := range all {
		if matchesSearch(filter.Search, student.FirstName, student.LastName, student.Email, student.Phone) {
			matched = append(matched, student)
		}
	}
	page, pagination := paginate(matched, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	for _, student := range s.store.GetStudents(ctx) {
		if student.ID == id {
			found := student
			return &found, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	now := s.now().UTC()
	student := models.Student{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Notes:        req.Notes,
		Availability: req.Availability,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	students := append(s.store.GetStudents(ctx), student)
	if err := s.store.SaveStudents(ctx, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return &student, nil
}

// Update replaces the editable fields of a student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	students := s.store.GetStudents(ctx)
	for i := range students {
		if students[i].ID != id {
			continue
		}
		students[i].FirstName = req.FirstName
		students[i].LastName = req.LastName
		students[i].Email = req.Email
		students[i].Phone = req.Phone
		students[i].Notes = req.Notes
		students[i].Availability = req.Availability
		students[i].UpdatedAt = s.now().UTC()
		if err := s.store.SaveStudents(ctx, students); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
		}
		s.cache.Invalidate(ctx, dashboardCachePattern)
		updated := students[i]
		return &updated, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Delete removes a student. Lessons referencing it are left in place.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	students := s.store.GetStudents(ctx)
	kept := make([]models.Student, 0, len(students))
	for _, student := range students {
		if student.ID != id {
			kept = append(kept, student)
		}
	}
	if len(kept) == len(students) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := s.store.SaveStudents(ctx, kept); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}
