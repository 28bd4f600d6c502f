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

type instructorStore interface {
	GetInstructors(ctx context.Context) []models.Instructor
	SaveInstructors(ctx context.Context, instructors []models.Instructor) error
}

// InstructorRequest holds the payload for creating or updating instructors.
type InstructorRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
}

// InstructorService handles instructor use-cases.
type InstructorService struct {
	store     instructorStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	mu        sync.Mutex
	now       func() time.Time
}

// NewInstructorService constructs the instructor service.
func NewInstructorService(store instructorStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{store: store, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns instructors matching the filter.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	all := s.store.GetInstructors(ctx)
	matched := make([]models.Instructor, 0, len(all))
	for _, instructor := range all {
		if matchesSearch(filter.Search, instructor.FirstName, instructor.LastName, instructor.Email) {
			matched = append(matched, instructor)
		}
	}
	page, pagination := paginate(matched, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// Get returns one instructor.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	for _, instructor := range s.store.GetInstructors(ctx) {
		if instructor.ID == id {
			found := instructor
			return &found, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
}

// Create registers a new instructor. An empty colour takes the first palette entry.
func (s *InstructorService) Create(ctx context.Context, req InstructorRequest) (*models.Instructor, error) {
	color, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	instructor := models.Instructor{
		ID:        uuid.NewString(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	instructors := append(s.store.GetInstructors(ctx), instructor)
	if err := s.store.SaveInstructors(ctx, instructors); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("instructor created", zap.String("instructor_id", instructor.ID))
	return &instructor, nil
}

// Update replaces the editable fields of an instructor.
func (s *InstructorService) Update(ctx context.Context, id string, req InstructorRequest) (*models.Instructor, error) {
	color, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	instructors := s.store.GetInstructors(ctx)
	for i := range instructors {
		if instructors[i].ID != id {
			continue
		}
		instructors[i].FirstName = req.FirstName
		instructors[i].LastName = req.LastName
		instructors[i].Email = req.Email
		instructors[i].Phone = req.Phone
		instructors[i].Color = color
		instructors[i].UpdatedAt = s.now().UTC()
		if err := s.store.SaveInstructors(ctx, instructors); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
		}
		s.cache.Invalidate(ctx, dashboardCachePattern)
		updated := instructors[i]
		return &updated, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
}

// Delete removes an instructor. Lessons referencing it are left in place.
func (s *InstructorService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instructors := s.store.GetInstructors(ctx)
	kept := make([]models.Instructor, 0, len(instructors))
	for _, instructor := range instructors {
		if instructor.ID != id {
			kept = append(kept, instructor)
		}
	}
	if len(kept) == len(instructors) {
		return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	if err := s.store.SaveInstructors(ctx, kept); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instructor")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("instructor deleted", zap.String("instructor_id", id))
	return nil
}

func (s *InstructorService) validate(req InstructorRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	if req.Color == "" {
		return models.InstructorPalette[0], nil
	}
	if !models.IsPaletteColor(req.Color) {
		return "", appErrors.Clone(appErrors.ErrValidation, "color must be one of the instructor palette")
	}
	return req.Color, nil
}
