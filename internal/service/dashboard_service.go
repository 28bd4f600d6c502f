package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/dto"
	"github.com/noah-isme/autoplanning-api/internal/models"
)

const dashboardNextLessons = 5

// DashboardService composes the dashboard summary, caching it per week.
type DashboardService struct {
	planning  *PlanningService
	directory planningDirectory
	cache     *CacheService
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(planning *PlanningService, directory planningDirectory, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{planning: planning, directory: directory, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// Summary counts students and instructors, and lists the lessons left this week.
// The second result reports a cache hit.
func (s *DashboardService) Summary(ctx context.Context) (dto.DashboardSummary, bool) {
	now := s.now()
	weekStart := s.planning.WeekStart(now)
	key := "dash:summary:" + weekStart.Format(dayLayout)

	var cached dto.DashboardSummary
	if s.cache.Get(ctx, key, &cached) {
		return cached, true
	}

	weekEnd := weekStart.AddDate(0, 0, 7)
	lessons := s.planning.listRange(ctx, weekStart, weekEnd)
	upcoming := make([]models.Lesson, 0, len(lessons))
	for _, lesson := range lessons {
		if !lesson.Start.Before(now) && !lesson.Start.After(weekEnd) {
			upcoming = append(upcoming, lesson)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})

	students := s.directory.GetStudents(ctx)
	instructors := s.directory.GetInstructors(ctx)
	summary := dto.DashboardSummary{
		Students:        len(students),
		Instructors:     len(instructors),
		LessonsThisWeek: len(upcoming),
		NextLessons:     s.describe(upcoming, students, instructors),
		GeneratedAt:     now.UTC(),
	}

	s.cache.Set(ctx, key, summary, s.ttl)
	return summary, false
}

func (s *DashboardService) describe(lessons []models.Lesson, students []models.Student, instructors []models.Instructor) []dto.DashboardLesson {
	if len(lessons) > dashboardNextLessons {
		lessons = lessons[:dashboardNextLessons]
	}
	studentNames := make(map[string]string, len(students))
	for _, student := range students {
		studentNames[student.ID] = student.FullName()
	}
	byID := make(map[string]models.Instructor, len(instructors))
	for _, instructor := range instructors {
		byID[instructor.ID] = instructor
	}

	out := make([]dto.DashboardLesson, 0, len(lessons))
	for _, lesson := range lessons {
		item := dto.DashboardLesson{
			ID:             lesson.ID,
			Start:          lesson.Start,
			End:            lesson.End,
			StudentName:    models.UnknownLabel,
			InstructorName: models.UnknownLabel,
			Color:          models.UnknownColor,
			Confirmed:      lesson.Confirmed,
		}
		if name, ok := studentNames[lesson.StudentID]; ok {
			item.StudentName = name
		}
		if instructor, ok := byID[lesson.InstructorID]; ok {
			item.InstructorName = instructor.FullName()
			item.Color = instructor.Color
		}
		out = append(out, item)
	}
	return out
}
