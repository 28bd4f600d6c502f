package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/dto"
	"github.com/noah-isme/autoplanning-api/internal/models"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

const dayLayout = "2006-01-02"

type planningDirectory interface {
	GetStudents(ctx context.Context) []models.Student
	GetInstructors(ctx context.Context) []models.Instructor
}

// PlanningService builds the week and team views of the planning page.
type PlanningService struct {
	lessons   LessonSource
	directory planningDirectory
	checker   *AvailabilityChecker
	grid      LayoutGrid
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewPlanningService constructs the planning service. The grid location is used for day boundaries.
func NewPlanningService(lessons LessonSource, directory planningDirectory, checker *AvailabilityChecker, grid LayoutGrid, metrics *MetricsService, logger *zap.Logger) *PlanningService {
	grid = normalizeGrid(grid)
	if checker == nil {
		checker = NewAvailabilityChecker(grid.Location)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningService{lessons: lessons, directory: directory, checker: checker, grid: grid, metrics: metrics, logger: logger}
}

// Location returns the planning time zone.
func (s *PlanningService) Location() *time.Location {
	return s.grid.Location
}

// StartOfDay returns midnight of t's day in the planning time zone.
func (s *PlanningService) StartOfDay(t time.Time) time.Time {
	local := t.In(s.grid.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.grid.Location)
}

// WeekStart returns the Monday starting the week that contains t.
func (s *PlanningService) WeekStart(t time.Time) time.Time {
	day := s.StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Lessons lists the lessons overlapping [start, end).
func (s *PlanningService) Lessons(ctx context.Context, start, end time.Time) ([]models.Lesson, error) {
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	return s.listRange(ctx, start, end), nil
}

// Week lays out the seven days of the week containing date.
func (s *PlanningService) Week(ctx context.Context, date time.Time) dto.PlanningView {
	start := s.WeekStart(date)
	end := start.AddDate(0, 0, 7)
	decorated := s.decorate(ctx, s.listRange(ctx, start, end))

	columns := make([]dto.PlanningColumn, 7)
	index := make(map[string]int, 7)
	for i := range columns {
		day := start.AddDate(0, 0, i)
		key := day.Format(dayLayout)
		columns[i] = dto.PlanningColumn{Key: key, Label: day.Format("Mon 2"), Date: key, Lessons: []dto.PlanningLesson{}}
		index[key] = i
	}
	for _, lesson := range decorated {
		if i, ok := index[s.StartOfDay(lesson.Start).Format(dayLayout)]; ok {
			columns[i].Lessons = append(columns[i].Lessons, lesson)
		}
	}

	view := dto.PlanningView{
		Mode:     dto.PlanningWeek,
		Start:    start,
		End:      end,
		Previous: start.AddDate(0, 0, -7).Format(dayLayout),
		Next:     end.Format(dayLayout),
	}
	return s.layout(view, columns)
}

// Team lays out one day with a column per instructor.
func (s *PlanningService) Team(ctx context.Context, date time.Time) dto.PlanningView {
	start := s.StartOfDay(date)
	end := start.AddDate(0, 0, 1)
	decorated := s.decorate(ctx, s.listRange(ctx, start, end))

	instructors := s.directory.GetInstructors(ctx)
	columns := make([]dto.PlanningColumn, len(instructors))
	index := make(map[string]int, len(instructors))
	for i, instructor := range instructors {
		columns[i] = dto.PlanningColumn{
			Key:          instructor.ID,
			Label:        instructor.FullName(),
			Date:         start.Format(dayLayout),
			InstructorID: instructor.ID,
			Color:        instructor.Color,
			Lessons:      []dto.PlanningLesson{},
		}
		index[instructor.ID] = i
	}
	for _, lesson := range decorated {
		if !s.StartOfDay(lesson.Start).Equal(start) {
			continue
		}
		if i, ok := index[lesson.InstructorID]; ok {
			columns[i].Lessons = append(columns[i].Lessons, lesson)
		}
	}

	view := dto.PlanningView{
		Mode:     dto.PlanningTeam,
		Start:    start,
		End:      end,
		Previous: start.AddDate(0, 0, -1).Format(dayLayout),
		Next:     end.Format(dayLayout),
	}
	return s.layout(view, columns)
}

// WeekLessons returns the decorated lessons of the week containing date, ordered by start.
func (s *PlanningService) WeekLessons(ctx context.Context, date time.Time) (time.Time, []dto.PlanningLesson) {
	start := s.WeekStart(date)
	return start, s.decorate(ctx, s.listRange(ctx, start, start.AddDate(0, 0, 7)))
}

// CheckAvailability runs the availability check for a stored student.
func (s *PlanningService) CheckAvailability(ctx context.Context, studentID string, start, end time.Time) (AvailabilityResult, error) {
	if !end.After(start) {
		return AvailabilityResult{}, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	for _, student := range s.directory.GetStudents(ctx) {
		if student.ID == studentID {
			return s.checker.Check(student, start, end), nil
		}
	}
	return AvailabilityResult{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (s *PlanningService) listRange(ctx context.Context, start, end time.Time) []models.Lesson {
	began := time.Now()
	lessons := s.lessons.ListRange(ctx, start, end)
	s.metrics.ObserveLessonList(time.Since(began))
	return lessons
}

func (s *PlanningService) decorate(ctx context.Context, lessons []models.Lesson) []dto.PlanningLesson {
	students := make(map[string]models.Student)
	for _, student := range s.directory.GetStudents(ctx) {
		students[student.ID] = student
	}
	instructors := make(map[string]models.Instructor)
	for _, instructor := range s.directory.GetInstructors(ctx) {
		instructors[instructor.ID] = instructor
	}

	out := make([]dto.PlanningLesson, 0, len(lessons))
	for _, lesson := range lessons {
		item := dto.PlanningLesson{
			Lesson:              lesson,
			StudentName:         models.UnknownLabel,
			InstructorFirstName: models.UnknownLabel,
			Color:               models.UnknownColor,
			StartLabel:          lesson.Start.In(s.grid.Location).Format("15:04"),
		}
		if student, ok := students[lesson.StudentID]; ok {
			item.StudentName = student.FullName()
		}
		if instructor, ok := instructors[lesson.InstructorID]; ok {
			item.InstructorFirstName = instructor.FirstName
			if instructor.Color != "" {
				item.Color = instructor.Color
			}
		}
		out = append(out, item)
	}
	return out
}

func (s *PlanningService) layout(view dto.PlanningView, columns []dto.PlanningColumn) dto.PlanningView {
	input := make([]LayoutColumn, len(columns))
	for i, column := range columns {
		lessons := make([]models.Lesson, len(column.Lessons))
		for j, lesson := range column.Lessons {
			lessons[j] = lesson.Lesson
		}
		input[i] = LayoutColumn{Key: column.Key, Lessons: lessons}
	}
	computed := ComputeLayout(s.grid, input)
	for i := range columns {
		columns[i].Blocks = computed.Columns[i].Blocks
		columns[i].Overflows = computed.Columns[i].Overflows
		columns[i].Hidden = computed.Columns[i].Hidden
	}
	view.StartHour = s.grid.StartHour
	view.EndHour = s.grid.EndHour
	view.Rows = computed.Rows
	view.Columns = columns
	view.TotalHeight = computed.TotalHeight
	return view
}
