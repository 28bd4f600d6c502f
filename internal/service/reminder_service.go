package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
	"github.com/noah-isme/autoplanning-api/pkg/jobs"
)

const reminderJobType = "lesson_reminder"

type reminderNotifier interface {
	SendReminder(ctx context.Context, lesson models.Lesson, student models.Student, instructor models.Instructor, settings models.AppSettings) bool
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// ReminderService sends a reminder the day before each confirmed lesson.
type ReminderService struct {
	planning  *PlanningService
	directory bookingDirectory
	notifier  reminderNotifier
	queue     jobQueue
	logger    *zap.Logger
	now       func() time.Time
}

// NewReminderService constructs the reminder service. Call SetQueue before EnqueueTomorrow.
func NewReminderService(planning *PlanningService, directory bookingDirectory, notifier reminderNotifier, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{planning: planning, directory: directory, notifier: notifier, logger: logger, now: time.Now}
}

// SetQueue attaches the queue reminder jobs are pushed to.
func (s *ReminderService) SetQueue(queue jobQueue) {
	s.queue = queue
}

// EnqueueTomorrow queues one reminder per confirmed lesson starting tomorrow.
func (s *ReminderService) EnqueueTomorrow(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, fmt.Errorf("reminder queue not configured")
	}
	tomorrow := s.planning.StartOfDay(s.now()).AddDate(0, 0, 1)
	lessons := s.planning.listRange(ctx, tomorrow, tomorrow.AddDate(0, 0, 1))

	queued := 0
	for _, lesson := range lessons {
		if !lesson.Confirmed || lesson.Start.Before(tomorrow) {
			continue
		}
		job := jobs.Job{
			ID:      fmt.Sprintf("reminder:%s:%s", lesson.ID, tomorrow.Format(dayLayout)),
			Type:    reminderJobType,
			Payload: lesson,
		}
		if err := s.queue.Enqueue(job); err != nil {
			return queued, fmt.Errorf("enqueue reminder for %s: %w", lesson.ID, err)
		}
		queued++
	}
	s.logger.Info("lesson reminders queued", zap.Int("count", queued), zap.String("day", tomorrow.Format(dayLayout)))
	return queued, nil
}

// Handle is the queue handler for reminder jobs. An error asks the queue to retry.
func (s *ReminderService) Handle(ctx context.Context, job jobs.Job) error {
	lesson, ok := job.Payload.(models.Lesson)
	if !ok {
		s.logger.Error("unexpected reminder payload", zap.String("job_id", job.ID))
		return nil
	}

	var student *models.Student
	for _, candidate := range s.directory.GetStudents(ctx) {
		if candidate.ID == lesson.StudentID {
			found := candidate
			student = &found
			break
		}
	}
	var instructor *models.Instructor
	for _, candidate := range s.directory.GetInstructors(ctx) {
		if candidate.ID == lesson.InstructorID {
			found := candidate
			instructor = &found
			break
		}
	}
	if student == nil || instructor == nil {
		s.logger.Warn("reminder skipped, lesson references a missing student or instructor", zap.String("lesson_id", lesson.ID))
		return nil
	}

	if !s.notifier.SendReminder(ctx, lesson, *student, *instructor, s.directory.GetSettings(ctx)) {
		return fmt.Errorf("reminder for lesson %s not sent", lesson.ID)
	}
	return nil
}
