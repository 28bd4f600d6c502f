package calendar

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// Adapter exposes a Google calendar as a lesson source. Provider failures
// are logged and degrade to empty results or skipped writes.
type Adapter struct {
	api        EventsAPI
	calendarID string
	loc        *time.Location
	logger     *zap.Logger
}

// NewAdapter constructs the calendar lesson source.
func NewAdapter(api EventsAPI, calendarID string, loc *time.Location, logger *zap.Logger) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{api: api, calendarID: calendarID, loc: loc, logger: logger.With(zap.String("calendar_id", calendarID))}
}

// ListRange returns lessons for events overlapping [start, end), ordered by start time.
func (a *Adapter) ListRange(ctx context.Context, start, end time.Time) []models.Lesson {
	events, err := a.api.List(ctx, a.calendarID, start, end)
	if err != nil {
		a.logger.Warn("calendar list failed", zap.Time("start", start), zap.Time("end", end), zap.Error(err))
		return []models.Lesson{}
	}
	lessons := make([]models.Lesson, 0, len(events))
	for _, ev := range events {
		lesson, err := Normalize(FromGoogle(ev), a.loc)
		if err != nil {
			a.logger.Warn("skipping calendar event", zap.Error(err))
			continue
		}
		if !lesson.Overlaps(start, end) {
			continue
		}
		lessons = append(lessons, lesson)
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Start.Before(lessons[j].Start)
	})
	return lessons
}

// CreateFromLesson inserts an event carrying the lesson metadata. The
// provider assigns the id; callers re-list to discover it.
func (a *Adapter) CreateFromLesson(ctx context.Context, lesson models.Lesson, summary, description string) {
	event := &gcal.Event{
		Summary:            summary,
		Description:        description,
		Start:              eventDateTime(lesson.Start, a.loc),
		End:                eventDateTime(lesson.End, a.loc),
		ExtendedProperties: &gcal.EventExtendedProperties{Private: lessonMetadata(lesson)},
	}
	if _, err := a.api.Insert(ctx, a.calendarID, event); err != nil {
		a.logger.Error("calendar insert failed", zap.String("student_id", lesson.StudentID), zap.String("instructor_id", lesson.InstructorID), zap.Error(err))
	}
}

// UpdateEvent patches the event. A confirmed change is merged into the
// existing private properties so unrelated keys survive.
func (a *Adapter) UpdateEvent(ctx context.Context, id string, patch models.LessonPatch) {
	event := &gcal.Event{}
	if patch.Summary != nil {
		event.Summary = *patch.Summary
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Start != nil {
		event.Start = eventDateTime(*patch.Start, a.loc)
	}
	if patch.End != nil {
		event.End = eventDateTime(*patch.End, a.loc)
	}
	if patch.Confirmed != nil {
		current, err := a.api.Get(ctx, a.calendarID, id)
		if err != nil {
			a.logger.Error("calendar read before update failed", zap.String("event_id", id), zap.Error(err))
			return
		}
		event.ExtendedProperties = mergeProperties(current.ExtendedProperties, *patch.Confirmed)
	}
	if _, err := a.api.Patch(ctx, a.calendarID, id, event); err != nil {
		a.logger.Error("calendar patch failed", zap.String("event_id", id), zap.Error(err))
	}
}

// DeleteEvent removes the event.
func (a *Adapter) DeleteEvent(ctx context.Context, id string) {
	if err := a.api.Delete(ctx, a.calendarID, id); err != nil {
		a.logger.Error("calendar delete failed", zap.String("event_id", id), zap.Error(err))
	}
}

func mergeProperties(current *gcal.EventExtendedProperties, confirmed bool) *gcal.EventExtendedProperties {
	merged := &gcal.EventExtendedProperties{Private: map[string]string{}}
	if current != nil {
		for k, v := range current.Private {
			merged.Private[k] = v
		}
		if len(current.Shared) > 0 {
			merged.Shared = make(map[string]string, len(current.Shared))
			for k, v := range current.Shared {
				merged.Shared[k] = v
			}
		}
	}
	merged.Private[PropConfirmed] = formatBool(confirmed)
	return merged
}
