package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

type fakeDirectory struct {
	students    []models.Student
	instructors []models.Instructor
	settings    models.AppSettings
}

func (d *fakeDirectory) GetStudents(context.Context) []models.Student       { return d.students }
func (d *fakeDirectory) GetInstructors(context.Context) []models.Instructor { return d.instructors }
func (d *fakeDirectory) GetSettings(context.Context) models.AppSettings     { return d.settings }

// fakeCalendar assigns its own event ids, like the Google calendar does.
type fakeCalendar struct {
	mu      sync.Mutex
	seq     int
	events  []models.Lesson
	created []string
	updates map[string]models.LessonPatch
	deleted []string
	hideAll bool
	// dropUpdates loses patches the way a failed calendar write does.
	dropUpdates bool
}

func (c *fakeCalendar) ListRange(_ context.Context, start, end time.Time) []models.Lesson {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []models.Lesson{}
	if c.hideAll {
		return out
	}
	for _, lesson := range c.events {
		if lesson.Overlaps(start, end) {
			out = append(out, lesson)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (c *fakeCalendar) CreateFromLesson(_ context.Context, lesson models.Lesson, summary, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	lesson.ID = fmt.Sprintf("evt-%d", c.seq)
	c.events = append(c.events, lesson)
	c.created = append(c.created, summary)
}

func (c *fakeCalendar) UpdateEvent(_ context.Context, id string, patch models.LessonPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dropUpdates {
		return
	}
	if c.updates == nil {
		c.updates = make(map[string]models.LessonPatch)
	}
	c.updates[id] = patch
	for i := range c.events {
		if c.events[i].ID == id {
			c.events[i] = patch.Apply(c.events[i])
		}
	}
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, id)
	kept := c.events[:0]
	for _, lesson := range c.events {
		if lesson.ID != id {
			kept = append(kept, lesson)
		}
	}
	c.events = kept
}

type fakeNotifier struct {
	result  bool
	calls   int
	lessons []models.Lesson
	hook    func()
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, lesson models.Lesson, _ models.Student, _ models.Instructor, _ models.AppSettings) bool {
	n.calls++
	n.lessons = append(n.lessons, lesson)
	if n.hook != nil {
		n.hook()
	}
	return n.result
}

func (n *fakeNotifier) SendReminder(ctx context.Context, lesson models.Lesson, student models.Student, instructor models.Instructor, settings models.AppSettings) bool {
	return n.SendConfirmation(ctx, lesson, student, instructor, settings)
}

type sentMessage struct {
	creds TwilioCredentials
	msg   OutboundMessage
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (s *fakeSender) Send(_ context.Context, creds TwilioCredentials, msg OutboundMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{creds: creds, msg: msg})
	return nil
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		students: []models.Student{{
			ID: "alice", FirstName: "Alice", LastName: "Martin", Phone: "0611111111",
			Availability: []models.Availability{{Day: 1, StartHour: 9, EndHour: 12}},
		}},
		instructors: []models.Instructor{{ID: "bob", FirstName: "Bob", LastName: "Leroy", Color: models.InstructorPalette[1]}},
		settings:    models.DefaultSettings(),
	}
}
