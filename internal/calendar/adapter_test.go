package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

type fakeEvents struct {
	items     []*gcal.Event
	listErr   error
	getErr    error
	inserted  []*gcal.Event
	patched   map[string]*gcal.Event
	deleted   []string
	listCalls int
}

func (f *fakeEvents) List(_ context.Context, _ string, _, _ time.Time) ([]*gcal.Event, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeEvents) Get(_ context.Context, _ string, id string) (*gcal.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, ev := range f.items {
		if ev.Id == id {
			return ev, nil
		}
	}
	return nil, errors.New("404")
}

func (f *fakeEvents) Insert(_ context.Context, _ string, ev *gcal.Event) (*gcal.Event, error) {
	f.inserted = append(f.inserted, ev)
	return ev, nil
}

func (f *fakeEvents) Patch(_ context.Context, _ string, id string, ev *gcal.Event) (*gcal.Event, error) {
	if f.patched == nil {
		f.patched = map[string]*gcal.Event{}
	}
	f.patched[id] = ev
	return ev, nil
}

func (f *fakeEvents) Delete(_ context.Context, _ string, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func timedEvent(id, start, end string, props map[string]string) *gcal.Event {
	ev := &gcal.Event{
		Id:    id,
		Start: &gcal.EventDateTime{DateTime: start},
		End:   &gcal.EventDateTime{DateTime: end},
	}
	if props != nil {
		ev.ExtendedProperties = &gcal.EventExtendedProperties{Private: props}
	}
	return ev
}

func TestNormalize(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		name      string
		raw       RawEvent
		wantErr   bool
		confirmed bool
		student   string
	}{
		{
			name:      "full metadata",
			raw:       RawEvent{ID: "e1", Start: EventTime{DateTime: "2024-03-04T10:00:00+01:00"}, End: EventTime{DateTime: "2024-03-04T11:00:00+01:00"}, Metadata: map[string]string{PropStudentID: "s1", PropInstructorID: "i1", PropConfirmed: "true"}},
			confirmed: true,
			student:   "s1",
		},
		{
			name: "missing metadata defaults",
			raw:  RawEvent{ID: "e2", Start: EventTime{DateTime: "2024-03-04T10:00:00Z"}, End: EventTime{DateTime: "2024-03-04T11:00:00Z"}},
		},
		{
			name: "confirmed only for exact true",
			raw:  RawEvent{ID: "e3", Start: EventTime{DateTime: "2024-03-04T10:00:00Z"}, End: EventTime{DateTime: "2024-03-04T11:00:00Z"}, Metadata: map[string]string{PropConfirmed: "TRUE"}},
		},
		{
			name: "all day event",
			raw:  RawEvent{ID: "e4", Start: EventTime{Date: "2024-03-04"}, End: EventTime{Date: "2024-03-05"}},
		},
		{name: "missing id", raw: RawEvent{Start: EventTime{DateTime: "2024-03-04T10:00:00Z"}, End: EventTime{DateTime: "2024-03-04T11:00:00Z"}}, wantErr: true},
		{name: "missing start", raw: RawEvent{ID: "e5", End: EventTime{DateTime: "2024-03-04T11:00:00Z"}}, wantErr: true},
		{name: "bad end", raw: RawEvent{ID: "e6", Start: EventTime{DateTime: "2024-03-04T10:00:00Z"}, End: EventTime{DateTime: "tomorrow"}}, wantErr: true},
		{name: "inverted interval", raw: RawEvent{ID: "e7", Start: EventTime{DateTime: "2024-03-04T11:00:00Z"}, End: EventTime{DateTime: "2024-03-04T10:00:00Z"}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lesson, err := Normalize(tc.raw, paris)
			if tc.wantErr {
				var normErr *NormalizationError
				require.ErrorAs(t, err, &normErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.raw.ID, lesson.ID)
			assert.Equal(t, tc.confirmed, lesson.Confirmed)
			assert.Equal(t, tc.student, lesson.StudentID)
			assert.True(t, lesson.End.After(lesson.Start))
		})
	}
}

func TestNormalizeAllDayUsesLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	lesson, err := Normalize(RawEvent{ID: "e", Start: EventTime{Date: "2024-03-04"}, End: EventTime{Date: "2024-03-05"}}, paris)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, paris).Unix(), lesson.Start.Unix())
}

func TestAdapterListRangeSkipsInvalidEvents(t *testing.T) {
	api := &fakeEvents{items: []*gcal.Event{
		timedEvent("b", "2024-03-04T14:00:00Z", "2024-03-04T15:00:00Z", map[string]string{PropStudentID: "s2"}),
		timedEvent("", "2024-03-04T09:00:00Z", "2024-03-04T10:00:00Z", nil),
		timedEvent("a", "2024-03-04T10:00:00Z", "2024-03-04T11:00:00Z", map[string]string{PropStudentID: "s1", PropInstructorID: "i1", PropConfirmed: "false"}),
		{Id: "c"},
	}}
	adapter := NewAdapter(api, "cal", time.UTC, nil)
	start := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	lessons := adapter.ListRange(context.Background(), start, start.AddDate(0, 0, 7))
	require.Len(t, lessons, 2)
	assert.Equal(t, "a", lessons[0].ID)
	assert.Equal(t, "i1", lessons[0].InstructorID)
	assert.Equal(t, "b", lessons[1].ID)
	assert.Equal(t, "", lessons[1].InstructorID)

	again := adapter.ListRange(context.Background(), start, start.AddDate(0, 0, 7))
	assert.ElementsMatch(t, lessons, again)
}

func TestAdapterListRangeTransportFailure(t *testing.T) {
	adapter := NewAdapter(&fakeEvents{listErr: errors.New("timeout")}, "cal", time.UTC, nil)
	lessons := adapter.ListRange(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.NotNil(t, lessons)
	assert.Empty(t, lessons)
}

func TestAdapterCreateFromLesson(t *testing.T) {
	api := &fakeEvents{}
	adapter := NewAdapter(api, "cal", time.UTC, nil)
	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

	adapter.CreateFromLesson(context.Background(), models.Lesson{StudentID: "s1", InstructorID: "i1", Start: start, End: start.Add(time.Hour)}, "Driving lesson", "Alice with Bob")

	require.Len(t, api.inserted, 1)
	ev := api.inserted[0]
	assert.Equal(t, "Driving lesson", ev.Summary)
	assert.Equal(t, "2024-03-04T10:00:00Z", ev.Start.DateTime)
	assert.Equal(t, map[string]string{PropStudentID: "s1", PropInstructorID: "i1", PropConfirmed: "false"}, ev.ExtendedProperties.Private)
}

func TestAdapterUpdateMergesMetadata(t *testing.T) {
	api := &fakeEvents{items: []*gcal.Event{
		timedEvent("e1", "2024-03-04T10:00:00Z", "2024-03-04T11:00:00Z", map[string]string{PropStudentID: "s1", PropInstructorID: "i1", PropConfirmed: "false", "room": "A"}),
	}}
	adapter := NewAdapter(api, "cal", time.UTC, nil)
	confirmed := true

	adapter.UpdateEvent(context.Background(), "e1", models.LessonPatch{Confirmed: &confirmed})

	patched := api.patched["e1"]
	require.NotNil(t, patched)
	assert.Equal(t, map[string]string{PropStudentID: "s1", PropInstructorID: "i1", PropConfirmed: "true", "room": "A"}, patched.ExtendedProperties.Private)
	assert.Equal(t, "false", api.items[0].ExtendedProperties.Private[PropConfirmed])
}

func TestAdapterUpdateWithoutConfirmedSkipsRead(t *testing.T) {
	api := &fakeEvents{getErr: errors.New("should not be called")}
	adapter := NewAdapter(api, "cal", time.UTC, nil)
	summary := "Moved"

	adapter.UpdateEvent(context.Background(), "e1", models.LessonPatch{Summary: &summary})

	require.Contains(t, api.patched, "e1")
	assert.Equal(t, "Moved", api.patched["e1"].Summary)
	assert.Nil(t, api.patched["e1"].ExtendedProperties)
}

func TestAdapterUpdateReadFailureSkipsPatch(t *testing.T) {
	api := &fakeEvents{getErr: errors.New("boom")}
	adapter := NewAdapter(api, "cal", time.UTC, nil)
	confirmed := true

	adapter.UpdateEvent(context.Background(), "e1", models.LessonPatch{Confirmed: &confirmed})
	assert.Empty(t, api.patched)
}

func TestAdapterDelete(t *testing.T) {
	api := &fakeEvents{}
	NewAdapter(api, "cal", time.UTC, nil).DeleteEvent(context.Background(), "e1")
	assert.Equal(t, []string{"e1"}, api.deleted)
}
