package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
	"github.com/noah-isme/autoplanning-api/pkg/export"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

type failingRenderer struct{}

func (failingRenderer) Render(export.Dataset, string) ([]byte, error) { return nil, errors.New("boom") }
func (failingRenderer) ContentType() string                          { return "application/pdf" }

func newExportFixture() *PlanningService {
	ctx := context.Background()
	cal := &fakeCalendar{}
	cal.CreateFromLesson(ctx, models.Lesson{StudentID: "alice", InstructorID: "bob", Start: at(5, 9, 0), End: at(5, 10, 0)}, "", "")
	cal.CreateFromLesson(ctx, models.Lesson{StudentID: "alice", InstructorID: "bob", Start: at(4, 14, 30), End: at(4, 15, 30), Confirmed: true}, "", "")
	return NewPlanningService(cal, testDirectory(), nil, DefaultLayoutGrid(), nil, zap.NewNop())
}

func TestExportServiceWeekCSV(t *testing.T) {
	svc := NewExportService(newExportFixture(), nil, nil, zap.NewNop())

	result, err := svc.Week(context.Background(), at(6, 0, 0), ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "planning_2024-03-04.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Start,End,Student,Instructor,Status", lines[0])
	assert.Equal(t, "04/03/2024,14:30,15:30,Alice Martin,Bob,confirmed", lines[1])
	assert.Equal(t, "05/03/2024,09:00,10:00,Alice Martin,Bob,pending", lines[2])
}

func TestExportServiceWeekPDF(t *testing.T) {
	svc := NewExportService(newExportFixture(), nil, nil, zap.NewNop())

	result, err := svc.Week(context.Background(), at(6, 0, 0), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "planning_2024-03-04.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Body), "%PDF"))
}

func TestExportServiceErrors(t *testing.T) {
	svc := NewExportService(newExportFixture(), nil, failingRenderer{}, zap.NewNop())

	_, err := svc.Week(context.Background(), at(6, 0, 0), "xlsx")
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Week(context.Background(), at(6, 0, 0), ExportPDF)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}
