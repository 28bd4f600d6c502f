package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/pkg/export"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

var planningExportHeaders = []string{"Date", "Start", "End", "Student", "Instructor", "Status"}

type renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// ExportResult is a rendered document ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the week planning as CSV or PDF.
type ExportService struct {
	planning  *PlanningService
	renderers map[ExportFormat]renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers use the pkg/export defaults.
func NewExportService(planning *PlanningService, csv, pdf renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		planning:  planning,
		renderers: map[ExportFormat]renderer{ExportCSV: csv, ExportPDF: pdf},
		logger:    logger,
	}
}

// Week renders the lessons of the week containing date.
func (s *ExportService) Week(ctx context.Context, date time.Time, format ExportFormat) (*ExportResult, error) {
	format = ExportFormat(strings.ToLower(string(format)))
	if format == "" {
		format = ExportCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	weekStart, lessons := s.planning.WeekLessons(ctx, date)
	loc := s.planning.Location()
	dataset := export.Dataset{Headers: planningExportHeaders, Rows: make([]map[string]string, 0, len(lessons))}
	for _, lesson := range lessons {
		status := "pending"
		if lesson.Confirmed {
			status = "confirmed"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":       lesson.Start.In(loc).Format("02/01/2006"),
			"Start":      lesson.StartLabel,
			"End":        lesson.End.In(loc).Format("15:04"),
			"Student":    lesson.StudentName,
			"Instructor": lesson.InstructorFirstName,
			"Status":     status,
		})
	}

	title := fmt.Sprintf("Planning week of %s", weekStart.Format("02/01/2006"))
	body, err := r.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render planning export")
	}
	s.logger.Debug("planning exported", zap.String("format", string(format)), zap.Int("lessons", len(lessons)))
	return &ExportResult{
		Filename:    fmt.Sprintf("planning_%s.%s", weekStart.Format(dayLayout), format),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}
