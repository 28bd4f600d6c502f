package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autoplanning-api/internal/dto"
	"github.com/noah-isme/autoplanning-api/internal/middleware"
	"github.com/noah-isme/autoplanning-api/internal/models"
	"github.com/noah-isme/autoplanning-api/internal/service"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
	"github.com/noah-isme/autoplanning-api/pkg/response"
)

type planningService interface {
	Location() *time.Location
	Lessons(ctx context.Context, start, end time.Time) ([]models.Lesson, error)
	Week(ctx context.Context, date time.Time) dto.PlanningView
	Team(ctx context.Context, date time.Time) dto.PlanningView
	CheckAvailability(ctx context.Context, studentID string, start, end time.Time) (service.AvailabilityResult, error)
}

type planningExporter interface {
	Week(ctx context.Context, date time.Time, format service.ExportFormat) (*service.ExportResult, error)
}

// PlanningHandler serves the planning views, lesson ranges and exports.
type PlanningHandler struct {
	planning planningService
	exporter planningExporter
}

// NewPlanningHandler constructs PlanningHandler.
func NewPlanningHandler(planning planningService, exporter planningExporter) *PlanningHandler {
	return &PlanningHandler{planning: planning, exporter: exporter}
}

// Lessons godoc
// @Summary List lessons in a range
// @Tags Planning
// @Produce json
// @Param start query string true "Range start (RFC 3339)"
// @Param end query string true "Range end (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lessons [get]
func (h *PlanningHandler) Lessons(c *gin.Context) {
	start, end, err := rangeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	lessons, err := h.planning.Lessons(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Week godoc
// @Summary Week planning layout
// @Tags Planning
// @Produce json
// @Param date query string false "Any day of the week (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /planning/week [get]
func (h *PlanningHandler) Week(c *gin.Context) {
	date, err := dateQuery(c, "date", h.planning.Location())
	if err != nil {
		response.Error(c, err)
		return
	}
	view := h.planning.Week(c.Request.Context(), date)
	middleware.SetMeta(c, middleware.MetaTimezone, h.planning.Location().String())
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// Team godoc
// @Summary Team planning layout, one column per instructor
// @Tags Planning
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /planning/team [get]
func (h *PlanningHandler) Team(c *gin.Context) {
	date, err := dateQuery(c, "date", h.planning.Location())
	if err != nil {
		response.Error(c, err)
		return
	}
	view := h.planning.Team(c.Request.Context(), date)
	middleware.SetMeta(c, middleware.MetaTimezone, h.planning.Location().String())
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export the week planning
// @Tags Planning
// @Produce text/csv
// @Produce application/pdf
// @Param date query string false "Any day of the week (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /planning/export [get]
func (h *PlanningHandler) Export(c *gin.Context) {
	date, err := dateQuery(c, "date", h.planning.Location())
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(strings.TrimSpace(c.DefaultQuery("format", string(service.ExportCSV))))
	result, err := h.exporter.Week(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// Availability godoc
// @Summary Check a student's availability for an interval
// @Description The result is advisory and never blocks booking.
// @Tags Planning
// @Produce json
// @Param student_id query string true "Student ID"
// @Param start query string true "Start (RFC 3339)"
// @Param end query string true "End (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /availability/check [get]
func (h *PlanningHandler) Availability(c *gin.Context) {
	studentID := strings.TrimSpace(c.Query("student_id"))
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id is required"))
		return
	}
	start, end, err := rangeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.planning.CheckAvailability(c.Request.Context(), studentID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
