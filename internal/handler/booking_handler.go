package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autoplanning-api/internal/service"
	"github.com/noah-isme/autoplanning-api/pkg/response"
)

type bookingSessions interface {
	Open() service.BookingView
	Get(id string) (service.BookingView, error)
	Apply(ctx context.Context, id string, event service.BookingEvent) (service.BookingView, error)
	Close(id string) error
}

// BookingHandler drives booking sessions over HTTP.
type BookingHandler struct {
	sessions bookingSessions
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(sessions bookingSessions) *BookingHandler {
	return &BookingHandler{sessions: sessions}
}

// Open godoc
// @Summary Open a booking session
// @Tags Bookings
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Open(c *gin.Context) {
	response.Created(c, h.sessions.Open())
}

// Get godoc
// @Summary Current state of a booking session
// @Tags Bookings
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	view, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Apply godoc
// @Summary Apply an event to a booking session
// @Description A confirm event sends the confirmation message before answering.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.BookingEvent true "Workflow event"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/events [post]
func (h *BookingHandler) Apply(c *gin.Context) {
	var event service.BookingEvent
	if !bindJSON(c, &event) {
		return
	}
	view, err := h.sessions.Apply(c.Request.Context(), c.Param("id"), event)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Close godoc
// @Summary Drop a booking session
// @Tags Bookings
// @Param id path string true "Session ID"
// @Success 204
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Close(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
