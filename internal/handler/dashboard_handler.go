package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autoplanning-api/internal/dto"
	"github.com/noah-isme/autoplanning-api/internal/middleware"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
	"github.com/noah-isme/autoplanning-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (dto.DashboardSummary, bool)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler. A nil service disables the endpoint.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "dashboard is disabled"))
		return
	}
	start := time.Now()
	summary, cacheHit := h.service.Summary(c.Request.Context())
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, middleware.MetaProcessingTime, time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
