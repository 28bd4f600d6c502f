package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autoplanning-api/internal/service"
	"github.com/noah-isme/autoplanning-api/pkg/response"
)

// SettingsHandler exposes the notification settings singleton.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary Get notification settings
// @Description The Twilio auth token is redacted.
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.settings.Get(c.Request.Context()), nil)
}

// Update godoc
// @Summary Replace notification settings
// @Description An empty twilio_auth_token keeps the stored token.
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.SettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.SettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
