package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
)

type settingsStore interface {
	GetSettings(ctx context.Context) models.AppSettings
	SaveSettings(ctx context.Context, settings models.AppSettings) error
}

// SettingsRequest is the payload of PUT /settings. An empty auth token keeps the stored one.
type SettingsRequest struct {
	TwilioAccountSID   string                    `json:"twilio_account_sid"`
	TwilioAuthToken    string                    `json:"twilio_auth_token"`
	TwilioPhoneNumber  string                    `json:"twilio_phone_number"`
	NotificationMethod models.NotificationMethod `json:"notification_method" validate:"required,oneof=SMS WHATSAPP"`
}

// SettingsService reads and writes the settings singleton.
type SettingsService struct {
	store     settingsStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(store settingsStore, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, validator: validate, logger: logger}
}

// Get returns the stored settings with the auth token redacted.
func (s *SettingsService) Get(ctx context.Context) models.AppSettings {
	return s.store.GetSettings(ctx).Redacted()
}

// Update replaces the settings.
func (s *SettingsService) Update(ctx context.Context, req SettingsRequest) (models.AppSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AppSettings{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	current := s.store.GetSettings(ctx)
	next := models.AppSettings{
		TwilioAccountSID:   req.TwilioAccountSID,
		TwilioAuthToken:    req.TwilioAuthToken,
		TwilioPhoneNumber:  req.TwilioPhoneNumber,
		NotificationMethod: req.NotificationMethod,
	}
	if next.TwilioAuthToken == "" {
		next.TwilioAuthToken = current.TwilioAuthToken
	}
	if err := s.store.SaveSettings(ctx, next); err != nil {
		return models.AppSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	s.logger.Info("settings updated", zap.String("method", string(next.NotificationMethod)))
	return next.Redacted(), nil
}
