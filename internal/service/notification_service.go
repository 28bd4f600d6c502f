package service

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/noah-isme/autoplanning-api/internal/models"
	"github.com/noah-isme/autoplanning-api/pkg/config"
)

const whatsappPrefix = "whatsapp:"

// TwilioCredentials identify the account a message is sent from.
type TwilioCredentials struct {
	AccountSID string
	AuthToken  string
}

// OutboundMessage is a single SMS or WhatsApp message.
type OutboundMessage struct {
	To   string
	From string
	Body string
}

// MessageSender delivers one message.
type MessageSender interface {
	Send(ctx context.Context, creds TwilioCredentials, msg OutboundMessage) error
}

// TwilioSender sends messages through the Twilio Messages API.
type TwilioSender struct{}

// Send creates a message resource with the given credentials.
func (TwilioSender) Send(_ context.Context, creds TwilioCredentials, msg OutboundMessage) error {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: creds.AccountSID,
		Password: creds.AuthToken,
	})
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(msg.From)
	params.SetBody(msg.Body)
	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	return nil
}

// NotificationService formats and dispatches lesson messages. It never
// returns errors: failures are logged and reported as false.
type NotificationService struct {
	sender   MessageSender
	fallback config.TwilioConfig
	loc      *time.Location
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewNotificationService constructs the notifier. fallback supplies
// credentials missing from the stored settings.
func NewNotificationService(sender MessageSender, fallback config.TwilioConfig, loc *time.Location, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if sender == nil {
		sender = TwilioSender{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{sender: sender, fallback: fallback, loc: loc, logger: logger, metrics: metrics}
}

// ConfirmationMessage renders the confirmation text for a lesson.
func (s *NotificationService) ConfirmationMessage(lesson models.Lesson, student models.Student, instructor models.Instructor) string {
	start := lesson.Start.In(s.loc)
	return fmt.Sprintf("Hello %s, your next lesson is on %s at %s with %s %s.",
		student.FirstName, start.Format("02/01/2006"), start.Format("15:04"), instructor.FirstName, instructor.LastName)
}

// ReminderMessage renders the day-before reminder text.
func (s *NotificationService) ReminderMessage(lesson models.Lesson, student models.Student, instructor models.Instructor) string {
	return fmt.Sprintf("Reminder: %s, your lesson is tomorrow at %s with %s.",
		student.FirstName, lesson.Start.In(s.loc).Format("15:04"), instructor.FirstName)
}

// SendConfirmation sends the confirmation message and reports success.
func (s *NotificationService) SendConfirmation(ctx context.Context, lesson models.Lesson, student models.Student, instructor models.Instructor, settings models.AppSettings) bool {
	return s.dispatch(ctx, "confirmation", lesson, student, settings, s.ConfirmationMessage(lesson, student, instructor))
}

// SendReminder sends the reminder message and reports success.
func (s *NotificationService) SendReminder(ctx context.Context, lesson models.Lesson, student models.Student, instructor models.Instructor, settings models.AppSettings) bool {
	return s.dispatch(ctx, "reminder", lesson, student, settings, s.ReminderMessage(lesson, student, instructor))
}

func (s *NotificationService) dispatch(ctx context.Context, kind string, lesson models.Lesson, student models.Student, settings models.AppSettings, body string) bool {
	logger := s.logger.With(zap.String("kind", kind), zap.String("lesson_id", lesson.ID))

	creds, from := s.resolveCredentials(settings)
	if creds.AccountSID == "" || creds.AuthToken == "" || from == "" {
		logger.Warn("twilio credentials missing, notification skipped")
		s.metrics.RecordNotification(kind, "skipped")
		return false
	}
	if student.Phone == "" {
		logger.Warn("student has no phone number, notification skipped", zap.String("student_id", student.ID))
		s.metrics.RecordNotification(kind, "skipped")
		return false
	}

	to := student.Phone
	if settings.NotificationMethod == models.NotificationWhatsApp {
		to = whatsappPrefix + to
		from = whatsappPrefix + from
	}
	if err := s.sender.Send(ctx, creds, OutboundMessage{To: to, From: from, Body: body}); err != nil {
		logger.Error("notification failed", zap.String("method", string(settings.NotificationMethod)), zap.Error(err))
		s.metrics.RecordNotification(kind, "failed")
		return false
	}
	logger.Info("notification sent", zap.String("method", string(settings.NotificationMethod)))
	s.metrics.RecordNotification(kind, "sent")
	return true
}

func (s *NotificationService) resolveCredentials(settings models.AppSettings) (TwilioCredentials, string) {
	creds := TwilioCredentials{AccountSID: settings.TwilioAccountSID, AuthToken: settings.TwilioAuthToken}
	if creds.AccountSID == "" {
		creds.AccountSID = s.fallback.AccountSID
	}
	if creds.AuthToken == "" {
		creds.AuthToken = s.fallback.AuthToken
	}
	from := settings.TwilioPhoneNumber
	if from == "" {
		from = s.fallback.PhoneNumber
	}
	return creds, from
}
