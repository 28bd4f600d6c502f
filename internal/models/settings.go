package models

// NotificationMethod selects the delivery channel for confirmations.
type NotificationMethod string

const (
	NotificationSMS      NotificationMethod = "SMS"
	NotificationWhatsApp NotificationMethod = "WHATSAPP"
)

// AppSettings holds the per-installation notification settings.
type AppSettings struct {
	TwilioAccountSID   string             `json:"twilio_account_sid"`
	TwilioAuthToken    string             `json:"twilio_auth_token"`
	TwilioPhoneNumber  string             `json:"twilio_phone_number"`
	NotificationMethod NotificationMethod `json:"notification_method"`
}

// DefaultSettings returns empty credentials with SMS delivery.
func DefaultSettings() AppSettings {
	return AppSettings{NotificationMethod: NotificationSMS}
}

// Redacted hides the auth token for API responses.
func (s AppSettings) Redacted() AppSettings {
	if s.TwilioAuthToken != "" {
		s.TwilioAuthToken = "********"
	}
	return s
}
