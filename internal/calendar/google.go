package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/noah-isme/autoplanning-api/pkg/config"
)

// EventsAPI is the slice of the Google Calendar events resource the adapter uses.
type EventsAPI interface {
	List(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*gcal.Event, error)
	Get(ctx context.Context, calendarID, eventID string) (*gcal.Event, error)
	Insert(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error)
	Patch(ctx context.Context, calendarID, eventID string, event *gcal.Event) (*gcal.Event, error)
	Delete(ctx context.Context, calendarID, eventID string) error
}

type googleEvents struct {
	events *gcal.EventsService
}

// NewGoogleEventsAPI builds an events client authorised by the configured refresh token.
func NewGoogleEventsAPI(ctx context.Context, cfg config.CalendarConfig) (EventsAPI, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("google calendar credentials are incomplete")
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	opts := []option.ClientOption{option.WithTokenSource(tokenSource)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return newGoogleEvents(ctx, opts...)
}

func newGoogleEvents(ctx context.Context, opts ...option.ClientOption) (EventsAPI, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &googleEvents{events: svc.Events}, nil
}

func (g *googleEvents) List(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*gcal.Event, error) {
	var items []*gcal.Event
	call := g.events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	err := call.Pages(ctx, func(page *gcal.Events) error {
		items = append(items, page.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (g *googleEvents) Get(ctx context.Context, calendarID, eventID string) (*gcal.Event, error) {
	return g.events.Get(calendarID, eventID).Context(ctx).Do()
}

func (g *googleEvents) Insert(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error) {
	return g.events.Insert(calendarID, event).Context(ctx).Do()
}

func (g *googleEvents) Patch(ctx context.Context, calendarID, eventID string, event *gcal.Event) (*gcal.Event, error) {
	return g.events.Patch(calendarID, eventID, event).Context(ctx).Do()
}

func (g *googleEvents) Delete(ctx context.Context, calendarID, eventID string) error {
	return g.events.Delete(calendarID, eventID).Context(ctx).Do()
}
