package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"

	"courtbook/models"
	"courtbook/utils"
)

// ownerProperty is the private extended property carrying the booking
// owner's identifier. It is the sole mechanism by which ownership is
// recovered on reads, so it is always written and always read back verbatim.
const ownerProperty = "userId"

const (
	listAttempts  = 3
	retryDelay    = time.Second
	defaultBurst  = 5
	defaultPerSec = 5
)

// Gateway is the thin adapter over the external calendar backend. It holds
// no state between calls; the remote calendar is the sole system of record.
type Gateway interface {
	// ListEvents returns the busy intervals between from and to. Transient
	// failures are retried a bounded number of times; exhausting the budget
	// degrades to an empty result rather than an error, so availability
	// queries never block on a flaky backend. Permanent failures are
	// returned for the caller to absorb.
	ListEvents(ctx context.Context, resource models.Resource, from, to time.Time) ([]models.BusyInterval, error)
	// CreateEvent writes the booking and returns the backend event ID. It
	// never retries: a blind retry on a transient write failure risks a
	// duplicate booking.
	CreateEvent(ctx context.Context, resource models.Resource, record models.BookingRecord) (string, error)
}

// eventsAPI is the slice of the backend the gateway consumes; the real
// implementation wraps *gcal.Service.
type eventsAPI interface {
	List(ctx context.Context, calendarID string, from, to time.Time) ([]*gcal.Event, error)
	Insert(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error)
}

// googleEvents adapts *gcal.Service to eventsAPI.
type googleEvents struct {
	svc *gcal.Service
}

func (g *googleEvents) List(ctx context.Context, calendarID string, from, to time.Time) ([]*gcal.Event, error) {
	res, err := g.svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (g *googleEvents) Insert(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Insert(calendarID, event).Context(ctx).Do()
}

// GoogleGateway implements Gateway over the Google Calendar v3 API.
type GoogleGateway struct {
	api      eventsAPI
	limiter  *rate.Limiter
	location *time.Location
	tzName   string
	delay    time.Duration
}

// NewGoogleGateway wires a gateway over a live calendar service. All slot
// hours are derived in loc; tzName is written into event timestamps.
func NewGoogleGateway(svc *gcal.Service, loc *time.Location, tzName string) *GoogleGateway {
	return &GoogleGateway{
		api:      &googleEvents{svc: svc},
		limiter:  rate.NewLimiter(rate.Limit(defaultPerSec), defaultBurst),
		location: loc,
		tzName:   tzName,
		delay:    retryDelay,
	}
}

// newGatewayWithAPI is the seam used by tests.
func newGatewayWithAPI(api eventsAPI, loc *time.Location) *GoogleGateway {
	return &GoogleGateway{
		api:      api,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		location: loc,
		delay:    time.Millisecond,
	}
}

func (g *GoogleGateway) ListEvents(ctx context.Context, resource models.Resource, from, to time.Time) ([]models.BusyInterval, error) {
	logger := utils.GetLogger()

	if resource.CalendarID == "" {
		return nil, &Error{Kind: KindPermanent, Op: "list",
			Err: fmt.Errorf("no calendar mapped for resource %q", resource.Key)}
	}

	var lastErr error
	for attempt := 1; attempt <= listAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, classify("list", err)
		}

		items, err := g.api.List(ctx, resource.CalendarID, from, to)
		if err == nil {
			return g.project(items), nil
		}

		cerr := classify("list", err)
		if cerr.Kind == KindPermanent {
			return nil, cerr
		}
		lastErr = cerr
		logger.Warn("calendar list attempt failed",
			zap.String("resource", resource.Key),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < listAttempts {
			select {
			case <-time.After(g.delay):
			case <-ctx.Done():
				return nil, classify("list", ctx.Err())
			}
		}
	}

	// Retry budget exhausted: degrade to "assume free" rather than block
	// the user on a flaky backend.
	logger.Error("calendar list degraded to empty after retries",
		zap.String("resource", resource.Key),
		zap.Error(lastErr))
	return []models.BusyInterval{}, nil
}

// project maps raw events onto busy intervals, skipping all-day events
// (no dateTime) the way the original calendar data model expects.
func (g *GoogleGateway) project(items []*gcal.Event) []models.BusyInterval {
	intervals := make([]models.BusyInterval, 0, len(items))
	for _, ev := range items {
		if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			continue
		}
		var owner string
		if ev.ExtendedProperties != nil && ev.ExtendedProperties.Private != nil {
			owner = ev.ExtendedProperties.Private[ownerProperty]
		}
		intervals = append(intervals, models.BusyInterval{
			Start:  start,
			End:    end,
			Hour:   start.In(g.location).Hour(),
			UserID: owner,
		})
	}
	return intervals
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, resource models.Resource, record models.BookingRecord) (string, error) {
	logger := utils.GetLogger()

	if resource.CalendarID == "" {
		return "", &Error{Kind: KindPermanent, Op: "insert",
			Err: fmt.Errorf("no calendar mapped for resource %q", resource.Key)}
	}
	if record.UserID == "" {
		return "", &Error{Kind: KindPermanent, Op: "insert",
			Err: fmt.Errorf("booking record without owner")}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", classify("insert", err)
	}

	event := &gcal.Event{
		Summary:     record.Label,
		Description: fmt.Sprintf("Booked via Telegram Bot\nUser ID: %s", record.UserID),
		Start: &gcal.EventDateTime{
			DateTime: record.Start(g.location).Format(time.RFC3339),
			TimeZone: g.tzName,
		},
		End: &gcal.EventDateTime{
			DateTime: record.End(g.location).Format(time.RFC3339),
			TimeZone: g.tzName,
		},
		Transparency: "opaque",
		Status:       "confirmed",
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{ownerProperty: record.UserID},
		},
	}

	created, err := g.api.Insert(ctx, resource.CalendarID, event)
	if err != nil {
		return "", classify("insert", err)
	}

	logger.Info("calendar event created",
		zap.String("resource", resource.Key),
		zap.String("eventId", created.Id),
		zap.String("userId", record.UserID))
	return created.Id, nil
}
