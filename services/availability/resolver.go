package availability

import (
	"context"
	"time"

	"go.uber.org/zap"

	"courtbook/models"
	"courtbook/services/calendar"
	"courtbook/utils"
)

// Service defines methods for resolving slot availability from the external
// calendar. Both entry points are best effort: a backend failure degrades to
// "assume free" and is never raised to the caller.
type Service interface {
	Resolve(ctx context.Context, resource models.Resource, date time.Time, viewer string) []models.HourStatus
	ResolveMonth(ctx context.Context, resource models.Resource, year int, month time.Month, viewer string) models.MonthBookings
}

// DefaultAvailabilityService is a concrete implementation.
type DefaultAvailabilityService struct {
	Gateway  calendar.Gateway
	Location *time.Location
	// Booking window: inclusive start hours.
	WindowStart int
	WindowEnd   int
}

// Resolve classifies every hour of the booking window on the given date as
// free, occupied by the viewer, or occupied by someone else. When the
// backend ever reports overlapping intervals for the same hour the last one
// wins; the external calendar is the authority and violations are tolerated,
// not rejected.
func (s *DefaultAvailabilityService) Resolve(ctx context.Context, resource models.Resource, date time.Time, viewer string) []models.HourStatus {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.Location)
	dayEnd := dayStart.Add(24 * time.Hour)

	intervals, err := s.Gateway.ListEvents(ctx, resource, dayStart, dayEnd)
	if err != nil {
		utils.GetLogger().Error("availability degraded for day",
			zap.String("resource", resource.Key),
			zap.String("date", dayStart.Format("2006-01-02")),
			zap.Error(err))
		intervals = nil
	}

	occupied := make(map[int]string, len(intervals))
	for _, iv := range intervals {
		occupied[iv.Hour] = iv.UserID
	}

	out := make([]models.HourStatus, 0, s.WindowEnd-s.WindowStart+1)
	for hour := s.WindowStart; hour <= s.WindowEnd; hour++ {
		status := models.SlotFree
		if owner, busy := occupied[hour]; busy {
			if owner != "" && owner == viewer {
				status = models.SlotOccupiedBySelf
			} else {
				status = models.SlotOccupiedByOther
			}
		}
		out = append(out, models.HourStatus{Hour: hour, Status: status})
	}
	return out
}

// ResolveMonth summarises a month: which days carry any booking and which
// carry a booking owned by the viewer. Uses the same classification rule as
// Resolve.
func (s *DefaultAvailabilityService) ResolveMonth(ctx context.Context, resource models.Resource, year int, month time.Month, viewer string) models.MonthBookings {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, s.Location)
	monthEnd := monthStart.AddDate(0, 1, 0)

	intervals, err := s.Gateway.ListEvents(ctx, resource, monthStart, monthEnd)
	if err != nil {
		utils.GetLogger().Error("availability degraded for month",
			zap.String("resource", resource.Key),
			zap.Int("year", year),
			zap.Int("month", int(month)),
			zap.Error(err))
		intervals = nil
	}

	bookings := models.NewMonthBookings()
	for _, iv := range intervals {
		local := iv.Start.In(s.Location)
		if local.Year() != year || local.Month() != month {
			continue
		}
		day := local.Day()
		bookings.Booked[day] = true
		if iv.UserID != "" && iv.UserID == viewer {
			bookings.Owned[day] = true
		}
	}
	return bookings
}
