package booking

import (
	"context"
	"fmt"
	"time"

	"courtbook/models"
	"courtbook/services/grid"
)

// Welcome is the initial screen for a fresh chat: a greeting plus the entry
// button into the booking flow.
func (s *DefaultFlowService) Welcome() models.View {
	view := models.View{Text: "Welcome! Tap 'Book a slot' to get started."}
	view.Row(models.Button{
		Label: "Book a slot",
		Token: models.Command{Kind: models.CmdBook}.Token(),
	})
	return view
}

func (s *DefaultFlowService) renderResourceMenu() models.View {
	view := models.View{Text: "Choose what to book:"}
	for _, r := range s.Registry.All() {
		view.Row(models.Button{
			Label: r.Name,
			Token: models.Command{Kind: models.CmdSelectResource, Resource: r.Key}.Token(),
		})
	}
	return view
}

func (s *DefaultFlowService) renderMonth(ctx context.Context, resource models.Resource, year, month int, user User) models.View {
	bookings := s.Availability.ResolveMonth(ctx, resource, year, time.Month(month), user.ID)
	return grid.Build(year, month, resource, s.now(), bookings, s.Glyphs)
}

func (s *DefaultFlowService) renderTimeMenu(ctx context.Context, resource models.Resource, year, month, day int, user User) models.View {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.Location)
	hours := s.Availability.Resolve(ctx, resource, date, user.ID)

	view := models.View{
		Text: fmt.Sprintf("%s on %04d-%02d-%02d. Pick a time:", resource.Name, year, month, day),
	}
	for _, hs := range hours {
		label := fmt.Sprintf("%d:00", hs.Hour)
		token := models.NoopToken

		switch hs.Status {
		case models.SlotFree:
			if s.Glyphs.FreeSlot != "" {
				label = s.Glyphs.FreeSlot + " " + label
			}
			token = models.Command{
				Kind: models.CmdSelectTime, Resource: resource.Key,
				Year: year, Month: month, Day: day, Hour: hs.Hour,
			}.Token()
		case models.SlotOccupiedBySelf:
			label = s.Glyphs.SelfSlot + " " + label
		case models.SlotOccupiedByOther:
			label = s.Glyphs.OtherSlot + " " + label
		}
		view.Row(models.Button{Label: label, Token: token})
	}

	view.Row(models.Button{
		Label: "« Back",
		Token: models.Command{Kind: models.CmdBackToCalendar, Resource: resource.Key}.Token(),
	})
	return view
}

func (s *DefaultFlowService) renderConfirm(resource models.Resource, year, month, day, hour int) models.View {
	view := models.View{
		Text: fmt.Sprintf("You picked:\nResource: %s\nDate: %04d-%02d-%02d\nTime: %d:00\nTap 'Confirm' to finish.",
			resource.Name, year, month, day, hour),
	}
	view.Row(models.Button{
		Label: "Confirm",
		Token: models.Command{
			Kind: models.CmdConfirm, Resource: resource.Key,
			Year: year, Month: month, Day: day, Hour: hour,
		}.Token(),
	})
	view.Row(models.Button{
		Label: "« Back",
		Token: models.Command{
			Kind: models.CmdBackToTimes, Resource: resource.Key,
			Year: year, Month: month, Day: day,
		}.Token(),
	})
	return view
}

func (s *DefaultFlowService) renderDone(resource models.Resource, record models.BookingRecord) models.View {
	view := models.View{
		Text: fmt.Sprintf("✅ Booking confirmed!\n\nResource: %s\nDate: %s\nTime: %d:00",
			resource.Name, record.DateString(), record.Hour),
	}
	// Done behaves as idle for the next booking.
	view.Row(models.Button{
		Label: "Book again",
		Token: models.Command{Kind: models.CmdBook}.Token(),
	})
	return view
}
