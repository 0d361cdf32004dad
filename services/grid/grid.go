package grid

import (
	"fmt"
	"strconv"
	"time"

	"courtbook/config"
	"courtbook/models"
)

// DayClass classifies one real day cell of the month grid.
type DayClass int

const (
	DayPastBooked DayClass = iota
	DayPastFree
	DayToday
	DayFutureOwned
	DayFutureOther
)

var weekdays = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// PrevMonth returns the month before (year, month), borrowing a year at the
// January boundary.
func PrevMonth(year, month int) (int, int) {
	month--
	if month == 0 {
		month = 12
		year--
	}
	return year, month
}

// NextMonth returns the month after (year, month), carrying a year at the
// December boundary.
func NextMonth(year, month int) (int, int) {
	month++
	if month == 13 {
		month = 1
		year++
	}
	return year, month
}

// Classify derives the display class of one day. today must be truncated to
// a date in the booking location.
func Classify(year, month, day int, today time.Time, bookings models.MonthBookings) DayClass {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	switch {
	case date.Before(todayDate):
		if bookings.Booked[day] {
			return DayPastBooked
		}
		return DayPastFree
	case date.Equal(todayDate):
		return DayToday
	case bookings.Owned[day]:
		return DayFutureOwned
	default:
		return DayFutureOther
	}
}

// Build renders a navigable month view for the resource as a pure function
// of its inputs: no clock reads, no backend calls, deterministic. Weeks are
// Monday-first with empty padding cells; past days are not actionable.
func Build(year, month int, resource models.Resource, today time.Time, bookings models.MonthBookings, glyphs config.Glyphs) models.View {
	view := models.View{
		Text: fmt.Sprintf("%s — %s %d", resource.Name, time.Month(month).String(), year),
	}

	noop := models.Button{Label: " ", Token: models.NoopToken}

	// Navigation header: << MonthName >>
	prevYear, prevMonth := PrevMonth(year, month)
	nextYear, nextMonth := NextMonth(year, month)
	view.Row(
		models.Button{Label: "<<", Token: models.Command{
			Kind: models.CmdPrevMonth, Resource: resource.Key, Year: prevYear, Month: prevMonth,
		}.Token()},
		models.Button{Label: time.Month(month).String(), Token: models.NoopToken},
		models.Button{Label: ">>", Token: models.Command{
			Kind: models.CmdNextMonth, Resource: resource.Key, Year: nextYear, Month: nextMonth,
		}.Token()},
	)

	// Weekday header.
	header := make([]models.Button, 0, len(weekdays))
	for _, wd := range weekdays {
		header = append(header, models.Button{Label: wd, Token: models.NoopToken})
	}
	view.Row(header...)

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, today.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	// Monday-first column of the 1st: Monday=0 .. Sunday=6.
	lead := (int(first.Weekday()) + 6) % 7

	row := make([]models.Button, 0, 7)
	for i := 0; i < lead; i++ {
		row = append(row, noop)
	}
	for day := 1; day <= daysInMonth; day++ {
		row = append(row, dayButton(year, month, day, resource, today, bookings, glyphs))
		if len(row) == 7 {
			view.Row(row...)
			row = make([]models.Button, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, noop)
		}
		view.Row(row...)
	}

	view.Row(models.Button{Label: "« Back", Token: models.Command{Kind: models.CmdBackToResources}.Token()})
	return view
}

func dayButton(year, month, day int, resource models.Resource, today time.Time, bookings models.MonthBookings, glyphs config.Glyphs) models.Button {
	class := Classify(year, month, day, today, bookings)

	var glyph string
	actionable := true
	switch class {
	case DayPastBooked:
		glyph = glyphs.PastBooked
		actionable = false
	case DayPastFree:
		glyph = glyphs.PastFree
		actionable = false
	case DayToday:
		glyph = glyphs.Today
	case DayFutureOwned:
		glyph = glyphs.FutureOwned
	case DayFutureOther:
		glyph = glyphs.FutureOther
	}

	label := strconv.Itoa(day)
	if glyph != "" {
		label = glyph + label
	}

	token := models.NoopToken
	if actionable {
		token = models.Command{
			Kind: models.CmdSelectDate, Resource: resource.Key,
			Year: year, Month: month, Day: day,
		}.Token()
	}
	return models.Button{Label: label, Token: token}
}
