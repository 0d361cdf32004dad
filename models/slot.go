package models

import "time"

// SlotStatus classifies a bookable hour from the viewing user's perspective.
// It is derived on every availability query, never stored.
type SlotStatus int

const (
	SlotFree SlotStatus = iota
	SlotOccupiedBySelf
	SlotOccupiedByOther
	SlotPast
	SlotToday
)

func (s SlotStatus) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotOccupiedBySelf:
		return "occupiedBySelf"
	case SlotOccupiedByOther:
		return "occupiedByOther"
	case SlotPast:
		return "past"
	case SlotToday:
		return "today"
	default:
		return "unknown"
	}
}

// BusyInterval is an external calendar event projected onto a date.
// UserID is empty for events not attributable to a known user
// (e.g. created directly in the calendar).
type BusyInterval struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Hour   int       `json:"hour"` // derived start hour in the booking offset
	UserID string    `json:"userId,omitempty"`
}

// HourStatus is one entry of a resolved day: an hour of the booking window
// together with its derived status.
type HourStatus struct {
	Hour   int        `json:"hour"`
	Status SlotStatus `json:"status"`
}

// MonthBookings summarises a month for grid rendering: which days of the
// month carry any booking, and which carry a booking owned by the viewer.
// Keys are days of month (1-based).
type MonthBookings struct {
	Booked map[int]bool `json:"booked"`
	Owned  map[int]bool `json:"owned"`
}

// NewMonthBookings returns an empty summary with both sets allocated.
func NewMonthBookings() MonthBookings {
	return MonthBookings{
		Booked: make(map[int]bool),
		Owned:  make(map[int]bool),
	}
}
