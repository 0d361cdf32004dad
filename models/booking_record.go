package models

import (
	"fmt"
	"time"
)

// BookingRecord is the payload persisted into the external calendar on
// commit. The external calendar is the sole system of record; this process
// keeps no durable copy.
type BookingRecord struct {
	ID         string    `json:"id"`       // client-generated, e.g. UUID
	Resource   string    `json:"resource"` // resource key
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Day        int       `json:"day"`
	Hour       int       `json:"hour"`
	UserID     string    `json:"userId"` // committing user's stable identifier
	UserHandle string    `json:"userHandle,omitempty"`
	Label      string    `json:"label"` // human-readable summary
	CreatedAt  time.Time `json:"createdAt"`
}

// Start returns the slot's start instant in the given location.
func (b BookingRecord) Start(loc *time.Location) time.Time {
	return time.Date(b.Year, time.Month(b.Month), b.Day, b.Hour, 0, 0, 0, loc)
}

// End returns the slot's end instant: start plus one hour.
func (b BookingRecord) End(loc *time.Location) time.Time {
	return b.Start(loc).Add(time.Hour)
}

// DateString renders the booking date as YYYY-MM-DD.
func (b BookingRecord) DateString() string {
	return fmt.Sprintf("%04d-%02d-%02d", b.Year, b.Month, b.Day)
}
