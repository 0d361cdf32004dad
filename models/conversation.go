package models

import "time"

// Phase is the current step of a user's booking conversation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResourceMenu
	PhaseMonthView
	PhaseTimeMenu
	PhaseConfirmMenu
	PhaseCommitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResourceMenu:
		return "resourceMenu"
	case PhaseMonthView:
		return "monthView"
	case PhaseTimeMenu:
		return "timeMenu"
	case PhaseConfirmMenu:
		return "confirmMenu"
	case PhaseCommitting:
		return "committing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Conversation is the per-user booking conversation state. One record per
// user, keyed by the user's stable identifier, mutated in place on every
// valid transition. Seq increases monotonically with each mutation so stale
// callbacks can be detected against the state they were rendered from.
type Conversation struct {
	UserID    string    `json:"userId"`
	Phase     Phase     `json:"phase"`
	Resource  string    `json:"resource,omitempty"`
	Year      int       `json:"year,omitempty"`
	Month     int       `json:"month,omitempty"`
	Day       int       `json:"day,omitempty"`
	Hour      int       `json:"hour,omitempty"`
	Seq       int64     `json:"seq"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversation returns a fresh idle conversation for the given user.
func NewConversation(userID string) *Conversation {
	return &Conversation{
		UserID:    userID,
		Phase:     PhaseIdle,
		UpdatedAt: time.Now(),
	}
}

// Advance records a mutation: bumps the sequence and the update timestamp.
// Callers set the selection fields themselves before or after advancing.
func (c *Conversation) Advance(next Phase) {
	c.Phase = next
	c.Seq++
	c.UpdatedAt = time.Now()
}

// ResetSelection clears all selection fields, returning the conversation to
// idle semantics. Done behaves as an alias of Idle for the next booking.
func (c *Conversation) ResetSelection() {
	c.Resource = ""
	c.Year = 0
	c.Month = 0
	c.Day = 0
	c.Hour = 0
}
