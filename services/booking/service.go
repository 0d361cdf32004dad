package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"courtbook/config"
	"courtbook/database/session"
	"courtbook/models"
	"courtbook/services/availability"
	"courtbook/services/calendar"
	"courtbook/utils"
)

// User identifies the acting user for one inbound event.
type User struct {
	ID     string // stable identifier
	Handle string // optional display handle
}

// Effects are transport-side side effects the engine triggers mid-flow. The
// engine never touches transport framing; it only asks for the provisional
// "booking in progress" artifact and gets back its cleanup function.
type Effects interface {
	ShowProgress(ctx context.Context, userID string) (clear func())
}

// ReminderScheduler enqueues a reminder for a committed booking. Best
// effort: scheduling failures are logged, never surfaced to the user.
type ReminderScheduler interface {
	Schedule(ctx context.Context, record models.BookingRecord) error
}

// Service is the booking conversation state machine. Handle consumes one
// parsed selection command and returns the next view to render; a returned
// error is always a handled error (see FlowError) and never leaves the
// conversation corrupted.
type Service interface {
	Welcome() models.View
	Handle(ctx context.Context, user User, cmd models.Command) (models.View, error)
}

// DefaultFlowService implements Service.
type DefaultFlowService struct {
	Registry     *models.ResourceRegistry
	Availability availability.Service
	Gateway      calendar.Gateway
	Store        session.Store
	Effects      Effects
	Reminders    ReminderScheduler
	Glyphs       config.Glyphs
	Location     *time.Location

	// Now is the clock; tests pin it. Nil means time.Now.
	Now func() time.Time
}

func (s *DefaultFlowService) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.Location)
	}
	return time.Now().In(s.Location)
}

// Handle dispatches one inbound selection event. The whole event is handled
// under the user's lock so rapid double-taps never interleave state access.
func (s *DefaultFlowService) Handle(ctx context.Context, user User, cmd models.Command) (models.View, error) {
	if cmd.Kind == models.CmdNoop {
		return models.View{}, nil
	}

	unlock := s.Store.Lock(user.ID)
	defer unlock()

	conv, err := s.Store.Get(ctx, user.ID)
	if err != nil {
		utils.GetLogger().Error("conversation load failed",
			zap.String("userId", user.ID), zap.Error(err))
		return models.View{}, &FlowError{Notice: "Something went wrong. Please try again.", Err: err}
	}
	if conv == nil {
		conv = models.NewConversation(user.ID)
	}

	switch cmd.Kind {
	case models.CmdBook:
		return s.toResourceMenu(ctx, conv)
	case models.CmdBackToResources:
		return s.toResourceMenu(ctx, conv)
	case models.CmdSelectResource:
		return s.toMonthView(ctx, conv, user, cmd.Resource, 0, 0)
	case models.CmdPrevMonth, models.CmdNextMonth:
		// The token already encodes the adjacent month, rollover included.
		return s.toMonthView(ctx, conv, user, cmd.Resource, cmd.Year, cmd.Month)
	case models.CmdBackToCalendar:
		return s.toMonthView(ctx, conv, user, cmd.Resource, conv.Year, conv.Month)
	case models.CmdSelectDate, models.CmdBackToTimes:
		return s.toTimeMenu(ctx, conv, user, cmd)
	case models.CmdSelectTime:
		return s.toConfirmMenu(ctx, conv, cmd)
	case models.CmdConfirm:
		return s.commit(ctx, conv, user, cmd)
	default:
		return models.View{}, structuralError("Invalid selection.", nil)
	}
}

// toResourceMenu enters the resource menu with no retained selection.
func (s *DefaultFlowService) toResourceMenu(ctx context.Context, conv *models.Conversation) (models.View, error) {
	conv.ResetSelection()
	conv.Advance(models.PhaseResourceMenu)
	if err := s.Store.Save(ctx, conv); err != nil {
		return models.View{}, s.saveError(conv.UserID, err)
	}
	return s.renderResourceMenu(), nil
}

func (s *DefaultFlowService) toMonthView(ctx context.Context, conv *models.Conversation, user User, resourceKey string, year, month int) (models.View, error) {
	resource, ok := s.Registry.ByKey(resourceKey)
	if !ok {
		return models.View{}, structuralError("Unknown resource.", nil)
	}
	if year == 0 || month == 0 {
		now := s.now()
		year, month = now.Year(), int(now.Month())
	}

	conv.Resource = resource.Key
	conv.Year = year
	conv.Month = month
	conv.Day = 0
	conv.Hour = 0
	conv.Advance(models.PhaseMonthView)
	if err := s.Store.Save(ctx, conv); err != nil {
		return models.View{}, s.saveError(conv.UserID, err)
	}

	return s.renderMonth(ctx, resource, year, month, user), nil
}

func (s *DefaultFlowService) toTimeMenu(ctx context.Context, conv *models.Conversation, user User, cmd models.Command) (models.View, error) {
	resource, ok := s.Registry.ByKey(cmd.Resource)
	if !ok {
		return models.View{}, structuralError("Unknown resource.", nil)
	}

	conv.Resource = resource.Key
	conv.Year = cmd.Year
	conv.Month = cmd.Month
	conv.Day = cmd.Day
	conv.Hour = 0
	conv.Advance(models.PhaseTimeMenu)
	if err := s.Store.Save(ctx, conv); err != nil {
		return models.View{}, s.saveError(conv.UserID, err)
	}

	return s.renderTimeMenu(ctx, resource, cmd.Year, cmd.Month, cmd.Day, user), nil
}

// toConfirmMenu is a pure transition: no backend call, just echo the
// selection for confirmation.
func (s *DefaultFlowService) toConfirmMenu(ctx context.Context, conv *models.Conversation, cmd models.Command) (models.View, error) {
	resource, ok := s.Registry.ByKey(cmd.Resource)
	if !ok {
		return models.View{}, structuralError("Unknown resource.", nil)
	}

	conv.Resource = resource.Key
	conv.Year = cmd.Year
	conv.Month = cmd.Month
	conv.Day = cmd.Day
	conv.Hour = cmd.Hour
	conv.Advance(models.PhaseConfirmMenu)
	if err := s.Store.Save(ctx, conv); err != nil {
		return models.View{}, s.saveError(conv.UserID, err)
	}

	return s.renderConfirm(resource, cmd.Year, cmd.Month, cmd.Day, cmd.Hour), nil
}

func (s *DefaultFlowService) saveError(userID string, err error) *FlowError {
	utils.GetLogger().Error("conversation save failed",
		zap.String("userId", userID), zap.Error(err))
	return &FlowError{Notice: "Something went wrong. Please try again.", Err: err}
}
