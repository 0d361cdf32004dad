package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courtbook/models"
	"courtbook/utils"
)

// commit runs the booking commit protocol. No availability re-check happens
// here: the backend is the final arbiter, and the narrow race between two
// users confirming the same slot is an accepted trade-off. There is no
// automatic retry either; on failure the conversation stays at the confirm
// menu so the user can retry manually.
func (s *DefaultFlowService) commit(ctx context.Context, conv *models.Conversation, user User, cmd models.Command) (models.View, error) {
	logger := utils.GetLogger()

	resource, ok := s.Registry.ByKey(cmd.Resource)
	if !ok {
		return models.View{}, structuralError("Unknown resource.", nil)
	}

	// The confirm token must match the stored selection. A confirm tapped on
	// a screen the conversation has since moved past is rejected rather than
	// committing a slot the user never saw confirmed.
	if conv.Resource != cmd.Resource || conv.Year != cmd.Year ||
		conv.Month != cmd.Month || conv.Day != cmd.Day || conv.Hour != cmd.Hour {
		return models.View{}, structuralError("This confirmation is out of date. Please reselect the slot.",
			fmt.Errorf("confirm for %s %d-%d-%d %d:00 against stored %s %d-%d-%d %d:00",
				cmd.Resource, cmd.Year, cmd.Month, cmd.Day, cmd.Hour,
				conv.Resource, conv.Year, conv.Month, conv.Day, conv.Hour))
	}

	conv.Advance(models.PhaseCommitting)
	if err := s.Store.Save(ctx, conv); err != nil {
		return models.View{}, s.saveError(conv.UserID, err)
	}

	// Provisional "in progress" artifact; cleared on every exit path.
	clearProgress := func() {}
	if s.Effects != nil {
		clearProgress = s.Effects.ShowProgress(ctx, user.ID)
	}

	label := resource.Name + " Booking"
	if user.Handle != "" {
		label = fmt.Sprintf("%s Booking (@%s)", resource.Name, user.Handle)
	}
	record := models.BookingRecord{
		ID:         uuid.New().String(),
		Resource:   resource.Key,
		Year:       cmd.Year,
		Month:      cmd.Month,
		Day:        cmd.Day,
		Hour:       cmd.Hour,
		UserID:     user.ID,
		UserHandle: user.Handle,
		Label:      label,
		CreatedAt:  time.Now(),
	}

	eventID, err := s.Gateway.CreateEvent(ctx, resource, record)
	clearProgress()
	if err != nil {
		conv.Advance(models.PhaseConfirmMenu)
		if saveErr := s.Store.Save(ctx, conv); saveErr != nil {
			logger.Error("conversation save failed after commit error",
				zap.String("userId", conv.UserID), zap.Error(saveErr))
		}
		logger.Error("booking commit failed",
			zap.String("userId", user.ID),
			zap.String("resource", resource.Key),
			zap.String("date", record.DateString()),
			zap.Int("hour", record.Hour),
			zap.Error(err))
		return models.View{}, &FlowError{Notice: "Booking failed. Please try again.", Err: err}
	}

	if s.Reminders != nil {
		if err := s.Reminders.Schedule(ctx, record); err != nil {
			logger.Warn("reminder scheduling failed",
				zap.String("bookingId", record.ID), zap.Error(err))
		}
	}

	conv.Advance(models.PhaseDone)
	conv.ResetSelection()
	if err := s.Store.Save(ctx, conv); err != nil {
		return models.View{}, s.saveError(conv.UserID, err)
	}

	logger.Info("booking committed",
		zap.String("userId", user.ID),
		zap.String("resource", resource.Key),
		zap.String("date", record.DateString()),
		zap.Int("hour", record.Hour),
		zap.String("eventId", eventID))
	return s.renderDone(resource, record), nil
}
