package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"courtbook/config"
	"courtbook/database/session"
	"courtbook/models"
	"courtbook/services/availability"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListEvents(ctx context.Context, resource models.Resource, from, to time.Time) ([]models.BusyInterval, error) {
	args := m.Called(ctx, resource, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BusyInterval), args.Error(1)
}

func (m *MockGateway) CreateEvent(ctx context.Context, resource models.Resource, record models.BookingRecord) (string, error) {
	args := m.Called(ctx, resource, record)
	return args.String(0), args.Error(1)
}

type fakeEffects struct {
	shows  int
	clears int
}

func (f *fakeEffects) ShowProgress(_ context.Context, _ string) func() {
	f.shows++
	return func() { f.clears++ }
}

var (
	badminton = models.Resource{Key: "badminton", Name: "Badminton", CalendarID: "cal-1"}
	squash    = models.Resource{Key: "squash", Name: "Squash", CalendarID: "cal-2"}

	testGlyphs = config.Glyphs{
		PastBooked: "✕", PastFree: "·", Today: "•",
		FutureOwned: "✓", SelfSlot: "🟢", OtherSlot: "🔴",
	}

	actingUser = User{ID: "user-U", Handle: "somebody"}
)

// testNow pins the clock: June 1st 2024, mid-morning.
var testNow = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

func newFlow(gw *MockGateway) (*DefaultFlowService, *fakeEffects) {
	effects := &fakeEffects{}
	flow := &DefaultFlowService{
		Registry: models.NewResourceRegistry([]models.Resource{badminton, squash}),
		Availability: &availability.DefaultAvailabilityService{
			Gateway:     gw,
			Location:    time.UTC,
			WindowStart: 10,
			WindowEnd:   19,
		},
		Gateway:  gw,
		Store:    session.NewMemoryStore(),
		Effects:  effects,
		Glyphs:   testGlyphs,
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}
	return flow, effects
}

func phaseOf(t *testing.T, flow *DefaultFlowService, userID string) models.Phase {
	t.Helper()
	conv, err := flow.Store.Get(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, conv)
	return conv.Phase
}

func findButton(view models.View, label string) (models.Button, bool) {
	for _, row := range view.Rows {
		for _, b := range row {
			if strings.Contains(b.Label, label) {
				return b, true
			}
		}
	}
	return models.Button{}, false
}

func TestWelcomeHasBookButton(t *testing.T) {
	flow, _ := newFlow(new(MockGateway))
	view := flow.Welcome()

	btn, ok := findButton(view, "Book a slot")
	require.True(t, ok)
	cmd, err := models.ParseCommand(btn.Token)
	require.NoError(t, err)
	assert.Equal(t, models.CmdBook, cmd.Kind)
}

func TestBookOpensResourceMenu(t *testing.T) {
	flow, _ := newFlow(new(MockGateway))

	view, err := flow.Handle(context.Background(), actingUser, models.Command{Kind: models.CmdBook})
	require.NoError(t, err)

	assert.Equal(t, models.PhaseResourceMenu, phaseOf(t, flow, actingUser.ID))
	_, hasBadminton := findButton(view, "Badminton")
	_, hasSquash := findButton(view, "Squash")
	assert.True(t, hasBadminton)
	assert.True(t, hasSquash)
}

func TestSelectResourceOpensCurrentMonth(t *testing.T) {
	gw := new(MockGateway)
	gw.On("ListEvents", mock.Anything, badminton, mock.Anything, mock.Anything).
		Return([]models.BusyInterval{}, nil)
	flow, _ := newFlow(gw)

	view, err := flow.Handle(context.Background(), actingUser,
		models.Command{Kind: models.CmdSelectResource, Resource: "badminton"})
	require.NoError(t, err)

	assert.Equal(t, models.PhaseMonthView, phaseOf(t, flow, actingUser.ID))
	assert.Contains(t, view.Text, "June 2024")

	conv, _ := flow.Store.Get(context.Background(), actingUser.ID)
	assert.Equal(t, "badminton", conv.Resource)
	assert.Equal(t, 2024, conv.Year)
	assert.Equal(t, 6, conv.Month)
}

func TestUnknownResourceIsStructural(t *testing.T) {
	flow, _ := newFlow(new(MockGateway))

	_, err := flow.Handle(context.Background(), actingUser,
		models.Command{Kind: models.CmdSelectResource, Resource: "tennis"})
	assert.ErrorIs(t, err, models.ErrStructural)
}

func TestMonthNavigationRollsOver(t *testing.T) {
	gw := new(MockGateway)
	gw.On("ListEvents", mock.Anything, badminton, mock.Anything, mock.Anything).
		Return([]models.BusyInterval{}, nil)
	flow, _ := newFlow(gw)

	// The tokens carry the target month; December 2024 -> January 2025.
	view, err := flow.Handle(context.Background(), actingUser,
		models.Command{Kind: models.CmdNextMonth, Resource: "badminton", Year: 2025, Month: 1})
	require.NoError(t, err)
	assert.Contains(t, view.Text, "January 2025")

	conv, _ := flow.Store.Get(context.Background(), actingUser.ID)
	assert.Equal(t, models.PhaseMonthView, conv.Phase)
	assert.Equal(t, 2025, conv.Year)
	assert.Equal(t, 1, conv.Month)
}

func TestSelectDateRendersTimeMenu(t *testing.T) {
	day := time.Date(2024, time.June, 15, 14, 0, 0, 0, time.UTC)
	gw := new(MockGateway)
	gw.On("ListEvents", mock.Anything, badminton, mock.Anything, mock.Anything).
		Return([]models.BusyInterval{
			{Start: day, End: day.Add(time.Hour), Hour: 14, UserID: "user-V"},
		}, nil)
	flow, _ := newFlow(gw)

	view, err := flow.Handle(context.Background(), actingUser,
		models.Command{Kind: models.CmdSelectDate, Resource: "badminton", Year: 2024, Month: 6, Day: 15})
	require.NoError(t, err)

	assert.Equal(t, models.PhaseTimeMenu, phaseOf(t, flow, actingUser.ID))

	busy, ok := findButton(view, "🔴 14:00")
	require.True(t, ok)
	assert.Equal(t, models.NoopToken, busy.Token, "occupied hours are not actionable")

	free, ok := findButton(view, "12:00")
	require.True(t, ok)
	cmd, err := models.ParseCommand(free.Token)
	require.NoError(t, err)
	assert.Equal(t, models.CmdSelectTime, cmd.Kind)
	assert.Equal(t, 12, cmd.Hour)
}

func TestSelectTimeIsPureTransition(t *testing.T) {
	gw := new(MockGateway)
	flow, _ := newFlow(gw)

	view, err := flow.Handle(context.Background(), actingUser,
		models.Command{Kind: models.CmdSelectTime, Resource: "badminton", Year: 2024, Month: 6, Day: 15, Hour: 14})
	require.NoError(t, err)

	// No backend call on the way to the confirm menu.
	gw.AssertNotCalled(t, "ListEvents", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, models.PhaseConfirmMenu, phaseOf(t, flow, actingUser.ID))
	assert.Contains(t, view.Text, "2024-06-15")
	assert.Contains(t, view.Text, "14:00")

	confirm, ok := findButton(view, "Confirm")
	require.True(t, ok)
	cmd, err := models.ParseCommand(confirm.Token)
	require.NoError(t, err)
	assert.Equal(t, models.CmdConfirm, cmd.Kind)
	assert.Equal(t, 14, cmd.Hour)
}

func TestConfirmCommitsExactlyOnce(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CreateEvent", mock.Anything, badminton, mock.MatchedBy(func(r models.BookingRecord) bool {
		return r.Resource == "badminton" &&
			r.Year == 2024 && r.Month == 6 && r.Day == 15 && r.Hour == 14 &&
			r.UserID == actingUser.ID && r.ID != ""
	})).Return("evt-1", nil).Once()
	flow, effects := newFlow(gw)

	selection := models.Command{
		Kind: models.CmdSelectTime, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
	}
	_, err := flow.Handle(context.Background(), actingUser, selection)
	require.NoError(t, err)

	selection.Kind = models.CmdConfirm
	view, err := flow.Handle(context.Background(), actingUser, selection)
	require.NoError(t, err)

	gw.AssertExpectations(t)
	assert.Equal(t, models.PhaseDone, phaseOf(t, flow, actingUser.ID))
	assert.Contains(t, view.Text, "Booking confirmed")
	assert.Equal(t, 1, effects.shows)
	assert.Equal(t, 1, effects.clears, "provisional artifact cleared on success")

	conv, _ := flow.Store.Get(context.Background(), actingUser.ID)
	assert.Empty(t, conv.Resource, "done retains no selection")
}

func TestConfirmFailureKeepsConfirmMenu(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CreateEvent", mock.Anything, badminton, mock.Anything).
		Return("", assert.AnError).Once()
	flow, effects := newFlow(gw)

	selection := models.Command{
		Kind: models.CmdSelectTime, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
	}
	_, err := flow.Handle(context.Background(), actingUser, selection)
	require.NoError(t, err)
	phaseBefore := phaseOf(t, flow, actingUser.ID)

	selection.Kind = models.CmdConfirm
	_, err = flow.Handle(context.Background(), actingUser, selection)

	require.Error(t, err)
	assert.Equal(t, "Booking failed. Please try again.", UserNotice(err))
	assert.Equal(t, phaseBefore, phaseOf(t, flow, actingUser.ID), "phase unchanged after failed commit")
	assert.Equal(t, 1, effects.shows)
	assert.Equal(t, 1, effects.clears, "provisional artifact cleared on failure too")

	// No automatic retry happened.
	gw.AssertNumberOfCalls(t, "CreateEvent", 1)
}

func TestConfirmMismatchIsRejected(t *testing.T) {
	gw := new(MockGateway)
	flow, effects := newFlow(gw)

	_, err := flow.Handle(context.Background(), actingUser, models.Command{
		Kind: models.CmdSelectTime, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
	})
	require.NoError(t, err)

	// Confirm token from a stale screen: different hour.
	_, err = flow.Handle(context.Background(), actingUser, models.Command{
		Kind: models.CmdConfirm, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 16,
	})

	assert.ErrorIs(t, err, models.ErrStructural)
	gw.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, effects.shows)
	assert.Equal(t, models.PhaseConfirmMenu, phaseOf(t, flow, actingUser.ID))
}

func TestBackEdges(t *testing.T) {
	gw := new(MockGateway)
	gw.On("ListEvents", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.BusyInterval{}, nil)
	flow, _ := newFlow(gw)
	ctx := context.Background()

	_, err := flow.Handle(ctx, actingUser, models.Command{
		Kind: models.CmdSelectTime, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
	})
	require.NoError(t, err)

	// ConfirmMenu -> TimeMenu.
	_, err = flow.Handle(ctx, actingUser, models.Command{
		Kind: models.CmdBackToTimes, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseTimeMenu, phaseOf(t, flow, actingUser.ID))

	// TimeMenu -> MonthView.
	_, err = flow.Handle(ctx, actingUser, models.Command{
		Kind: models.CmdBackToCalendar, Resource: "badminton",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseMonthView, phaseOf(t, flow, actingUser.ID))

	// MonthView -> ResourceMenu.
	_, err = flow.Handle(ctx, actingUser, models.Command{Kind: models.CmdBackToResources})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseResourceMenu, phaseOf(t, flow, actingUser.ID))
}

func TestNoopProducesNoView(t *testing.T) {
	flow, _ := newFlow(new(MockGateway))
	view, err := flow.Handle(context.Background(), actingUser, models.Command{Kind: models.CmdNoop})
	require.NoError(t, err)
	assert.True(t, view.IsZero())
}

func TestBookAgainAfterDone(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CreateEvent", mock.Anything, badminton, mock.Anything).Return("evt-1", nil)
	flow, _ := newFlow(gw)
	ctx := context.Background()

	selection := models.Command{
		Kind: models.CmdSelectTime, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
	}
	_, err := flow.Handle(ctx, actingUser, selection)
	require.NoError(t, err)
	selection.Kind = models.CmdConfirm
	_, err = flow.Handle(ctx, actingUser, selection)
	require.NoError(t, err)

	// Done behaves as idle: booking again starts a clean flow.
	view, err := flow.Handle(ctx, actingUser, models.Command{Kind: models.CmdBook})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseResourceMenu, phaseOf(t, flow, actingUser.ID))
	_, ok := findButton(view, "Badminton")
	assert.True(t, ok)
}

func TestReminderScheduledOnCommit(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CreateEvent", mock.Anything, badminton, mock.Anything).Return("evt-1", nil)
	flow, _ := newFlow(gw)

	var scheduled []models.BookingRecord
	flow.Reminders = reminderFunc(func(_ context.Context, r models.BookingRecord) error {
		scheduled = append(scheduled, r)
		return nil
	})

	selection := models.Command{
		Kind: models.CmdSelectTime, Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
	}
	ctx := context.Background()
	_, err := flow.Handle(ctx, actingUser, selection)
	require.NoError(t, err)
	selection.Kind = models.CmdConfirm
	_, err = flow.Handle(ctx, actingUser, selection)
	require.NoError(t, err)

	require.Len(t, scheduled, 1)
	assert.Equal(t, "badminton", scheduled[0].Resource)
	assert.Equal(t, 14, scheduled[0].Hour)
}

type reminderFunc func(ctx context.Context, record models.BookingRecord) error

func (f reminderFunc) Schedule(ctx context.Context, record models.BookingRecord) error {
	return f(ctx, record)
}
