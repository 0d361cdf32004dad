package calendar

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"courtbook/models"
)

var court = models.Resource{Key: "badminton", Name: "Badminton", CalendarID: "cal-1"}

// fakeEvents scripts the backend: one response (or error) per call.
type fakeEvents struct {
	listErrs    []error
	listResult  []*gcal.Event
	listCalls   int
	insertErr   error
	insertCalls int
	inserted    *gcal.Event
}

func (f *fakeEvents) List(_ context.Context, _ string, _, _ time.Time) ([]*gcal.Event, error) {
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.listResult, nil
}

func (f *fakeEvents) Insert(_ context.Context, _ string, ev *gcal.Event) (*gcal.Event, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = ev
	created := *ev
	created.Id = "evt-123"
	return &created, nil
}

func transientErr() error {
	return &googleapi.Error{Code: 503, Message: "backend unavailable"}
}

func event(start, end string, owner string) *gcal.Event {
	ev := &gcal.Event{
		Start: &gcal.EventDateTime{DateTime: start},
		End:   &gcal.EventDateTime{DateTime: end},
	}
	if owner != "" {
		ev.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{"userId": owner},
		}
	}
	return ev
}

func TestListEventsProjectsOwnership(t *testing.T) {
	fake := &fakeEvents{listResult: []*gcal.Event{
		event("2024-06-15T14:00:00Z", "2024-06-15T15:00:00Z", "user-U"),
		event("2024-06-15T16:00:00Z", "2024-06-15T17:00:00Z", ""),
	}}
	gw := newGatewayWithAPI(fake, time.UTC)

	from := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	intervals, err := gw.ListEvents(context.Background(), court, from, from.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, intervals, 2)

	assert.Equal(t, 14, intervals[0].Hour)
	assert.Equal(t, "user-U", intervals[0].UserID)
	assert.Equal(t, 16, intervals[1].Hour)
	assert.Empty(t, intervals[1].UserID)
}

func TestListEventsSkipsAllDayEvents(t *testing.T) {
	fake := &fakeEvents{listResult: []*gcal.Event{
		{Start: &gcal.EventDateTime{Date: "2024-06-15"}, End: &gcal.EventDateTime{Date: "2024-06-16"}},
		event("2024-06-15T14:00:00Z", "2024-06-15T15:00:00Z", "user-U"),
	}}
	gw := newGatewayWithAPI(fake, time.UTC)

	from := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	intervals, err := gw.ListEvents(context.Background(), court, from, from.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, intervals, 1)
}

func TestListEventsRetriesTransientThenSucceeds(t *testing.T) {
	fake := &fakeEvents{
		listErrs:   []error{transientErr(), transientErr(), nil},
		listResult: []*gcal.Event{event("2024-06-15T14:00:00Z", "2024-06-15T15:00:00Z", "user-U")},
	}
	gw := newGatewayWithAPI(fake, time.UTC)

	from := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	intervals, err := gw.ListEvents(context.Background(), court, from, from.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, intervals, 1)
	assert.Equal(t, 3, fake.listCalls)
}

func TestListEventsDegradesToEmptyAfterRetryBudget(t *testing.T) {
	fake := &fakeEvents{listErrs: []error{transientErr(), transientErr(), transientErr()}}
	gw := newGatewayWithAPI(fake, time.UTC)

	from := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	intervals, err := gw.ListEvents(context.Background(), court, from, from.Add(24*time.Hour))

	require.NoError(t, err, "degraded read must not propagate an error")
	assert.Empty(t, intervals)
	assert.Equal(t, 3, fake.listCalls)
}

func TestListEventsPermanentFailureIsNotRetried(t *testing.T) {
	fake := &fakeEvents{listErrs: []error{&googleapi.Error{Code: 404, Message: "calendar not found"}}}
	gw := newGatewayWithAPI(fake, time.UTC)

	from := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	_, err := gw.ListEvents(context.Background(), court, from, from.Add(24*time.Hour))

	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, 1, fake.listCalls)
}

func TestListEventsUnmappedResource(t *testing.T) {
	gw := newGatewayWithAPI(&fakeEvents{}, time.UTC)
	_, err := gw.ListEvents(context.Background(), models.Resource{Key: "ghost"}, time.Now(), time.Now())
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestCreateEventWritesOwnerProperty(t *testing.T) {
	fake := &fakeEvents{}
	gw := newGatewayWithAPI(fake, time.UTC)

	record := models.BookingRecord{
		ID: "rec-1", Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
		UserID: "user-U", Label: "Badminton Booking",
	}
	id, err := gw.CreateEvent(context.Background(), court, record)
	require.NoError(t, err)
	assert.Equal(t, "evt-123", id)
	assert.Equal(t, 1, fake.insertCalls)

	require.NotNil(t, fake.inserted)
	require.NotNil(t, fake.inserted.ExtendedProperties)
	assert.Equal(t, "user-U", fake.inserted.ExtendedProperties.Private["userId"])
	assert.Equal(t, "Badminton Booking", fake.inserted.Summary)
	assert.Equal(t, "2024-06-15T14:00:00Z", fake.inserted.Start.DateTime)
	assert.Equal(t, "2024-06-15T15:00:00Z", fake.inserted.End.DateTime)
	assert.Equal(t, "confirmed", fake.inserted.Status)
}

func TestCreateEventDoesNotRetry(t *testing.T) {
	fake := &fakeEvents{insertErr: transientErr()}
	gw := newGatewayWithAPI(fake, time.UTC)

	record := models.BookingRecord{
		ID: "rec-1", Resource: "badminton",
		Year: 2024, Month: 6, Day: 15, Hour: 14,
		UserID: "user-U", Label: "Badminton Booking",
	}
	_, err := gw.CreateEvent(context.Background(), court, record)

	require.Error(t, err)
	assert.True(t, IsTransient(err), "transient write failures surface, never auto-retry")
	assert.Equal(t, 1, fake.insertCalls)
}

func TestCreateEventRequiresOwner(t *testing.T) {
	fake := &fakeEvents{}
	gw := newGatewayWithAPI(fake, time.UTC)

	_, err := gw.CreateEvent(context.Background(), court, models.BookingRecord{
		Resource: "badminton", Year: 2024, Month: 6, Day: 15, Hour: 14,
	})
	require.Error(t, err)
	assert.Zero(t, fake.insertCalls)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{&googleapi.Error{Code: 500}, KindTransient},
		{&googleapi.Error{Code: 503}, KindTransient},
		{&googleapi.Error{Code: 429}, KindTransient},
		{&googleapi.Error{Code: 400}, KindPermanent},
		{&googleapi.Error{Code: 401}, KindPermanent},
		{&googleapi.Error{Code: 404}, KindPermanent},
		{&net.DNSError{IsTimeout: true}, KindTransient},
		{context.DeadlineExceeded, KindTransient},
		{errors.New("malformed payload"), KindPermanent},
	}
	for _, tc := range cases {
		got := classify("list", tc.err)
		assert.Equal(t, tc.kind, got.Kind, "error %v", tc.err)
	}
}
