package actions

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/availability"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	tz       = time.FixedZone("MYT", 8*60*60)
	now      = time.Date(2030, 5, 1, 8, 0, 0, 0, tz)
	tomorrow = "2030-05-02"
)

type env struct {
	reg    *Registry
	ledger *ledger.Ledger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvAt(t, now)
}

func newEnvAt(t *testing.T, now time.Time) *env {
	t.Helper()
	catalog := repository.NewMemoryCatalog(repository.SeedResources())
	l := ledger.New(repository.NewMemoryStore(), catalog, zap.NewNop(),
		ledger.WithClock(func() time.Time { return now }))
	p := availability.NewProjector(catalog, l, availability.Hours{Open: 9, Close: 21, SlotMinutes: 60, Location: tz})
	return &env{reg: NewRegistry(catalog, l, p, "RM", zap.NewNop()), ledger: l}
}

func call(name string, args map[string]any) Call {
	return Call{ID: "c1", Name: name, Args: args}
}

func TestDecode(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		a, err := Decode(NameSearch, map[string]any{"space_type": "meeting_room", "min_capacity": float64(6)})
		require.NoError(t, err)
		assert.Equal(t, Search{SpaceType: "meeting_room", MinCapacity: 6}, a)
	})

	t.Run("list mine defaults to upcoming", func(t *testing.T) {
		a, err := Decode(NameListMine, nil)
		require.NoError(t, err)
		assert.True(t, a.(ListMine).Upcoming())

		a, err = Decode(NameListMine, map[string]any{"upcoming_only": false})
		require.NoError(t, err)
		assert.False(t, a.(ListMine).Upcoming())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Decode("book_flight", nil)
		assert.ErrorIs(t, err, ErrUnknownAction)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := Decode(NameSearch, map[string]any{"space_type": "broom_closet"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "space_type")

		_, err = Decode(NameCheckAvailability, map[string]any{"check_date": tomorrow})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "space_id is required")

		_, err = Decode(NameCancel, map[string]any{"booking_id": 12})
		assert.Error(t, err)
	})
}

func TestCatalogMatchesDecode(t *testing.T) {
	e := newEnv(t)
	specs := e.reg.Catalog()
	require.Len(t, specs, 5)
	for _, s := range specs {
		_, err := Decode(s.Name, nil)
		assert.NotErrorIs(t, err, ErrUnknownAction, s.Name)
	}
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	out := e.reg.Execute(ctx, nil, call(NameSearch, map[string]any{"space_type": "hot_desk"}))
	assert.Contains(t, out, "Found 2 space(s)")
	assert.Contains(t, out, "**Hot Desk Zone A** (ID: 3)")
	assert.Contains(t, out, "Type: Hot Desk")
	assert.Contains(t, out, "Capacity: 1 person")
	assert.Contains(t, out, "Price: RM15.00/hour, RM80.00/day")

	out = e.reg.Execute(ctx, nil, call(NameSearch, map[string]any{"min_capacity": 500}))
	assert.Equal(t, "No spaces found matching your criteria. Try adjusting your filters.", out)
}

func TestAnonymousCannotWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	out := e.reg.Execute(ctx, nil, call(NameCreateReservation, map[string]any{
		"space_id": 1, "booking_date": tomorrow, "start_hour": 10, "end_hour": 12,
	}))
	assert.Equal(t, "You need to be logged in to create a booking. Please sign in first.", out)

	day := time.Date(2030, 5, 2, 0, 0, 0, 0, tz)
	live, err := e.ledger.ReservationsBetween(ctx, 1, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, live)

	assert.Equal(t, "You need to be logged in to view your bookings. Please sign in first.",
		e.reg.Execute(ctx, nil, call(NameListMine, nil)))
	assert.Equal(t, "You need to be logged in to cancel a booking. Please sign in first.",
		e.reg.Execute(ctx, nil, call(NameCancel, map[string]any{"booking_id": "x"})))
}

func TestBookingFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := &model.Actor{ID: 1, Active: true}
	bob := &model.Actor{ID: 2, Active: true}

	out := e.reg.Execute(ctx, alice, call(NameCreateReservation, map[string]any{
		"space_id": 1, "booking_date": tomorrow, "start_hour": 10, "end_hour": 12, "notes": "planning",
	}))
	assert.Contains(t, out, "Booking confirmed!")
	assert.Contains(t, out, "- Space: Private Office A1")
	assert.Contains(t, out, "- Time: 10:00 - 12:00 (2 hours)")
	assert.Contains(t, out, "- Total: RM100.00")

	out = e.reg.Execute(ctx, bob, call(NameCreateReservation, map[string]any{
		"space_id": 1, "booking_date": tomorrow, "start_hour": 11, "end_hour": 13,
	}))
	assert.Equal(t, "Sorry, this time slot is already booked. Please check availability and choose a different time.", out)

	out = e.reg.Execute(ctx, nil, call(NameCheckAvailability, map[string]any{"space_id": 1, "check_date": tomorrow}))
	assert.Contains(t, out, "Availability for **Private Office A1** on 2030-05-02")
	assert.Contains(t, out, "  - 09:00 - 10:00\n")
	assert.Contains(t, out, "  - 12:00 - 13:00\n")
	assert.Contains(t, out, "Booked slots: 10:00 - 11:00, 11:00 - 12:00")
	assert.Contains(t, out, "Price: RM50.00/hour")

	mine, err := e.ledger.ListForActor(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	id := mine[0].ID

	out = e.reg.Execute(ctx, alice, call(NameListMine, nil))
	assert.Contains(t, out, "Your upcoming bookings:")
	assert.Contains(t, out, "**Booking #"+id+"** - Confirmed")
	assert.Contains(t, out, "Time: 10:00 - 12:00")

	out = e.reg.Execute(ctx, bob, call(NameCancel, map[string]any{"booking_id": id}))
	assert.Equal(t, "You can only cancel your own bookings.", out)

	out = e.reg.Execute(ctx, alice, call(NameCancel, map[string]any{"booking_id": id}))
	assert.Equal(t, "Booking #"+id+" has been cancelled successfully.", out)

	out = e.reg.Execute(ctx, alice, call(NameCancel, map[string]any{"booking_id": id}))
	assert.Equal(t, "Booking #"+id+" is already cancelled.", out)

	out = e.reg.Execute(ctx, bob, call(NameListMine, nil))
	assert.Equal(t, "You don't have any upcoming bookings.", out)
	out = e.reg.Execute(ctx, bob, call(NameListMine, map[string]any{"upcoming_only": false}))
	assert.Equal(t, "You don't have any bookings yet.", out)
}

func TestCreateReservationRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	actor := &model.Actor{ID: 1, Active: true}

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"unknown space", map[string]any{"space_id": 404, "booking_date": tomorrow, "start_hour": 10, "end_hour": 11},
			"Space with ID 404 not found."},
		{"bad date", map[string]any{"space_id": 1, "booking_date": "tomorrow", "start_hour": 10, "end_hour": 11},
			"Invalid date format. Please use YYYY-MM-DD format."},
		{"past date", map[string]any{"space_id": 1, "booking_date": "2030-04-30", "start_hour": 10, "end_hour": 11},
			"Cannot book for past dates."},
		{"before opening", map[string]any{"space_id": 1, "booking_date": tomorrow, "start_hour": 8, "end_hour": 11},
			"Invalid time range. Hours must be between 9 (9 AM) and 21 (9 PM), and start must be before end."},
		{"reversed", map[string]any{"space_id": 1, "booking_date": tomorrow, "start_hour": 12, "end_hour": 11},
			"Invalid time range. Hours must be between 9 (9 AM) and 21 (9 PM), and start must be before end."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.reg.Execute(ctx, actor, call(NameCreateReservation, tt.args)))
		})
	}
}

func TestCreateReservationEarlierToday(t *testing.T) {
	e := newEnvAt(t, time.Date(2030, 5, 1, 15, 30, 0, 0, tz))
	out := e.reg.Execute(context.Background(), &model.Actor{ID: 1, Active: true}, call(NameCreateReservation, map[string]any{
		"space_id": 1, "booking_date": "2030-05-01", "start_hour": 15, "end_hour": 17,
	}))
	assert.Equal(t, "That time has already passed. Please choose a later time.", out)
}

func TestCheckAvailabilityRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.Equal(t, "Cannot check availability for past dates.",
		e.reg.Execute(ctx, nil, call(NameCheckAvailability, map[string]any{"space_id": 1, "check_date": "2030-04-01"})))
	assert.Equal(t, "Space with ID 99 not found.",
		e.reg.Execute(ctx, nil, call(NameCheckAvailability, map[string]any{"space_id": 99, "check_date": tomorrow})))
}

func TestExecuteRendersDecodeFailures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	out := e.reg.Execute(ctx, nil, call("book_flight", nil))
	assert.Contains(t, out, `Unknown action "book_flight"`)
	assert.Contains(t, out, NameSearch)

	out = e.reg.Execute(ctx, nil, call(NameCheckAvailability, map[string]any{"space_id": "one"}))
	assert.Contains(t, out, "Invalid arguments for check_availability")
}

func TestCheckAvailabilityInactiveSpace(t *testing.T) {
	ctx := context.Background()
	args := map[string]any{"space_id": 2, "check_date": tomorrow}
	want := "This space is currently not available for booking."

	inactive := repository.SeedResources()
	inactive[1].IsActive = false
	current := repository.NewMemoryCatalog(inactive)
	l := ledger.New(repository.NewMemoryStore(), current, zap.NewNop(),
		ledger.WithClock(func() time.Time { return now }))
	hours := availability.Hours{Open: 9, Close: 21, SlotMinutes: 60, Location: tz}

	t.Run("catalog knows", func(t *testing.T) {
		reg := NewRegistry(current, l, availability.NewProjector(current, l, hours), "RM", zap.NewNop())
		assert.Equal(t, want, reg.Execute(ctx, nil, call(NameCheckAvailability, args)))
	})

	t.Run("stale catalog, projector knows", func(t *testing.T) {
		stale := repository.NewMemoryCatalog(repository.SeedResources())
		reg := NewRegistry(stale, l, availability.NewProjector(current, l, hours), "RM", zap.NewNop())
		assert.Equal(t, want, reg.Execute(ctx, nil, call(NameCheckAvailability, args)))
	})
}
