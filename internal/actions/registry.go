package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/availability"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"go.uber.org/zap"
)

// Catalog is the resource lookup the registry needs.
type Catalog interface {
	Get(ctx context.Context, id int64) (*model.Resource, error)
	ListActive(ctx context.Context, f model.ResourceFilter) ([]model.Resource, error)
}

// Ledger is the subset of *ledger.Ledger the registry drives.
type Ledger interface {
	Create(ctx context.Context, in ledger.CreateInput) (*model.Reservation, error)
	Cancel(ctx context.Context, reservationID string, actorID int64, isAdmin bool) (*model.Reservation, error)
	ListForActor(ctx context.Context, actorID int64, upcomingOnly bool) ([]model.Reservation, error)
	Now() time.Time
}

// Projector is the availability source.
type Projector interface {
	Project(ctx context.Context, resourceID int64, day time.Time) (*model.DayAvailability, error)
	Hours() availability.Hours
}

// Registry executes actions on behalf of an actor.
type Registry struct {
	catalog   Catalog
	ledger    Ledger
	projector Projector
	currency  string
	log       *zap.Logger
}

// NewRegistry constructs a Registry. currency labels every price.
func NewRegistry(catalog Catalog, l Ledger, projector Projector, currency string, log *zap.Logger) *Registry {
	return &Registry{catalog: catalog, ledger: l, projector: projector, currency: currency, log: log}
}

// outcome labels for metrics.
const (
	outcomeOK              = "ok"
	outcomeFailed          = "failed"
	outcomeUnauthenticated = "unauthenticated"
	outcomeInvalid         = "invalid"
)

// Execute runs call for actor (nil for anonymous) and returns the text to
// feed back to the reasoning service. It never fails: every error becomes
// an explanation.
func (r *Registry) Execute(ctx context.Context, actor *model.Actor, call Call) string {
	action, err := Decode(call.Name, call.Args)
	if err != nil {
		metrics.IncAction(call.Name, outcomeInvalid)
		r.log.Debug("action rejected", zap.String("action", call.Name), zap.Error(err))
		if errors.Is(err, ErrUnknownAction) {
			return fmt.Sprintf("Unknown action %q. Available actions: %s.", call.Name, strings.Join(names(), ", "))
		}
		return fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err)
	}

	var text, outcome string
	switch a := action.(type) {
	case Search:
		text, outcome = r.search(ctx, a)
	case CheckAvailability:
		text, outcome = r.checkAvailability(ctx, a)
	case CreateReservation:
		text, outcome = r.createReservation(ctx, actor, a)
	case ListMine:
		text, outcome = r.listMine(ctx, actor, a)
	case Cancel:
		text, outcome = r.cancel(ctx, actor, a)
	}
	metrics.IncAction(action.Name(), outcome)
	return text
}

func (r *Registry) search(ctx context.Context, a Search) (string, string) {
	list, err := r.catalog.ListActive(ctx, model.ResourceFilter{
		Kind:        model.ResourceKind(a.SpaceType),
		Location:    a.Location,
		MinCapacity: a.MinCapacity,
		MaxPrice:    a.MaxPricePerHour,
	})
	if err != nil {
		r.log.Error("search spaces", zap.Error(err))
		return "Something went wrong while searching for spaces. Please try again.", outcomeFailed
	}
	if len(list) == 0 {
		return "No spaces found matching your criteria. Try adjusting your filters.", outcomeOK
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d space(s):\n\n", len(list))
	for _, s := range list {
		fmt.Fprintf(&b, "- **%s** (ID: %d)\n", s.Name, s.ID)
		fmt.Fprintf(&b, "  Type: %s\n", kindLabel(s.Kind))
		fmt.Fprintf(&b, "  Location: %s", s.Location)
		if s.Floor != "" {
			fmt.Fprintf(&b, ", %s", s.Floor)
		}
		people := "people"
		if s.Capacity == 1 {
			people = "person"
		}
		fmt.Fprintf(&b, "\n  Capacity: %d %s\n", s.Capacity, people)
		fmt.Fprintf(&b, "  Price: %s/hour", r.money(s.PricePerHour))
		if s.PricePerDay != nil {
			fmt.Fprintf(&b, ", %s/day", r.money(*s.PricePerDay))
		}
		b.WriteString("\n\n")
	}
	return b.String(), outcomeOK
}

func (r *Registry) checkAvailability(ctx context.Context, a CheckAvailability) (string, string) {
	hours := r.projector.Hours()
	space, err := r.catalog.Get(ctx, a.SpaceID)
	if err != nil {
		return r.lookupFailure(a.SpaceID, err)
	}
	if !space.IsActive {
		return "This space is currently not available for booking.", outcomeFailed
	}
	day, err := availability.ParseDay(a.CheckDate, hours.Location)
	if err != nil {
		return "Invalid date format. Please use YYYY-MM-DD format.", outcomeFailed
	}

	grid, err := r.projector.Project(ctx, a.SpaceID, day)
	switch {
	case errors.Is(err, model.ErrDayNotCheckable):
		return "Cannot check availability for past dates.", outcomeFailed
	case errors.Is(err, model.ErrNotFound):
		return fmt.Sprintf("Space with ID %d not found.", a.SpaceID), outcomeFailed
	case errors.Is(err, model.ErrInactiveResource):
		return "This space is currently not available for booking.", outcomeFailed
	case err != nil:
		r.log.Error("project availability", zap.Int64("space_id", a.SpaceID), zap.Error(err))
		return "Something went wrong while checking availability. Please try again.", outcomeFailed
	}

	var free, busy []string
	for _, s := range grid.Slots {
		label := s.Start.In(hours.Location).Format("15:04") + " - " + s.End.In(hours.Location).Format("15:04")
		if s.IsFree {
			free = append(free, label)
		} else {
			busy = append(busy, label)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Availability for **%s** on %s:\n\n", space.Name, grid.Date)
	if len(free) > 0 {
		b.WriteString("Available slots:\n")
		for _, s := range free {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	} else {
		b.WriteString("No available slots on this date.\n")
	}
	if len(busy) > 0 {
		fmt.Fprintf(&b, "\nBooked slots: %s", strings.Join(busy, ", "))
	}
	fmt.Fprintf(&b, "\n\nPrice: %s/hour", r.money(space.PricePerHour))
	return b.String(), outcomeOK
}

func (r *Registry) createReservation(ctx context.Context, actor *model.Actor, a CreateReservation) (string, string) {
	if actor == nil {
		return "You need to be logged in to create a booking. Please sign in first.", outcomeUnauthenticated
	}

	hours := r.projector.Hours()
	space, err := r.catalog.Get(ctx, a.SpaceID)
	if err != nil {
		return r.lookupFailure(a.SpaceID, err)
	}
	if !space.IsActive {
		return "This space is currently not available for booking.", outcomeFailed
	}
	day, err := availability.ParseDay(a.BookingDate, hours.Location)
	if err != nil {
		return "Invalid date format. Please use YYYY-MM-DD format.", outcomeFailed
	}
	ty, tm, td := r.ledger.Now().In(hours.Location).Date()
	if day.Before(time.Date(ty, tm, td, 0, 0, 0, 0, hours.Location)) {
		return "Cannot book for past dates.", outcomeFailed
	}
	if a.StartHour < hours.Open || a.EndHour > hours.Close || a.StartHour >= a.EndHour {
		return fmt.Sprintf("Invalid time range. Hours must be between %d (%s) and %d (%s), and start must be before end.",
			hours.Open, availability.HourLabel(hours.Open), hours.Close, availability.HourLabel(hours.Close)), outcomeFailed
	}

	y, m, d := day.Date()
	start := time.Date(y, m, d, a.StartHour, 0, 0, 0, hours.Location)
	end := time.Date(y, m, d, a.EndHour, 0, 0, 0, hours.Location)
	res, err := r.ledger.Create(ctx, ledger.CreateInput{
		ResourceID: space.ID,
		ActorID:    actor.ID,
		Start:      start,
		End:        end,
		Note:       a.Notes,
	})
	switch {
	case errors.Is(err, model.ErrConflict):
		return "Sorry, this time slot is already booked. Please check availability and choose a different time.", outcomeFailed
	case errors.Is(err, model.ErrInactiveResource):
		return "This space is currently not available for booking.", outcomeFailed
	case errors.Is(err, model.ErrNotFound):
		return fmt.Sprintf("Space with ID %d not found.", a.SpaceID), outcomeFailed
	case errors.Is(err, model.ErrInvalidRange):
		return "That time has already passed. Please choose a later time.", outcomeFailed
	case err != nil:
		r.log.Error("create booking", zap.Int64("space_id", a.SpaceID), zap.Error(err))
		return "Something went wrong while creating the booking. Please try again.", outcomeFailed
	}

	n := a.EndHour - a.StartHour
	plural := ""
	if n > 1 {
		plural = "s"
	}
	var b strings.Builder
	b.WriteString("Booking confirmed!\n\n")
	b.WriteString("**Booking Details:**\n")
	fmt.Fprintf(&b, "- Booking ID: #%s\n", res.ID)
	fmt.Fprintf(&b, "- Space: %s\n", space.Name)
	fmt.Fprintf(&b, "- Location: %s\n", space.Location)
	fmt.Fprintf(&b, "- Date: %s\n", day.Format(availability.DateLayout))
	fmt.Fprintf(&b, "- Time: %02d:00 - %02d:00 (%d hour%s)\n", a.StartHour, a.EndHour, n, plural)
	fmt.Fprintf(&b, "- Total: %s\n\n", r.money(res.TotalPrice))
	b.WriteString("You can view this booking in your 'My Bookings' page.")
	return b.String(), outcomeOK
}

func (r *Registry) listMine(ctx context.Context, actor *model.Actor, a ListMine) (string, string) {
	if actor == nil {
		return "You need to be logged in to view your bookings. Please sign in first.", outcomeUnauthenticated
	}

	upcoming := a.Upcoming()
	list, err := r.ledger.ListForActor(ctx, actor.ID, upcoming)
	if err != nil {
		r.log.Error("list bookings", zap.Int64("actor_id", actor.ID), zap.Error(err))
		return "Something went wrong while loading your bookings. Please try again.", outcomeFailed
	}
	if len(list) == 0 {
		if upcoming {
			return "You don't have any upcoming bookings.", outcomeOK
		}
		return "You don't have any bookings yet.", outcomeOK
	}

	loc := r.projector.Hours().Location
	spaceNames := make(map[int64]string)
	var b strings.Builder
	if upcoming {
		b.WriteString("Your upcoming bookings:\n\n")
	} else {
		b.WriteString("Your bookings:\n\n")
	}
	for _, res := range list {
		name, ok := spaceNames[res.ResourceID]
		if !ok {
			name = fmt.Sprintf("Space #%d", res.ResourceID)
			if space, err := r.catalog.Get(ctx, res.ResourceID); err == nil {
				name = space.Name
			}
			spaceNames[res.ResourceID] = name
		}
		start, end := res.Start.In(loc), res.End.In(loc)
		fmt.Fprintf(&b, "- **Booking #%s** - %s\n", res.ID, statusLabel(res.Status))
		fmt.Fprintf(&b, "  Space: %s\n", name)
		fmt.Fprintf(&b, "  Date: %s\n", start.Format(availability.DateLayout))
		fmt.Fprintf(&b, "  Time: %s - %s\n", start.Format("15:04"), end.Format("15:04"))
		fmt.Fprintf(&b, "  Total: %s\n\n", r.money(res.TotalPrice))
	}
	return b.String(), outcomeOK
}

func (r *Registry) cancel(ctx context.Context, actor *model.Actor, a Cancel) (string, string) {
	if actor == nil {
		return "You need to be logged in to cancel a booking. Please sign in first.", outcomeUnauthenticated
	}

	_, err := r.ledger.Cancel(ctx, a.BookingID, actor.ID, actor.IsAdmin)
	switch {
	case err == nil:
		return fmt.Sprintf("Booking #%s has been cancelled successfully.", a.BookingID), outcomeOK
	case errors.Is(err, model.ErrNotFound):
		return fmt.Sprintf("Booking #%s not found.", a.BookingID), outcomeFailed
	case errors.Is(err, model.ErrForbidden):
		return "You can only cancel your own bookings.", outcomeFailed
	case errors.Is(err, model.ErrAlreadyCancelled):
		return fmt.Sprintf("Booking #%s is already cancelled.", a.BookingID), outcomeFailed
	case errors.Is(err, model.ErrAlreadyStarted):
		return "Cannot cancel a booking that has already started or passed.", outcomeFailed
	case errors.Is(err, model.ErrAlreadyTerminal):
		return fmt.Sprintf("Booking #%s has already been completed and can no longer be cancelled.", a.BookingID), outcomeFailed
	default:
		r.log.Error("cancel booking", zap.String("booking_id", a.BookingID), zap.Error(err))
		return "Something went wrong while cancelling the booking. Please try again.", outcomeFailed
	}
}

func (r *Registry) lookupFailure(id int64, err error) (string, string) {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Sprintf("Space with ID %d not found.", id), outcomeFailed
	}
	r.log.Error("load space", zap.Int64("space_id", id), zap.Error(err))
	return "Something went wrong while loading that space. Please try again.", outcomeFailed
}

func (r *Registry) money(v float64) string {
	return fmt.Sprintf("%s%.2f", r.currency, v)
}

var kindLabels = map[model.ResourceKind]string{
	model.KindHotDesk:       "Hot Desk",
	model.KindPrivateOffice: "Private Office",
	model.KindMeetingRoom:   "Meeting Room",
	model.KindEventSpace:    "Event Space",
	model.KindPhoneBooth:    "Phone Booth",
}

func kindLabel(k model.ResourceKind) string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

func statusLabel(s model.ReservationStatus) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
