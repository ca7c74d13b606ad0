// Package availability projects a resource's reservations onto a day's
// fixed-width slot grid.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
)

// DateLayout is the calendar-day format accepted and returned by the projector.
const DateLayout = "2006-01-02"

// Catalog resolves resources.
type Catalog interface {
	Get(ctx context.Context, id int64) (*model.Resource, error)
}

// Reservations lists live reservations overlapping a window.
type Reservations interface {
	ReservationsBetween(ctx context.Context, resourceID int64, from, to time.Time) ([]model.Reservation, error)
	Now() time.Time
}

// Hours is the daily operating window, uniform across resources.
type Hours struct {
	Open        int
	Close       int
	SlotMinutes int
	Location    *time.Location
}

// Window returns the operating window of the calendar day containing day,
// in h.Location.
func (h Hours) Window(day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(h.Location).Date()
	return time.Date(y, m, d, h.Open, 0, 0, 0, h.Location),
		time.Date(y, m, d, h.Close, 0, 0, 0, h.Location)
}

// Projector derives availability on demand. It holds no state between calls.
type Projector struct {
	catalog      Catalog
	reservations Reservations
	hours        Hours
}

// NewProjector constructs a Projector.
func NewProjector(catalog Catalog, reservations Reservations, hours Hours) *Projector {
	return &Projector{catalog: catalog, reservations: reservations, hours: hours}
}

// Hours returns the operating window configuration.
func (p *Projector) Hours() Hours { return p.hours }

// Project returns the slot grid of resourceID for the calendar day of day.
// Days before today yield model.ErrDayNotCheckable; inactive resources
// yield model.ErrInactiveResource.
func (p *Projector) Project(ctx context.Context, resourceID int64, day time.Time) (*model.DayAvailability, error) {
	resource, err := p.catalog.Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !resource.IsActive {
		return nil, model.ErrInactiveResource
	}

	loc := p.hours.Location
	y, m, d := day.In(loc).Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, loc)
	ty, tm, td := p.reservations.Now().In(loc).Date()
	if date.Before(time.Date(ty, tm, td, 0, 0, 0, 0, loc)) {
		return nil, model.ErrDayNotCheckable
	}

	from, to := p.hours.Window(date)
	live, err := p.reservations.ReservationsBetween(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	return &model.DayAvailability{
		ResourceID: resourceID,
		Date:       date.Format(DateLayout),
		Slots:      BuildSlots(from, to, time.Duration(p.hours.SlotMinutes)*time.Minute, live),
	}, nil
}

// BuildSlots cuts [from, to) into width-sized slots. A slot is free iff no
// reservation in live overlaps it. A trailing partial slot is dropped.
func BuildSlots(from, to time.Time, width time.Duration, live []model.Reservation) []model.Slot {
	if width <= 0 {
		return nil
	}
	var slots []model.Slot
	for start := from; !start.Add(width).After(to); start = start.Add(width) {
		end := start.Add(width)
		free := true
		for i := range live {
			if live[i].Status.Live() && live[i].Overlaps(start, end) {
				free = false
				break
			}
		}
		slots = append(slots, model.Slot{Start: start, End: end, IsFree: free})
	}
	return slots
}

// ParseDay parses a YYYY-MM-DD calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", model.ErrInvalidRange)
	}
	return d, nil
}

// HourLabel renders an hour of the day as "9 AM" or "9 PM".
func HourLabel(h int) string {
	switch {
	case h == 0 || h == 24:
		return "12 AM"
	case h == 12:
		return "12 PM"
	case h > 12:
		return fmt.Sprintf("%d PM", h-12)
	default:
		return fmt.Sprintf("%d AM", h)
	}
}
