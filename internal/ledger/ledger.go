// Package ledger owns reservation records and enforces that live reservations
// on one resource never overlap.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog is the read-only view of bookable resources the ledger needs. It
// must be the authoritative source, not a cache: the active flag is checked
// again under the resource lock.
type Catalog interface {
	Get(ctx context.Context, id int64) (*model.Resource, error)
}

// Store persists reservations.
//
// WithResourceLock runs fn with exclusive access to the reservations of one
// resource; any Store calls made through the tx argument observe and extend
// the same unit of work. Every check-then-write sequence on a resource must
// happen inside it.
type Store interface {
	WithResourceLock(ctx context.Context, resourceID int64, fn func(ctx context.Context, tx Store) error) error

	// Overlapping returns live reservations on resourceID intersecting
	// [start, end), ordered by start, skipping excludeID when non-empty.
	Overlapping(ctx context.Context, resourceID int64, start, end time.Time, excludeID string) ([]model.Reservation, error)
	Insert(ctx context.Context, r *model.Reservation) error
	Get(ctx context.Context, id string) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status model.ReservationStatus, at time.Time) (*model.Reservation, error)
	UpdateNote(ctx context.Context, id string, note string, at time.Time) (*model.Reservation, error)
	// List returns reservations matching f, latest start first, paged by
	// f.Limit and f.Offset. A zero Limit means no limit.
	List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error)
	// ListByActor returns the actor's reservations starting at or after
	// since (zero since means all), ordered by start ascending.
	ListByActor(ctx context.Context, actorID int64, since time.Time) ([]model.Reservation, error)
	// CompleteEnded marks live reservations with end <= now as completed.
	CompleteEnded(ctx context.Context, now time.Time) (int, error)
}

// Ledger is the reservation engine.
type Ledger struct {
	store   Store
	catalog Catalog
	now     func() time.Time
	log     *zap.Logger
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the ledger's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New constructs a Ledger.
func New(store Store, catalog Catalog, log *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:   store,
		catalog: catalog,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the ledger clock's current time.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// CreateInput describes a reservation request.
type CreateInput struct {
	ResourceID int64
	ActorID    int64
	Start      time.Time
	End        time.Time
	Note       string
}

// Price returns hourly * duration in hours, rounded to cents.
func Price(hourly float64, start, end time.Time) float64 {
	return math.Round(hourly*end.Sub(start).Hours()*100) / 100
}

// IsAvailable reports whether no live reservation on resourceID other than
// excludeID overlaps [start, end).
func (l *Ledger) IsAvailable(ctx context.Context, resourceID int64, start, end time.Time, excludeID string) (bool, error) {
	if !start.Before(end) {
		return false, fmt.Errorf("%w: start must be before end", model.ErrInvalidRange)
	}
	existing, err := l.store.Overlapping(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return len(existing) == 0, nil
}

// Create books [in.Start, in.End) on in.ResourceID for in.ActorID.
//
// The overlap check and the insert run inside Store.WithResourceLock, so two
// concurrent creates for intersecting ranges on the same resource cannot
// both succeed.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	resource, err := l.catalog.Get(ctx, in.ResourceID)
	if err != nil {
		l.countCreate(err)
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("resource %d: %w", in.ResourceID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	if !resource.IsActive {
		l.countCreate(model.ErrInactiveResource)
		return nil, model.ErrInactiveResource
	}
	if !in.Start.Before(in.End) {
		l.countCreate(model.ErrInvalidRange)
		return nil, fmt.Errorf("%w: start must be before end", model.ErrInvalidRange)
	}
	now := l.now()
	if in.Start.Before(now) {
		l.countCreate(model.ErrInvalidRange)
		return nil, fmt.Errorf("%w: start is in the past", model.ErrInvalidRange)
	}

	var created *model.Reservation
	err = l.store.WithResourceLock(ctx, resource.ID, func(ctx context.Context, tx Store) error {
		current, err := l.catalog.Get(ctx, resource.ID)
		if err != nil {
			return fmt.Errorf("reload resource: %w", err)
		}
		if !current.IsActive {
			return model.ErrInactiveResource
		}

		conflicts, err := tx.Overlapping(ctx, resource.ID, in.Start, in.End, "")
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if len(conflicts) > 0 {
			return model.ErrConflict
		}

		r := &model.Reservation{
			ID:         uuid.NewString(),
			ResourceID: resource.ID,
			ActorID:    in.ActorID,
			Start:      in.Start,
			End:        in.End,
			Status:     model.StatusConfirmed,
			TotalPrice: Price(current.PricePerHour, in.Start, in.End),
			Note:       in.Note,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Insert(ctx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		created = r
		return nil
	})
	l.countCreate(err)
	if err != nil {
		return nil, err
	}

	l.log.Info("reservation created",
		zap.String("reservation_id", created.ID),
		zap.Int64("resource_id", created.ResourceID),
		zap.Int64("actor_id", created.ActorID),
		zap.Time("start", created.Start),
		zap.Time("end", created.End),
		zap.Float64("total_price", created.TotalPrice),
	)
	return created, nil
}

// Cancel moves a live reservation to cancelled. Only the owner or an admin
// may cancel, and only while its start has not been reached; the start check
// uses the clock at evaluation time under the resource lock.
func (l *Ledger) Cancel(ctx context.Context, reservationID string, actorID int64, isAdmin bool) (*model.Reservation, error) {
	current, err := l.store.Get(ctx, reservationID)
	if err != nil {
		l.countCancel(err)
		return nil, err
	}
	if current.ActorID != actorID && !isAdmin {
		l.countCancel(model.ErrForbidden)
		return nil, model.ErrForbidden
	}

	var cancelled *model.Reservation
	err = l.store.WithResourceLock(ctx, current.ResourceID, func(ctx context.Context, tx Store) error {
		r, err := tx.Get(ctx, reservationID)
		if err != nil {
			return err
		}
		switch r.Status {
		case model.StatusCancelled:
			return model.ErrAlreadyCancelled
		case model.StatusCompleted:
			return model.ErrAlreadyTerminal
		}
		now := l.now()
		if !now.Before(r.Start) {
			return model.ErrAlreadyStarted
		}
		cancelled, err = tx.UpdateStatus(ctx, reservationID, model.StatusCancelled, now)
		return err
	})
	l.countCancel(err)
	if err != nil {
		return nil, err
	}

	l.log.Info("reservation cancelled",
		zap.String("reservation_id", cancelled.ID),
		zap.Int64("actor_id", actorID),
		zap.Bool("admin", isAdmin && actorID != cancelled.ActorID),
	)
	return cancelled, nil
}

// Amendment is an administrative edit. Nil fields are left unchanged.
type Amendment struct {
	Status *model.ReservationStatus
	Note   *string
}

// Amend applies an administrative edit to a reservation. Only admins may
// amend. A status change must move forward (see
// model.ReservationStatus.CanBecome); setting the current status again is a
// no-op. The price is never recomputed and, unlike Cancel, the start time
// does not restrict the edit.
func (l *Ledger) Amend(ctx context.Context, reservationID string, actorID int64, isAdmin bool, a Amendment) (*model.Reservation, error) {
	if !isAdmin {
		l.countAmend(model.ErrForbidden)
		return nil, model.ErrForbidden
	}
	current, err := l.store.Get(ctx, reservationID)
	if err != nil {
		l.countAmend(err)
		return nil, err
	}

	var amended *model.Reservation
	err = l.store.WithResourceLock(ctx, current.ResourceID, func(ctx context.Context, tx Store) error {
		r, err := tx.Get(ctx, reservationID)
		if err != nil {
			return err
		}
		now := l.now()
		if a.Status != nil && *a.Status != r.Status {
			if !r.Status.Live() {
				return fmt.Errorf("%w: reservation is %s", model.ErrAlreadyTerminal, r.Status)
			}
			if !r.Status.CanBecome(*a.Status) {
				return fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, r.Status, *a.Status)
			}
			if r, err = tx.UpdateStatus(ctx, reservationID, *a.Status, now); err != nil {
				return err
			}
		}
		if a.Note != nil && *a.Note != r.Note {
			if r, err = tx.UpdateNote(ctx, reservationID, *a.Note, now); err != nil {
				return err
			}
		}
		amended = r
		return nil
	})
	l.countAmend(err)
	if err != nil {
		return nil, err
	}

	l.log.Info("reservation amended",
		zap.String("reservation_id", amended.ID),
		zap.Int64("admin_id", actorID),
		zap.String("status", string(amended.Status)),
	)
	return amended, nil
}

// List returns reservations across all actors matching f.
func (l *Ledger) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	list, err := l.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}

// Get returns a reservation visible to the actor.
func (l *Ledger) Get(ctx context.Context, reservationID string, actorID int64, isAdmin bool) (*model.Reservation, error) {
	r, err := l.store.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.ActorID != actorID && !isAdmin {
		return nil, model.ErrForbidden
	}
	return r, nil
}

// ListForActor returns the actor's reservations ordered by start. With
// upcomingOnly, reservations that started before now are omitted.
func (l *Ledger) ListForActor(ctx context.Context, actorID int64, upcomingOnly bool) ([]model.Reservation, error) {
	var since time.Time
	if upcomingOnly {
		since = l.now()
	}
	list, err := l.store.ListByActor(ctx, actorID, since)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}

// ReservationsBetween returns live reservations on resourceID intersecting
// [from, to).
func (l *Ledger) ReservationsBetween(ctx context.Context, resourceID int64, from, to time.Time) ([]model.Reservation, error) {
	list, err := l.store.Overlapping(ctx, resourceID, from, to, "")
	if err != nil {
		return nil, fmt.Errorf("list reservations between: %w", err)
	}
	return list, nil
}

// CompleteEnded marks every live reservation whose end has passed as completed.
func (l *Ledger) CompleteEnded(ctx context.Context) (int, error) {
	n, err := l.store.CompleteEnded(ctx, l.now())
	if err != nil {
		return 0, fmt.Errorf("complete ended reservations: %w", err)
	}
	if n > 0 {
		metrics.AddCompleted(n)
		l.log.Info("reservations completed", zap.Int("count", n))
	}
	return n, nil
}

func (l *Ledger) countCreate(err error) {
	metrics.IncReservation("create", outcome(err))
}

func (l *Ledger) countCancel(err error) {
	metrics.IncReservation("cancel", outcome(err))
}

func (l *Ledger) countAmend(err error) {
	metrics.IncReservation("amend", outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrInactiveResource),
		errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrAlreadyTerminal):
		return "rejected"
	default:
		return "error"
	}
}
