package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// exclusion_violation, raised by the reservations_no_overlap constraint.
const pgExclusionViolation = "23P01"

const reservationColumns = `id, resource_id, actor_id, start_time, end_time, status,
	total_price::float8, notes, created_at, updated_at`

// ReservationRepository is the Postgres ledger.Store.
type ReservationRepository struct {
	pool *pgxpool.Pool
	db   dbtx
	inTx bool
}

var _ ledger.Store = (*ReservationRepository)(nil)

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool, db: pool}
}

// WithResourceLock runs fn inside a transaction holding a row lock on the
// resource.
//
// SELECT … FOR UPDATE on the resources row blocks every other transaction
// that tries to lock the same resource until this one commits or rolls back,
// so the overlap check and the insert (or the cancel) in fn cannot interleave
// with another writer on that resource. Writers on other resources are not
// blocked.
func (r *ReservationRepository) WithResourceLock(ctx context.Context, resourceID int64, fn func(ctx context.Context, tx ledger.Store) error) (err error) {
	if r.inTx {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var id int64
	err = tx.QueryRow(ctx, `SELECT id FROM resources WHERE id = $1 FOR UPDATE`, resourceID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock resource row: %w", err)
	}

	if err = fn(ctx, &ReservationRepository{pool: r.pool, db: tx, inTx: true}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Overlapping implements ledger.Store.
func (r *ReservationRepository) Overlapping(ctx context.Context, resourceID int64, start, end time.Time, excludeID string) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE resource_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND start_time < $3
		   AND end_time > $2
		   AND ($4 = '' OR id <> $4)
		 ORDER BY start_time ASC`,
		resourceID, start, end, excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query overlapping: %w", err)
	}
	return collectReservations(rows)
}

// Insert implements ledger.Store.
func (r *ReservationRepository) Insert(ctx context.Context, res *model.Reservation) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO reservations
		   (id, resource_id, actor_id, start_time, end_time, status, total_price, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.ResourceID, res.ActorID, res.Start, res.End, string(res.Status),
		res.TotalPrice, res.Note, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return model.ErrConflict
		}
		return err
	}
	return nil
}

// Get implements ledger.Store.
func (r *ReservationRepository) Get(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// UpdateStatus implements ledger.Store.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus, at time.Time) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`UPDATE reservations SET status = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING `+reservationColumns,
		id, string(status), at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("update reservation status: %w", err)
	}
	return res, nil
}

// UpdateNote implements ledger.Store.
func (r *ReservationRepository) UpdateNote(ctx context.Context, id string, note string, at time.Time) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`UPDATE reservations SET notes = NULLIF($2, ''), updated_at = $3
		 WHERE id = $1
		 RETURNING `+reservationColumns,
		id, note, at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("update reservation notes: %w", err)
	}
	return res, nil
}

// List implements ledger.Store.
func (r *ReservationRepository) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.ResourceID != 0 {
		add("resource_id = $%d", f.ResourceID)
	}
	if f.ActorID != 0 {
		add("actor_id = $%d", f.ActorID)
	}
	if !f.From.IsZero() {
		add("start_time >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("start_time < $%d", f.To)
	}

	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY start_time DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collectReservations(rows)
}

// ListByActor implements ledger.Store.
func (r *ReservationRepository) ListByActor(ctx context.Context, actorID int64, since time.Time) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE actor_id = $1 AND start_time >= $2
		 ORDER BY start_time ASC`,
		actorID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations by actor: %w", err)
	}
	return collectReservations(rows)
}

// CompleteEnded implements ledger.Store.
func (r *ReservationRepository) CompleteEnded(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations SET status = 'completed', updated_at = $1
		 WHERE status IN ('pending', 'confirmed') AND end_time <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("complete ended: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var (
		res    model.Reservation
		status string
		notes  *string
	)
	err := row.Scan(&res.ID, &res.ResourceID, &res.ActorID, &res.Start, &res.End, &status,
		&res.TotalPrice, &notes, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	if notes != nil {
		res.Note = *notes
	}
	return &res, nil
}
