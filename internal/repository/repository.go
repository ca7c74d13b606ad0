// Package repository implements catalog and reservation persistence.
// The Postgres implementations use pgx directly (no ORM); the memory
// implementations back local development and tests.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const resourceColumns = `id, name, type, description, location, floor, capacity,
	price_per_hour::float8, price_per_day::float8, price_per_month::float8, amenities, is_active`

// ResourceRepository reads the resource catalog from Postgres.
type ResourceRepository struct {
	db *pgxpool.Pool
}

// NewResourceRepository constructs a ResourceRepository.
func NewResourceRepository(db *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Get returns a single resource, active or not, or model.ErrNotFound.
func (r *ResourceRepository) Get(ctx context.Context, id int64) (*model.Resource, error) {
	res, err := scanResource(r.db.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return res, nil
}

// ListActive returns active resources matching f, cheapest first.
func (r *ResourceRepository) ListActive(ctx context.Context, f model.ResourceFilter) ([]model.Resource, error) {
	var (
		where = []string{"is_active"}
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("type = $%d", string(f.Kind))
	}
	if f.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", f.Location)
	}
	if f.MinCapacity > 0 {
		add("capacity >= $%d", f.MinCapacity)
	}
	if f.MaxPrice > 0 {
		add("price_per_hour <= $%d", f.MaxPrice)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+resourceColumns+` FROM resources
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY price_per_hour ASC, id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var out []model.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func scanResource(row pgx.Row) (*model.Resource, error) {
	var (
		res                model.Resource
		kind               string
		description, floor *string
	)
	err := row.Scan(&res.ID, &res.Name, &kind, &description, &res.Location, &floor, &res.Capacity,
		&res.PricePerHour, &res.PricePerDay, &res.PricePerMonth, &res.Amenities, &res.IsActive)
	if err != nil {
		return nil, err
	}
	res.Kind = model.ResourceKind(kind)
	if description != nil {
		res.Description = *description
	}
	if floor != nil {
		res.Floor = *floor
	}
	if res.Amenities == nil {
		res.Amenities = []string{}
	}
	return &res, nil
}
