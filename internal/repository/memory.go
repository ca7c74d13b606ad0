package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
)

// MemoryCatalog is an immutable in-process resource catalog.
type MemoryCatalog struct {
	byID  map[int64]model.Resource
	order []int64
}

// NewMemoryCatalog constructs a catalog holding resources.
func NewMemoryCatalog(resources []model.Resource) *MemoryCatalog {
	c := &MemoryCatalog{byID: make(map[int64]model.Resource, len(resources))}
	for _, r := range resources {
		c.byID[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	return c
}

// Get returns the resource with id, active or not.
func (c *MemoryCatalog) Get(_ context.Context, id int64) (*model.Resource, error) {
	r, ok := c.byID[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

// ListActive returns active resources matching f, cheapest first.
func (c *MemoryCatalog) ListActive(_ context.Context, f model.ResourceFilter) ([]model.Resource, error) {
	var out []model.Resource
	for _, id := range c.order {
		r := c.byID[id]
		if !r.IsActive {
			continue
		}
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(r.Location), strings.ToLower(f.Location)) {
			continue
		}
		if f.MinCapacity > 0 && r.Capacity < f.MinCapacity {
			continue
		}
		if f.MaxPrice > 0 && r.PricePerHour > f.MaxPrice {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PricePerHour < out[j].PricePerHour })
	return out, nil
}

// MemoryStore is an in-process ledger.Store. Writers on one resource are
// serialised by a per-resource semaphore that a waiter can abandon when its
// context ends; the record map has its own lock.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations map[string]model.Reservation

	locksMu sync.Mutex
	locks   map[int64]chan struct{}
}

var _ ledger.Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reservations: make(map[string]model.Reservation),
		locks:        make(map[int64]chan struct{}),
	}
}

func (s *MemoryStore) resourceLock(id int64) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// WithResourceLock implements ledger.Store. Waiting for the lock ends with
// ctx.Err() if ctx is done first.
func (s *MemoryStore) WithResourceLock(ctx context.Context, resourceID int64, fn func(ctx context.Context, tx ledger.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.resourceLock(resourceID)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l }()
	return fn(ctx, s)
}

// Overlapping implements ledger.Store.
func (s *MemoryStore) Overlapping(_ context.Context, resourceID int64, start, end time.Time, excludeID string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Reservation
	for _, r := range s.reservations {
		if r.ResourceID != resourceID || !r.Status.Live() || r.ID == excludeID {
			continue
		}
		if r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	sortByStart(out)
	return out, nil
}

// Insert implements ledger.Store.
func (s *MemoryStore) Insert(_ context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = *r
	return nil
}

// Get implements ledger.Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

// UpdateStatus implements ledger.Store.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.ReservationStatus, at time.Time) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	s.reservations[id] = r
	return &r, nil
}

// UpdateNote implements ledger.Store.
func (s *MemoryStore) UpdateNote(_ context.Context, id string, note string, at time.Time) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	r.Note = note
	r.UpdatedAt = at
	s.reservations[id] = r
	return &r, nil
}

// List implements ledger.Store.
func (s *MemoryStore) List(_ context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Reservation
	for _, r := range s.reservations {
		if f.Match(&r) {
			out = append(out, r)
		}
	}
	sortByStart(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ListByActor implements ledger.Store.
func (s *MemoryStore) ListByActor(_ context.Context, actorID int64, since time.Time) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Reservation
	for _, r := range s.reservations {
		if r.ActorID == actorID && !r.Start.Before(since) {
			out = append(out, r)
		}
	}
	sortByStart(out)
	return out, nil
}

// CompleteEnded implements ledger.Store.
func (s *MemoryStore) CompleteEnded(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, r := range s.reservations {
		if r.Status.Live() && !r.End.After(now) {
			r.Status = model.StatusCompleted
			r.UpdatedAt = now
			s.reservations[id] = r
			n++
		}
	}
	return n, nil
}

func sortByStart(list []model.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Start.Equal(list[j].Start) {
			return list[i].ID < list[j].ID
		}
		return list[i].Start.Before(list[j].Start)
	})
}
