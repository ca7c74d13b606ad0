package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalogListActive(t *testing.T) {
	resources := SeedResources()
	resources = append(resources, model.Resource{
		ID: 99, Name: "Closed Room", Kind: model.KindMeetingRoom, Location: "KL Eco City",
		Capacity: 20, PricePerHour: 1, IsActive: false,
	})
	c := NewMemoryCatalog(resources)
	ctx := context.Background()

	t.Run("all active sorted by price", func(t *testing.T) {
		list, err := c.ListActive(ctx, model.ResourceFilter{})
		require.NoError(t, err)
		require.Len(t, list, 8)
		for i := 1; i < len(list); i++ {
			assert.LessOrEqual(t, list[i-1].PricePerHour, list[i].PricePerHour)
		}
		assert.Equal(t, "Hot Desk Zone A", list[0].Name)
	})

	t.Run("kind and capacity", func(t *testing.T) {
		list, err := c.ListActive(ctx, model.ResourceFilter{Kind: model.KindMeetingRoom, MinCapacity: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Meeting Room - Boardroom", list[0].Name)
	})

	t.Run("location is case-insensitive substring", func(t *testing.T) {
		list, err := c.ListActive(ctx, model.ResourceFilter{Location: "bangsar"})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("max price", func(t *testing.T) {
		list, err := c.ListActive(ctx, model.ResourceFilter{MaxPrice: 20})
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("get returns inactive", func(t *testing.T) {
		r, err := c.Get(ctx, 99)
		require.NoError(t, err)
		assert.False(t, r.IsActive)

		_, err = c.Get(ctx, 1000)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	put := func(id string, resource int64, start, end int, status model.ReservationStatus) {
		require.NoError(t, s.Insert(ctx, &model.Reservation{
			ID: id, ResourceID: resource, ActorID: 7, Start: at(start), End: at(end), Status: status,
		}))
	}
	put("b", 1, 12, 13, model.StatusConfirmed)
	put("a", 1, 10, 12, model.StatusConfirmed)
	put("c", 1, 10, 11, model.StatusCancelled)
	put("d", 2, 10, 12, model.StatusConfirmed)

	got, err := s.Overlapping(ctx, 1, at(9), at(14), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got, err = s.Overlapping(ctx, 1, at(9), at(14), "a")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = s.Overlapping(ctx, 1, at(13), at(14), "")
	require.NoError(t, err)
	assert.Empty(t, got)

	mine, err := s.ListByActor(ctx, 7, at(11))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := s.List(ctx, model.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"b", "d", "c", "a"}, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	page, err := s.List(ctx, model.ReservationFilter{ResourceID: 1, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)
	assert.Equal(t, "a", page[1].ID)

	page, err = s.List(ctx, model.ReservationFilter{Status: model.StatusCancelled})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].ID)

	page, err = s.List(ctx, model.ReservationFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)

	noted, err := s.UpdateNote(ctx, "b", "late checkout", at(1))
	require.NoError(t, err)
	assert.Equal(t, "late checkout", noted.Note)
	assert.Equal(t, at(1), noted.UpdatedAt)
	_, err = s.UpdateNote(ctx, "missing", "x", at(1))
	assert.ErrorIs(t, err, model.ErrNotFound)

	updated, err := s.UpdateStatus(ctx, "a", model.StatusCancelled, at(1))
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, updated.Status)

	n, err := s.CompleteEnded(ctx, at(12))
	require.NoError(t, err)
	assert.Equal(t, 1, n) // only d; a and c are cancelled, b ends at 13

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStoreLockHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithResourceLock(ctx, 1, func(context.Context, ledger.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemoryStoreLockWaiterGivesUp(t *testing.T) {
	s := NewMemoryStore()
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithResourceLock(context.Background(), 1, func(context.Context, ledger.Store) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	called := false
	err := s.WithResourceLock(ctx, 1, func(context.Context, ledger.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)

	// Other resources are not blocked by the holder.
	require.NoError(t, s.WithResourceLock(context.Background(), 2, func(context.Context, ledger.Store) error { return nil }))

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, s.WithResourceLock(context.Background(), 1, func(context.Context, ledger.Store) error { return nil }))
}
