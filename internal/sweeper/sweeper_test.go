package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type countingCompleter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCompleter) CompleteEnded(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(&countingCompleter{}, "every now and then", zap.NewNop())
	assert.Error(t, err)

	_, err = New(&countingCompleter{}, "@every 5m", zap.NewNop())
	assert.NoError(t, err)
	_, err = New(&countingCompleter{}, "*/10 * * * *", zap.NewNop())
	assert.NoError(t, err)
}

func TestSweepCompletesEndedReservations(t *testing.T) {
	clock := time.Date(2030, 5, 1, 8, 0, 0, 0, time.UTC)
	catalog := repository.NewMemoryCatalog(repository.SeedResources())
	l := ledger.New(repository.NewMemoryStore(), catalog, zap.NewNop(),
		ledger.WithClock(func() time.Time { return clock }))

	ctx := context.Background()
	done, err := l.Create(ctx, ledger.CreateInput{ResourceID: 1, ActorID: 1,
		Start: clock.Add(time.Hour), End: clock.Add(2 * time.Hour)})
	require.NoError(t, err)
	later, err := l.Create(ctx, ledger.CreateInput{ResourceID: 1, ActorID: 1,
		Start: clock.Add(5 * time.Hour), End: clock.Add(6 * time.Hour)})
	require.NoError(t, err)

	s, err := New(l, "@every 1m", zaptest.NewLogger(t))
	require.NoError(t, err)

	clock = clock.Add(3 * time.Hour)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := l.Get(ctx, done.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	got, err = l.Get(ctx, later.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	n, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepReportsFailure(t *testing.T) {
	s, err := New(&countingCompleter{err: errors.New("db down")}, "@every 1m", zap.NewNop())
	require.NoError(t, err)
	_, err = s.Sweep(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := &countingCompleter{}
	s, err := New(c, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return c.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
