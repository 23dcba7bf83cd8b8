package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "mediamerge/internal/errors"
	"mediamerge/pkg/contracts/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockListener struct{ mock.Mock }

func (m *mockListener) SessionOpened(ctx context.Context) { m.Called() }
func (m *mockListener) SessionClosed(ctx context.Context) { m.Called() }

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(time.Hour, logger, append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func TestStore_CreateGetDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := store.Create(ctx)
	require.NotNil(t, sess)
	assert.Len(t, sess.ID, 36)
	assert.True(t, store.Exists(sess.ID))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, store.Delete(ctx, sess.ID))
	assert.False(t, store.Exists(sess.ID))

	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, apierrors.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, sess.ID), apierrors.ErrSessionNotFound)
}

func TestStore_IDsAreUnique(t *testing.T) {
	store, _ := newTestStore(t)

	a := store.Create(context.Background())
	b := store.Create(context.Background())

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())
}

func TestStore_Sweep(t *testing.T) {
	listener := &mockListener{}
	listener.On("SessionOpened").Return().Times(2)
	listener.On("SessionClosed").Return().Once()

	store, clock := newTestStore(t, WithListener(listener))
	ctx := context.Background()

	idle := store.Create(ctx)
	active := store.Create(ctx)

	clock.Advance(50 * time.Minute)
	_, err := store.Get(active.ID)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	assert.Equal(t, 1, store.Sweep(ctx))

	assert.False(t, store.Exists(idle.ID))
	assert.True(t, store.Exists(active.ID))
	assert.Equal(t, clock.Now().Add(-20*time.Minute), active.LastSeen())
	listener.AssertExpectations(t)
}

func TestStore_Run(t *testing.T) {
	store, clock := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	store.Create(ctx)
	clock.Advance(2 * time.Hour)

	done := make(chan error, 1)
	go func() { done <- store.Run(ctx, time.Millisecond) }()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSession_Benchmark(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Create(context.Background())

	assert.Nil(t, sess.Benchmark(), "sessions start without a benchmark")

	first := domain.NewBenchmarkTable("bench-a.xlsx", nil)
	sess.SetBenchmark(first)
	assert.Same(t, first, sess.Benchmark())

	second := domain.NewBenchmarkTable("bench-b.xlsx", nil)
	sess.SetBenchmark(second)
	assert.Same(t, second, sess.Benchmark())

	sess.ClearBenchmark()
	assert.Nil(t, sess.Benchmark())
}

func TestSession_Result(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Create(context.Background())

	assert.Nil(t, sess.Result())
	assert.Nil(t, sess.Dataset())

	ds := &domain.MergedDataset{Columns: []string{"Channel"}}
	sess.SetResult(&domain.BatchResult{ID: "b1", Dataset: ds})

	assert.Equal(t, "b1", sess.Result().ID)
	assert.Same(t, ds, sess.Dataset())

	sess.SetResult(&domain.BatchResult{ID: "b2", Status: domain.BatchStatusFailed})
	assert.Equal(t, "b1", sess.Result().ID)
	assert.Same(t, ds, sess.Dataset())
}

func TestSession_Exclusive(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Create(context.Background())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		running int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Exclusive(func() error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.ErrorIs(t, sess.Exclusive(func() error { return assert.AnError }), assert.AnError)
}
