package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-process JobStore with the same claim semantics as the
// Redis implementation: a due job is handed out exactly once.
type memoryStore struct {
	mu     sync.Mutex
	jobs   map[string]Job
	addErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: make(map[string]Job)}
}

func (s *memoryStore) Add(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *memoryStore) ClaimDue(ctx context.Context, now int64, limit int) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []Job
	for id, job := range s.jobs {
		if job.RunAt <= now && len(due) < limit {
			due = append(due, job)
			delete(s.jobs, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].RunAt < due[j].RunAt })
	return due, nil
}

func (s *memoryStore) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func TestSchedulePropagatesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.addErr = errors.New("store unavailable")
	svc := New(store, 10*time.Millisecond)

	err := svc.Schedule(context.Background(), "test.noop", time.Now(), nil)
	require.ErrorIs(t, err, store.addErr)
}

func TestOverdueJobFiresOncePromptly(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, 10*time.Millisecond)

	var fired atomic.Int32
	svc.Register("test.fire", func(ctx context.Context, args json.RawMessage) error {
		fired.Add(1)
		return nil
	})

	// armed in the past, as if the process had been down over the deadline
	require.NoError(t, svc.Schedule(context.Background(), "test.fire", time.Now().Add(-time.Hour), nil))

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	// a few more poll cycles must not re-fire the claimed job
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.Zero(t, store.pending())
}

func TestFutureJobWaitsForItsTime(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, 10*time.Millisecond)

	var fired atomic.Int32
	svc.Register("test.fire", func(ctx context.Context, args json.RawMessage) error {
		fired.Add(1)
		return nil
	})

	require.NoError(t, svc.Schedule(context.Background(), "test.fire", time.Now().Add(time.Hour), nil))

	svc.Start(context.Background())
	defer svc.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load(), "job must not fire before its run time")
	assert.Equal(t, 1, store.pending())
}

func TestHandlerErrorIsNotRetried(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, 10*time.Millisecond)

	var calls atomic.Int32
	svc.Register("test.fail", func(ctx context.Context, args json.RawMessage) error {
		calls.Add(1)
		return errors.New("handler failed")
	})

	require.NoError(t, svc.Schedule(context.Background(), "test.fail", time.Now().Add(-time.Second), nil))

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "scheduler must not retry failed handlers")
}

func TestArgsRoundTrip(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, 10*time.Millisecond)

	type payload struct {
		GiveawayID string `json:"giveaway_id"`
		Deadline   int64  `json:"deadline"`
	}

	got := make(chan payload, 1)
	svc.Register("test.args", func(ctx context.Context, args json.RawMessage) error {
		var p payload
		if err := json.Unmarshal(args, &p); err != nil {
			return err
		}
		got <- p
		return nil
	})

	want := payload{GiveawayID: "abc123", Deadline: 1700003600}
	require.NoError(t, svc.Schedule(context.Background(), "test.args", time.Now(), want))

	svc.Start(context.Background())
	defer svc.Stop()

	select {
	case p := <-got:
		assert.Equal(t, want, p)
	case <-time.After(time.Second):
		t.Fatal("job did not fire")
	}
}

func TestStopWaitsForInflightHandlers(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, 10*time.Millisecond)

	started := make(chan struct{})
	var done atomic.Bool
	svc.Register("test.slow", func(ctx context.Context, args json.RawMessage) error {
		close(started)
		time.Sleep(30 * time.Millisecond)
		done.Store(true)
		return nil
	})

	require.NoError(t, svc.Schedule(context.Background(), "test.slow", time.Now().Add(-time.Second), nil))

	svc.Start(context.Background())
	<-started
	svc.Stop()
	assert.True(t, done.Load(), "Stop must wait for in-flight handlers")
}

func TestStartIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, 10*time.Millisecond)

	svc.Start(context.Background())
	svc.Start(context.Background())
	svc.Stop()
	svc.Stop()
}
