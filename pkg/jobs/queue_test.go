package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	q := NewQueue("test", func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	q.Start(context.Background())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{ID: id}))
	}
	q.Stop()

	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, seen)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.TryEnqueue(Job{ID: "x"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.TryEnqueue(Job{ID: "x"}))

	q.Start(context.Background())
	q.Stop()
	assert.Error(t, q.Enqueue(context.Background(), Job{ID: "y"}))
}

func TestTryEnqueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(context.Context, Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	// first job occupies the worker, second fills the buffer
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "1"}))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(Job{ID: "2"}))
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "3"}), ErrQueueFull)

	close(block)
	q.Stop()
}
