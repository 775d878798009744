package queue

import (
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePriorityOrder(t *testing.T) {
	q := NewQueue(10)
	base := time.Now()
	require.True(t, q.Enqueue(Job{ID: "low", Priority: 0, EnqueuedAt: base}))
	require.True(t, q.Enqueue(Job{ID: "high", Priority: 1, EnqueuedAt: base.Add(time.Second)}))

	job, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "high", job.ID)

	job, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "low", job.ID)
}

func TestQueueFIFOWithinPriority(t *testing.T) {
	q := NewQueue(10)
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Job{ID: id, Priority: 0, EnqueuedAt: base.Add(time.Duration(i) * time.Millisecond)}))
	}
	for _, want := range []string{"a", "b", "c"} {
		job, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, job.ID)
	}
}

func TestQueueCapacity(t *testing.T) {
	q := NewQueue(2)
	assert.True(t, q.Enqueue(Job{ID: "1"}))
	assert.True(t, q.Enqueue(Job{ID: "2"}))
	assert.False(t, q.Enqueue(Job{ID: "3"}), "enqueue past capacity must fail")
	assert.Equal(t, 2, q.Len())
}

func TestQueueCloseUnblocksConsumers(t *testing.T) {
	q := NewQueue(10)
	done := make(chan struct{})
	go func() {
		_, ok := q.Dequeue()
		assert.False(t, ok)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	q.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not unblock after Close")
	}
	assert.False(t, q.Enqueue(Job{ID: "late"}), "closed queue must reject jobs")
}

func TestWorkerPoolDrainsAndStops(t *testing.T) {
	q := NewQueue(100)
	var handled atomic.Int64

	pool := NewWorkerPool(4, q, func(Job) {
		handled.Add(1)
	})
	pool.Start()

	for i := 0; i < 50; i++ {
		require.True(t, q.Enqueue(Job{ID: strconv.Itoa(i), EnqueuedAt: time.Now()}))
	}
	pool.Stop()
	assert.Equal(t, int64(50), handled.Load())
}
