package queue

import (
	"container/heap"
	"sync"
	"time"
)

// Job carries the id of a conversion record to advance. All durable
// state stays in the store; the queue moves only identifiers.
type Job struct {
	ID           string
	ConversionID string
	EnqueuedAt   time.Time
	Priority     int
}

type priorityJob struct {
	job   Job
	index int
}

type jobPQ []*priorityJob

func (pq jobPQ) Len() int { return len(pq) }
func (pq jobPQ) Less(i, j int) bool {
	// Higher priority first; for equal priority, earlier EnqueuedAt first (FIFO)
	if pq[i].job.Priority == pq[j].job.Priority {
		return pq[i].job.EnqueuedAt.Before(pq[j].job.EnqueuedAt)
	}
	return pq[i].job.Priority > pq[j].job.Priority
}
func (pq jobPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i]; pq[i].index = i; pq[j].index = j }
func (pq *jobPQ) Push(x interface{}) { *pq = append(*pq, x.(*priorityJob)) }
func (pq *jobPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Queue is a bounded priority queue. Close wakes blocked consumers so
// worker pools can drain and exit cleanly on shutdown.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	pq       jobPQ
	capacity int
	closed   bool
}

func NewQueue(capacity int) *Queue {
	q := &Queue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	heap.Init(&q.pq)
	return q
}

func (q *Queue) Len() int { q.mu.Lock(); defer q.mu.Unlock(); return len(q.pq) }

func (q *Queue) Enqueue(j Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.pq) >= q.capacity {
		return false
	}
	heap.Push(&q.pq, &priorityJob{job: j})
	q.notEmpty.Signal()
	return true
}

// Dequeue blocks until a job is available or the queue is closed.
// The second return value is false once the queue is closed and empty.
func (q *Queue) Dequeue() (Job, bool) {
	q.mu.Lock()
	for len(q.pq) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.pq) == 0 {
		q.mu.Unlock()
		return Job{}, false
	}
	item := heap.Pop(&q.pq).(*priorityJob)
	q.mu.Unlock()
	return item.job, true
}

func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}

type WorkerPool struct {
	workers int
	queue   *Queue
	wg      sync.WaitGroup
	handler func(Job)
}

func NewWorkerPool(workers int, queue *Queue, handler func(Job)) *WorkerPool {
	return &WorkerPool{workers: workers, queue: queue, handler: handler}
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for {
				job, ok := wp.queue.Dequeue()
				if !ok {
					return
				}
				wp.handler(job)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight handlers to finish.
func (wp *WorkerPool) Stop() {
	wp.queue.Close()
	wp.wg.Wait()
}
