// Package updatehandler implements the Update Handler (spec §4.6): a
// coalescing queue of Update Jobs feeding a bounded worker pool, each
// worker re-checking the triplestore before touching the Search Engine so
// that an at-least-once, out-of-order delivery of deltas still converges.
//
// The worker pool shape is grounded on worker/pool.go's Pool/Worker split
// in the teacher codebase, adapted from that package's external
// Redis-backed Queue/JobProcessor abstraction to an in-process coalescing
// queue, since spec §4.6 coalesces by (subject, type_name) before a job
// ever reaches a worker rather than leaving de-duplication to the queue
// backend.
package updatehandler

import (
	"context"
	"sync"

	"github.com/mu-semtech/delta-indexer/internal/rdfmodel"
)

// CoalescingQueue holds at most one pending job per (subject, type_name)
// key (spec §4.6 "coalesce: last write for a given key wins, ordered by
// first enqueue time"). Enqueuing a key already pending overwrites its Op
// in place without disturbing its position in FIFO order.
//
// When capacity is positive the queue is bounded on distinct pending keys
// (spec §5 "the queue is bounded; delta ingestion blocks on enqueue when
// full"): Enqueue of a brand-new key blocks until a slot frees up, while
// coalescing into an already-pending key never blocks, since it does not
// grow the queue.
type CoalescingQueue struct {
	mu       sync.Mutex
	order    []string
	jobs     map[string]rdfmodel.UpdateJob
	closed   bool
	capacity int

	notEmpty chan struct{}
	notFull  chan struct{}
}

// NewCoalescingQueue builds an unbounded queue.
func NewCoalescingQueue() *CoalescingQueue {
	return newQueue(0)
}

// NewBoundedCoalescingQueue builds a queue that blocks new-key enqueues
// once capacity distinct keys are pending.
func NewBoundedCoalescingQueue(capacity int) *CoalescingQueue {
	return newQueue(capacity)
}

func newQueue(capacity int) *CoalescingQueue {
	return &CoalescingQueue{
		jobs:     make(map[string]rdfmodel.UpdateJob),
		capacity: capacity,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
	}
}

// Enqueue adds job to the queue, or overwrites the pending job sharing its
// key if one is already waiting. It blocks only when the queue is bounded,
// at capacity, and job's key is not already pending. Enqueuing after Close
// is a no-op. Returns ctx.Err() if ctx is cancelled while waiting for a
// free slot.
func (q *CoalescingQueue) Enqueue(ctx context.Context, job rdfmodel.UpdateJob) error {
	key := job.Key()
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			q.signal(q.notFull)
			return nil
		}

		_, pending := q.jobs[key]
		if !pending && q.capacity > 0 && len(q.order) >= q.capacity {
			q.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.notFull:
				continue
			}
		}

		if !pending {
			q.order = append(q.order, key)
		}
		q.jobs[key] = job
		q.mu.Unlock()

		q.signal(q.notEmpty)
		return nil
	}
}

// Dequeue blocks until a job is available, the queue is closed and
// drained, or ctx is cancelled. The second return is false once there is
// nothing left to deliver.
func (q *CoalescingQueue) Dequeue(ctx context.Context) (rdfmodel.UpdateJob, bool) {
	for {
		q.mu.Lock()
		if len(q.order) > 0 {
			key := q.order[0]
			q.order = q.order[1:]
			job := q.jobs[key]
			delete(q.jobs, key)
			q.mu.Unlock()

			q.signal(q.notFull)
			return job, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			q.signal(q.notEmpty)
			return rdfmodel.UpdateJob{}, false
		}

		select {
		case <-ctx.Done():
			return rdfmodel.UpdateJob{}, false
		case <-q.notEmpty:
		}
	}
}

// Close marks the queue closed. Workers drain whatever is already
// pending, then Dequeue starts returning false; blocked Enqueue calls
// return nil without adding their job.
func (q *CoalescingQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal(q.notEmpty)
	q.signal(q.notFull)
}

// Len reports the number of distinct pending keys, for tests and metrics.
func (q *CoalescingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

func (q *CoalescingQueue) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
