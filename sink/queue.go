package sink

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Append after the queue has been closed.
var ErrQueueClosed = errors.New("sink queue closed")

// Queued wraps a sink with a bounded queue and a single writer goroutine.
//
// Terminal writes arrive from concurrently progressing venues; funnelling
// them through one writer keeps each append atomic and ordered without
// stalling venue processing on sink latency. Append blocks only when the
// queue is full.
type Queued struct {
	dst  Sink
	jobs chan []Record

	// mu is held read-side across the enqueue so Close cannot close the
	// jobs channel while a send is in flight.
	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error

	done      chan struct{}
	closeOnce sync.Once
}

// NewQueued wraps dst with a bounded single-writer queue of the given depth.
func NewQueued(dst Sink, depth int) *Queued {
	if depth <= 0 {
		depth = 16
	}
	q := &Queued{
		dst:  dst,
		jobs: make(chan []Record, depth),
		done: make(chan struct{}),
	}
	go q.writer()
	return q
}

func (q *Queued) writer() {
	defer close(q.done)
	for recs := range q.jobs {
		if err := q.dst.Append(context.Background(), recs); err != nil {
			q.recordErr(err)
		}
	}
}

func (q *Queued) recordErr(err error) {
	q.errMu.Lock()
	if q.err == nil {
		q.err = err
	}
	q.errMu.Unlock()
}

// Append enqueues the records for the writer goroutine. It blocks while the
// queue is full, and returns early if ctx is cancelled first.
func (q *Queued) Append(ctx context.Context, recs []Record) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- recs:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue, closes the underlying sink, and returns the first
// write error encountered (if any). Close is idempotent.
func (q *Queued) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()

		<-q.done
		if err := q.dst.Close(); err != nil {
			q.recordErr(err)
		}
	})

	<-q.done
	q.errMu.Lock()
	defer q.errMu.Unlock()
	return q.err
}
