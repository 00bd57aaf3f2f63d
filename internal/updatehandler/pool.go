package updatehandler

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Pool manages a fixed number of workers draining a CoalescingQueue,
// mirroring the Pool/Worker split of worker/pool.go in the teacher
// codebase: a pool owns the stop signal, each worker runs its own loop
// until told to stop or the queue drains and closes.
type Pool struct {
	Queue   *CoalescingQueue
	Handler *Handler
	Workers int
	Logger  *logrus.Entry

	wg sync.WaitGroup
}

// NewPool builds a Pool with the given worker count (at least 1).
func NewPool(queue *CoalescingQueue, handler *Handler, workers int, logger *logrus.Entry) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{Queue: queue, Handler: handler, Workers: workers, Logger: logger}
}

// Start launches the worker goroutines. It returns immediately; workers
// run until ctx is cancelled or the queue is closed and drained.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop closes the queue and blocks until every worker has drained it and
// returned, giving in-flight jobs a chance to finish under ctx.
func (p *Pool) Stop() {
	p.Queue.Close()
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		job, ok := p.Queue.Dequeue(ctx)
		if !ok {
			return
		}
		if err := p.Handler.Handle(ctx, job); err != nil && p.Logger != nil {
			p.Logger.WithField("worker", id).Warnf("process job %s/%s: %v", job.TypeName, job.Subject, err)
		}
	}
}
