//
// queue.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"log"
	"sync"

	"github.com/markkurossi/mpcsuite/mpcerr"
)

// Outcome holds the result of a queued protocol request.
type Outcome struct {
	Result *Result
	Err    error
}

type queued struct {
	ctx    context.Context
	req    *Request
	result chan<- *Outcome
}

// Queue runs protocol sessions with a bounded number of workers.
// Sessions share no state so they run concurrently.
type Queue struct {
	coord    *Coordinator
	workers  int
	requests chan *queued
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewQueue creates a new queue with workers workers and at most size
// pending requests.
func NewQueue(coord *Coordinator, workers, size int) *Queue {
	if workers <= 0 {
		workers = coord.Config.GetWorkers()
	}
	if size <= 0 {
		size = coord.Config.GetQueueSize()
	}
	return &Queue{
		coord:    coord,
		workers:  workers,
		requests: make(chan *queued, size),
		shutdown: make(chan struct{}),
	}
}

// Start starts the queue workers.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Stop stops the workers. Pending requests fail with
// context.Canceled. Submit must not be called after Stop.
func (q *Queue) Stop() {
	close(q.shutdown)
	q.wg.Wait()

	for {
		select {
		case r := <-q.requests:
			r.result <- &Outcome{
				Err: mpcerr.New(r.req.Type.String(), context.Canceled),
			}
			close(r.result)
		default:
			return
		}
	}
}

// Submit queues the request. The returned channel receives the
// outcome. If the queue is full, the outcome is ErrQueueFull which is
// retryable.
func (q *Queue) Submit(ctx context.Context, req *Request) <-chan *Outcome {
	result := make(chan *Outcome, 1)
	select {
	case q.requests <- &queued{
		ctx:    ctx,
		req:    req,
		result: result,
	}:
	default:
		log.Printf("queue full, %s request dropped", req.Type)
		result <- &Outcome{
			Err: mpcerr.New(req.Type.String(), mpcerr.ErrQueueFull),
		}
		close(result)
	}
	return result
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.shutdown:
			return
		case r := <-q.requests:
			result, err := q.coord.Run(r.ctx, r.req)
			r.result <- &Outcome{
				Result: result,
				Err:    err,
			}
			close(r.result)
		}
	}
}
