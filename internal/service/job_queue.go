package service

import (
	"context"
	"log"
	"sync"

	"github.com/treeci/treeci/internal/store"
)

type GraphJobRunner interface {
	RunJob(ctx context.Context, job *store.GraphJob) error
}

// JobQueue serializes graph jobs for one project. Jobs for different
// projects run concurrently, one queue each.
type JobQueue struct {
	runner GraphJobRunner

	queue chan *store.GraphJob
	done  chan struct{}
	mu    sync.Mutex
}

func NewJobQueue(runner GraphJobRunner, maxJobs int64) *JobQueue {
	return &JobQueue{
		runner: runner,
		queue:  make(chan *store.GraphJob, maxJobs),
		done:   make(chan struct{}),
	}
}

func (q *JobQueue) Enqueue(job *store.GraphJob) error {
	select {
	case q.queue <- job:
		return nil
	default:
		return NewErrJobQueueFull()
	}
}

func (q *JobQueue) Run() {
	for {
		select {
		case job := <-q.queue:
			if err := q.runner.RunJob(context.Background(), job); err != nil {
				log.Println("err processing graph job:", err)
			}
		case <-q.done:
			close(q.queue)
			return
		}
	}
}

func (q *JobQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}
