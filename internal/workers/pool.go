package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/alitto/pond/v2"
)

// ErrQueueFull is reported by a task that was rejected because the pool's
// queue had no room.
var ErrQueueFull = pond.ErrQueueFull

// ErrStopped is reported by a task submitted after Shutdown.
var ErrStopped = pond.ErrPoolStopped

// Task is the future of a submitted job. Done is closed once the job has
// finished, Wait blocks and returns its error.
type Task = pond.Task

// Pool runs jobs on a bounded set of goroutines. Every job receives the pool
// context, which is cancelled on Shutdown.
type Pool struct {
	pool   pond.Pool
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a pool with the given number of workers and queue capacity.
// workers <= 0 uses one worker per CPU; queueSize <= 0 means unbounded. A full
// queue rejects submissions instead of blocking the caller.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	var opts []pond.Option
	if queueSize > 0 {
		opts = append(opts, pond.WithQueueSize(queueSize), pond.WithNonBlocking(true))
	}
	return &Pool{
		pool:   pond.NewPool(workers, opts...),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit queues job and returns its future. A panic inside job is reported as
// the task error.
func (p *Pool) Submit(job func(ctx context.Context) error) Task {
	return p.pool.SubmitErr(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("workers: job panicked: %v", r)
			}
		}()
		return job(p.ctx)
	})
}

// Context returns the context handed to jobs.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Waiting returns the number of queued jobs that have not started.
func (p *Pool) Waiting() uint64 {
	return p.pool.WaitingTasks()
}

// Running returns the number of busy workers.
func (p *Pool) Running() int64 {
	return p.pool.RunningWorkers()
}

// Shutdown cancels the job context and waits for every submitted job to
// finish. Queued jobs still run but observe a cancelled context.
func (p *Pool) Shutdown() {
	p.cancel()
	p.pool.StopAndWait()
}

// Rejected reports whether err means the job never ran because the pool
// refused it.
func Rejected(err error) bool {
	return errors.Is(err, ErrQueueFull) || errors.Is(err, ErrStopped)
}
