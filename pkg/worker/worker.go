package worker

import (
	"errors"
	"sync"

	"github.com/leasedesk/leasedesk/pkg/logger"
)

var ErrStopped = errors.New("workers terminated")

type WorkerHandler = func(workerIndex int, job interface{})

type WorkerManager struct {
	jobChannel     chan interface{}
	numberOfWorker int
	quit           chan struct{}
	once           sync.Once
	do             WorkerHandler
	waiter         *sync.WaitGroup
}

// NewWorkerManager
// is a job manager based on go routines. Define the number of internal
// workers, and start publishing jobs using Enqueue. It will distribute the job
// among its internal pool. To stop the pool call Exit; jobs already taken by a
// worker run to completion.
func NewWorkerManager(bufferSize, numberOfWorkers int) *WorkerManager {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan interface{}, bufferSize),
		quit:           make(chan struct{}),
		waiter:         &sync.WaitGroup{},
	}
}

// Pending returns the number of queued jobs no worker has picked up yet.
func (w *WorkerManager) Pending() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue
// publishes a job onto the channel. It returns false once the manager has exited.
func (w *WorkerManager) Enqueue(val interface{}) bool {
	select {
	case <-w.quit:
		return false
	default:
	}
	select {
	case w.jobChannel <- val:
		return true
	case <-w.quit:
		return false
	}
}

// Start
// starts off the workers and blocks until Exit is called and every worker returned.
func (w *WorkerManager) Start() error {
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-w.quit:
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()

	return ErrStopped
}

// Exit
// stops every worker; safe to call more than once.
func (w *WorkerManager) Exit() {
	w.once.Do(func() {
		logger.Info("worker manager is shutting down", "workers", w.numberOfWorker)
		close(w.quit)
	})
}
