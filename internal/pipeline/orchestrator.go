package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned by Submit when the queue has no free slot.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("pipeline is shutting down")
)

// Orchestrator queues analysis jobs for a single worker so runs never
// overlap.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	analyzer *Analyzer
	log      *slog.Logger
	maxQueue int

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and the queue send/close.
	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(analyzer *Analyzer, maxQueue int, jobTTL time.Duration, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(jobTTL),
		queue:    make(chan *Job, maxQueue),
		analyzer: analyzer,
		log:      log,
		maxQueue: maxQueue,
	}
}

// Start launches the worker goroutine and the job store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				o.Process(workerCtx, job)
			}
		}
	}()

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Later calls are no-ops and
// later submissions fail with ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing. A job that cannot be queued is
// still stored, marked failed, so its status stays pollable.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutting_down")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.maxQueue)
	}
}

// Process runs one job to completion.
func (o *Orchestrator) Process(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID, "challenge_id", job.ChallengeID)
	start := time.Now()

	job.SetStatus(StatusParsing, "parsing")
	out, err := o.analyzer.Analyze(ctx, job.Input(), job.Files(), job)
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "ranking")
		return
	}
	job.Complete(out)
	log.Info("analysis completed", "sections", len(out.ExtractedSections), "duration", time.Since(start))
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
