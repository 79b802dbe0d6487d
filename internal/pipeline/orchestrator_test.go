package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/embed"
)

func waitForStatus(t *testing.T, job *Job, want JobStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job.Snapshot().Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach %q, last status %q", job.ID, want, job.Snapshot().Status)
}

func TestOrchestrator_ProcessesJob(t *testing.T) {
	o := NewOrchestrator(newTestAnalyzer(embed.NewTFIDF()), 4, time.Hour, quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob(testInput(), map[string][]byte{"menu.md": []byte(menuDoc)})
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForStatus(t, job, StatusCompleted)

	if o.GetJob(job.ID) != job {
		t.Error("expected job to be retrievable by ID")
	}
	res := job.Result()
	if res == nil || len(res.ExtractedSections) == 0 {
		t.Fatalf("expected ranked sections, got %+v", res)
	}
	if job.Snapshot().Progress.DocumentsParsed != 3 {
		t.Errorf("expected 3 documents parsed, got %d", job.Snapshot().Progress.DocumentsParsed)
	}
}

func TestOrchestrator_FailedJob(t *testing.T) {
	o := NewOrchestrator(newTestAnalyzer(failingProvider{}), 4, time.Hour, quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob(testInput(), map[string][]byte{"menu.md": []byte(menuDoc)})
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForStatus(t, job, StatusFailed)
	if len(job.Snapshot().Progress.Errors) != 1 {
		t.Errorf("expected one recorded error, got %v", job.Snapshot().Progress.Errors)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(newTestAnalyzer(failingProvider{}), 1, time.Hour, quietLogger())

	if err := o.Submit(NewJob(testInput(), nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
	job := NewJob(testInput(), nil)
	if err := o.Submit(job); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", job.Snapshot().Status)
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(newTestAnalyzer(embed.NewTFIDF()), 4, time.Hour, quietLogger())
	o.Start(context.Background())
	o.Stop()
	// A second Stop must not close the queue again.
	o.Stop()

	job := NewJob(testInput(), map[string][]byte{"menu.md": []byte(menuDoc)})
	err := o.Submit(job)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "shutting_down" {
		t.Errorf("expected failed shutting_down job, got %q/%q", snap.Status, snap.Phase)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected rejected job to stay pollable")
	}
}

func TestOrchestrator_ConcurrentSubmitAndStop(t *testing.T) {
	o := NewOrchestrator(newTestAnalyzer(embed.NewTFIDF()), 64, time.Hour, quietLogger())
	o.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				err := o.Submit(NewJob(testInput(), nil))
				if err != nil && !errors.Is(err, ErrStopped) && !errors.Is(err, ErrQueueFull) {
					t.Errorf("unexpected submit error: %v", err)
				}
			}
		}()
	}
	o.Stop()
	wg.Wait()
}
