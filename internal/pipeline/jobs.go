package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docrank/internal/challenge"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/google/uuid"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusRanking   JobStatus = "ranking"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single analysis request.
type Job struct {
	mu sync.Mutex

	ID          string `json:"job_id"`
	ChallengeID string `json:"challenge_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	input  *challenge.Input
	files  MemSource
	result *report.Output
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocuments  int      `json:"total_documents"`
	DocumentsParsed int      `json:"documents_parsed"`
	Sections        int      `json:"sections"`
	Candidates      int      `json:"candidates"`
	Errors          []string `json:"errors"`
}

// NewJob creates a queued job for a challenge and its uploaded documents.
func NewJob(in *challenge.Input, files map[string][]byte) *Job {
	now := time.Now()
	src := make(MemSource, len(files))
	for name, data := range files {
		src[DocumentKey(name)] = data
	}
	return &Job{
		ID:          uuid.NewString(),
		ChallengeID: in.Info.ChallengeID,
		Status:      StatusQueued,
		Phase:       "queued",
		Progress:    Progress{TotalDocuments: len(in.Documents)},
		CreatedAt:   now,
		UpdatedAt:   now,
		input:       in,
		files:       src,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// DocumentParsed implements Observer.
func (j *Job) DocumentParsed(name string, sections int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocumentsParsed++
	j.Progress.Sections += sections
	j.UpdatedAt = time.Now()
}

// Ranking implements Observer and moves the job into the ranking phase.
func (j *Job) Ranking(candidates int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusRanking
	j.Phase = "ranking"
	j.Progress.Candidates = candidates
	j.UpdatedAt = time.Now()
}

// Complete stores the report and marks the job completed.
func (j *Job) Complete(out *report.Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = out
	j.files = nil
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Result returns the report of a completed job, or nil.
func (j *Job) Result() *report.Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Input returns the challenge the job analyses.
func (j *Job) Input() *challenge.Input {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.input
}

// Files returns the uploaded documents.
func (j *Job) Files() MemSource {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.files
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	ChallengeID string    `json:"challenge_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		ChallengeID: j.ChallengeID,
		Status:      j.Status,
		Phase:       j.Phase,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
