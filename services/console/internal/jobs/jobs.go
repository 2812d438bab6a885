// Package jobs backs the console's trigger/monitor panel: a registry of
// named jobs that run one at a time per name, with status and last-result
// tracking.
package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUnknownJob     = errors.New("unknown job")
	ErrAlreadyRunning = errors.New("job is already running")
)

type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Job is a registered unit of work. Run returns a result payload surfaced in
// the monitor panel.
type Job struct {
	Name        string
	Description string
	Run         func(ctx context.Context) (map[string]any, error)
}

// State is the monitor view of one job.
type State struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      Status         `json:"status"`
	Runs        int            `json:"runs"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	DurationMS  int64          `json:"duration_ms,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type entry struct {
	job   Job
	state State
}

type Runner struct {
	mu   sync.Mutex
	jobs map[string]*entry
	log  *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{jobs: map[string]*entry{}, log: log}
}

func (r *Runner) Register(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.Name] = &entry{
		job:   job,
		state: State{Name: job.Name, Description: job.Description, Status: StatusIdle},
	}
}

func (r *Runner) List() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, 0, len(r.jobs))
	for _, e := range r.jobs {
		out = append(out, e.state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Runner) Get(name string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[name]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Trigger starts the job in the background and returns its RUNNING snapshot.
// A job that is already running is not started twice.
func (r *Runner) Trigger(ctx context.Context, name string) (State, error) {
	r.mu.Lock()
	e, ok := r.jobs[name]
	if !ok {
		r.mu.Unlock()
		return State{}, ErrUnknownJob
	}
	if e.state.Status == StatusRunning {
		r.mu.Unlock()
		return State{}, ErrAlreadyRunning
	}
	started := time.Now().UTC()
	e.state.Status = StatusRunning
	e.state.Runs++
	e.state.StartedAt = &started
	e.state.FinishedAt = nil
	e.state.Result = nil
	e.state.Error = ""
	snapshot := e.state
	r.mu.Unlock()

	go r.run(ctx, e, started)
	return snapshot, nil
}

func (r *Runner) run(ctx context.Context, e *entry, started time.Time) {
	result, err := e.job.Run(ctx)
	finished := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	e.state.FinishedAt = &finished
	e.state.DurationMS = finished.Sub(started).Milliseconds()
	if err != nil {
		e.state.Status = StatusFailed
		e.state.Error = err.Error()
		r.log.Warn("job failed", zap.String("job", e.job.Name), zap.Error(err))
		return
	}
	e.state.Status = StatusSucceeded
	e.state.Result = result
	r.log.Info("job finished",
		zap.String("job", e.job.Name),
		zap.Int64("duration_ms", e.state.DurationMS))
}
