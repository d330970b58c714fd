package bulk

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/youruser/certgen/internal/cert"
	"github.com/youruser/certgen/internal/metrics"
	"github.com/youruser/certgen/internal/report"
	"github.com/youruser/certgen/internal/session"
)

var (
	ErrJobNotFound = errors.New("bulk job not found")
	ErrJobNotDone  = errors.New("bulk job has not finished")
)

// State of a bulk job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateDone      State = "done"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Finished reports whether the job can no longer change.
func (s State) Finished() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// Status is the public view of a job.
type Status struct {
	ID         string     `json:"id"`
	State      State      `json:"state"`
	Done       int        `json:"done"`
	Total      int        `json:"total"`
	Logged     int        `json:"logged"`
	Error      string     `json:"error,omitempty"`
	Event      string     `json:"event"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type job struct {
	status  Status
	cancel  context.CancelFunc
	done    chan struct{}
	archive []byte
	report  []byte
}

// Manager runs bulk jobs in the background and keeps the most recent ones.
type Manager struct {
	pipeline *Pipeline
	store    *session.Store
	keep     int

	mu   sync.Mutex
	jobs map[string]*job
}

// NewManager keeps up to keep finished jobs (at least one).
func NewManager(p *Pipeline, store *session.Store, keep int) *Manager {
	if keep < 1 {
		keep = 1
	}
	return &Manager{pipeline: p, store: store, keep: keep, jobs: map[string]*job{}}
}

// Start validates entries against the current snapshot and starts a job.
func (m *Manager) Start(entries []cert.Entry) (Status, error) {
	snap := m.store.Snapshot()
	if !snap.HasTemplate() {
		return Status{}, session.ErrNoTemplate
	}
	entries, err := m.pipeline.Prepare(entries)
	if err != nil {
		return Status{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		status: Status{
			ID:        uuid.NewString(),
			State:     StatePending,
			Total:     len(entries),
			Event:     snap.Event.Name,
			CreatedAt: m.pipeline.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[j.status.ID] = j
	m.evictLocked()
	st := j.status
	m.mu.Unlock()

	go m.run(ctx, j, entries, snap)
	return st, nil
}

func (m *Manager) run(ctx context.Context, j *job, entries []cert.Entry, snap session.Snapshot) {
	defer close(j.done)
	defer j.cancel()

	m.update(j, func(s *Status) { s.State = StateRunning })
	metrics.BulkJobsRunning.Inc()
	defer metrics.BulkJobsRunning.Dec()
	log.Printf("bulk job %s started: %d certificates", j.status.ID, len(entries))

	res, err := m.pipeline.Run(ctx, entries, snap, func(done, total int) {
		m.update(j, func(s *Status) {
			if done > s.Done {
				s.Done = done
			}
		})
	})
	if err != nil {
		m.finish(j, err)
		return
	}

	added := m.store.AppendIfAbsent(res.Records)
	rep, err := report.Build(snap.Event, res.Records, m.pipeline.now())
	if err != nil {
		m.finish(j, err)
		return
	}

	m.mu.Lock()
	j.archive = res.Archive
	j.report = rep
	j.status.Logged = len(added)
	m.mu.Unlock()
	m.finish(j, nil)
}

func (m *Manager) finish(j *job, err error) {
	now := m.pipeline.now()
	m.update(j, func(s *Status) {
		s.FinishedAt = &now
		switch {
		case err == nil:
			s.State = StateDone
		case errors.Is(err, context.Canceled):
			s.State = StateCancelled
		default:
			s.State = StateFailed
			s.Error = err.Error()
		}
	})
	if err != nil {
		log.Printf("bulk job %s ended: %v", j.status.ID, err)
	} else {
		log.Printf("bulk job %s done: %d certificates, %d newly logged", j.status.ID, j.status.Total, j.status.Logged)
	}
}

func (m *Manager) update(j *job, fn func(*Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&j.status)
}

// evictLocked drops the oldest finished jobs beyond the retention limit.
func (m *Manager) evictLocked() {
	if len(m.jobs) <= m.keep {
		return
	}
	finished := []*job{}
	for _, j := range m.jobs {
		if j.status.State.Finished() {
			finished = append(finished, j)
		}
	}
	sort.Slice(finished, func(a, b int) bool {
		return finished[a].status.CreatedAt.Before(finished[b].status.CreatedAt)
	})
	for _, j := range finished {
		if len(m.jobs) <= m.keep {
			return
		}
		delete(m.jobs, j.status.ID)
	}
}

// Status returns the current status of job id.
func (m *Manager) Status(id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Status{}, ErrJobNotFound
	}
	return j.status, nil
}

// List returns all retained jobs, newest first.
func (m *Manager) List() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.status)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

// Wait blocks until job id finishes or ctx ends.
func (m *Manager) Wait(ctx context.Context, id string) (Status, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return Status{}, ErrJobNotFound
	}
	select {
	case <-j.done:
		return m.Status(id)
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Cancel stops a running job. Cancelling a finished job is a no-op.
func (m *Manager) Cancel(id string) (Status, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return Status{}, ErrJobNotFound
	}
	j.cancel()
	return m.Status(id)
}

// Archive returns the zip of a finished job.
func (m *Manager) Archive(id string) ([]byte, Status, error) {
	return m.artifact(id, func(j *job) []byte { return j.archive })
}

// Report returns the spreadsheet of a finished job's run.
func (m *Manager) Report(id string) ([]byte, Status, error) {
	return m.artifact(id, func(j *job) []byte { return j.report })
}

func (m *Manager) artifact(id string, pick func(*job) []byte) ([]byte, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, Status{}, ErrJobNotFound
	}
	if j.status.State != StateDone {
		return nil, j.status, ErrJobNotDone
	}
	return pick(j), j.status, nil
}
