package balanced

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/internal/report"
	"github.com/balancelab/balance-core/pkg/config"
	"github.com/balancelab/balance-core/pkg/utils"
)

// Status is the lifecycle state of a stored run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Progress is the latest progress snapshot of a running run.
type Progress struct {
	Fraction  float64 `json:"fraction"`
	BestScore float64 `json:"best_score"`
}

// RunRecord is the stored state of one optimization run.
type RunRecord struct {
	ID              string    `json:"id"`
	Status          Status    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAtUnixMs int64     `json:"created_at_unix_ms"`
	StartedAtUnixMs int64     `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64     `json:"ended_at_unix_ms,omitempty"`
	Progress        Progress  `json:"progress"`

	Job     *config.Job       `json:"-"`
	Report  *report.Report    `json:"report,omitempty"`
	History optimizer.History `json:"-"`
}

// RunStore keeps run records in memory, keyed by run ID.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*RunRecord),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create registers a new pending run. An empty runID gets a generated
// one.
func (s *RunStore) Create(runID string, job *config.Job) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("run already exists: %s", runID)
	}

	rec := &RunRecord{
		ID:              runID,
		Status:          StatusPending,
		CreatedAtUnixMs: nowUnixMs(),
		Job:             job,
	}
	s.runs[runID] = rec
	return rec.snapshot(), nil
}

// Get returns a copy of the run record.
func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.snapshot(), true
}

// List returns up to limit runs starting at offset, newest first.
func (s *RunStore) List(limit, offset int) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	all := make([]*RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAtUnixMs != all[j].CreatedAtUnixMs {
			return all[i].CreatedAtUnixMs > all[j].CreatedAtUnixMs
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]*RunRecord, len(all))
	for i, rec := range all {
		out[i] = rec.snapshot()
	}
	return out
}

// SetStatus transitions a run and stamps the transition time. Terminal
// records are never reopened.
func (s *RunStore) SetStatus(runID string, status Status, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if rec.Status.Terminal() && !status.Terminal() {
		return nil, fmt.Errorf("run is terminal: %s", runID)
	}

	rec.Status = status
	if errMsg != "" {
		rec.Error = errMsg
	}
	switch {
	case status == StatusRunning && rec.StartedAtUnixMs == 0:
		rec.StartedAtUnixMs = nowUnixMs()
	case status.Terminal() && rec.EndedAtUnixMs == 0:
		rec.EndedAtUnixMs = nowUnixMs()
	}
	return rec.snapshot(), nil
}

// SetProgress records the latest progress snapshot.
func (s *RunStore) SetProgress(runID string, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	rec.Progress = p
	return nil
}

// SetOutcome attaches the final report and trial history.
func (s *RunStore) SetOutcome(runID string, rep *report.Report, history optimizer.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	rec.Report = rep
	rec.History = history
	return nil
}

// snapshot copies the record so readers never observe in-place updates.
// The job, report, and history are treated as immutable once attached.
func (r *RunRecord) snapshot() *RunRecord {
	c := *r
	return &c
}
