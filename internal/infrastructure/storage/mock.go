package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	runs      map[int64]*Run
	outcomes  map[int64][]RowOutcome // Keyed by run ID
	nextRunID int64

	// Hooks for test assertions
	StartRunCalled    bool
	CompleteRunCalled bool
	FailRunCalled     bool
	SaveOutcomeCalls  int

	// Error injection for testing error paths
	StartRunErr    error
	CompleteRunErr error
	FailRunErr     error
	SaveOutcomeErr error
	ListRunsErr    error
	GetRunErr      error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:      make(map[int64]*Run),
		outcomes:  make(map[int64][]RowOutcome),
		nextRunID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// StartRun stores a new run and returns its ID
func (m *MockRepository) StartRun(run *Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}

	run.ID = m.nextRunID
	m.nextRunID++
	run.Status = RunRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	// Copy to avoid test mutations
	copied := *run
	m.runs[run.ID] = &copied
	return run.ID, nil
}

// CompleteRun marks a run as complete
func (m *MockRepository) CompleteRun(runID int64, counts RunCounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.RunCounts = counts
	run.Status = RunCompleted
	return nil
}

// FailRun marks a run as aborted or failed
func (m *MockRepository) FailRun(runID int64, status RunStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailRunCalled = true
	if m.FailRunErr != nil {
		return m.FailRunErr
	}

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Status = status
	run.ErrorMessage = message
	return nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if limit <= 0 {
		limit = 20
	}

	runs := make([]Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(runID int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// GetRunByKey retrieves a run by its key
func (m *MockRepository) GetRunByKey(key string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	for _, run := range m.runs {
		if run.RunKey == key {
			copied := *run
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("run %q: %w", key, ErrNotFound)
}

// SaveOutcome appends an outcome to its run
func (m *MockRepository) SaveOutcome(outcome *RowOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveOutcomeCalls++
	if m.SaveOutcomeErr != nil {
		return m.SaveOutcomeErr
	}
	outcome.ID = int64(m.SaveOutcomeCalls)
	m.outcomes[outcome.RunID] = append(m.outcomes[outcome.RunID], *outcome)
	return nil
}

// ListOutcomes returns the outcomes of a run in row order
func (m *MockRepository) ListOutcomes(runID int64) ([]RowOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := append([]RowOutcome{}, m.outcomes[runID]...)
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].RowIndex < outcomes[j].RowIndex })
	return outcomes, nil
}
