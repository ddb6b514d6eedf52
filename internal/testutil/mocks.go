package testutil

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/rpytools/orphanclean/internal/journal"
)

// MockJournal records runs in memory
type MockJournal struct {
	mu     sync.Mutex
	Runs   map[string]journal.Run
	Errors map[string]error
	Calls  []string
}

// NewMockJournal creates an empty mock journal
func NewMockJournal() *MockJournal {
	return &MockJournal{
		Runs:   make(map[string]journal.Run),
		Errors: make(map[string]error),
	}
}

// Record mocks storing a run
func (m *MockJournal) Record(ctx context.Context, run journal.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, fmt.Sprintf("RECORD %s", run.ID))

	if err, ok := m.Errors[run.ID]; ok {
		return err
	}

	m.Runs[run.ID] = run
	return nil
}

// Get mocks looking up a run
func (m *MockJournal) Get(ctx context.Context, id string) (journal.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, fmt.Sprintf("GET %s", id))

	if err, ok := m.Errors[id]; ok {
		return journal.Run{}, err
	}

	if run, ok := m.Runs[id]; ok {
		return run, nil
	}

	return journal.Run{}, fmt.Errorf("%w: %s", journal.ErrRunNotFound, id)
}

// Only returns the single recorded run, failing when there is not exactly one
func (m *MockJournal) Only() (journal.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Runs) != 1 {
		return journal.Run{}, fmt.Errorf("expected 1 recorded run, got %d", len(m.Runs))
	}
	for _, run := range m.Runs {
		return run, nil
	}
	return journal.Run{}, nil
}
