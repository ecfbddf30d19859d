package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"curator/task"
)

// Interaction is one user submission and the task serving it. Records own
// their task exclusively; clearing the history orphans the task, and any
// late status update for it is dropped silently.
type Interaction struct {
	ID          string
	Instruction string
	Selection   []string
	Task        task.Task
	Status      string
	CreatedAt   time.Time
}

// auditEntry is the persisted form of an interaction update.
type auditEntry struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Instruction string    `json:"instruction"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Manager owns the interaction records for one session and appends an audit
// trail under .curator/history/.
type Manager struct {
	mu        sync.Mutex
	records   []*Interaction
	auditFile string
	log       *zap.Logger
}

// NewManager creates a manager writing its audit trail into the workspace.
func NewManager(workspacePath string, log *zap.Logger) (*Manager, error) {
	historyDir := filepath.Join(workspacePath, ".curator", "history")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-1504")
	return &Manager{
		auditFile: filepath.Join(historyDir, fmt.Sprintf("%s.jsonl", timestamp)),
		log:       log,
	}, nil
}

// Add records a new interaction and returns it.
func (m *Manager) Add(instruction string, selection []string, t task.Task) *Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &Interaction{
		ID:          uuid.NewString(),
		Instruction: instruction,
		Selection:   selection,
		Task:        t,
		CreatedAt:   time.Now(),
	}
	m.records = append(m.records, rec)
	m.appendAudit(rec)
	return rec
}

// UpdateStatus sets the status of an interaction. An unknown ID, typically
// a record orphaned by Clear while its request was still in flight, is a
// silent no-op.
func (m *Manager) UpdateStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.ID == id {
			rec.Status = status
			m.appendAudit(rec)
			return
		}
	}
}

// All returns a snapshot of the interaction records, oldest first.
func (m *Manager) All() []*Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Interaction, len(m.records))
	copy(out, m.records)
	return out
}

// Last returns the most recent interaction, or nil.
func (m *Manager) Last() *Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) == 0 {
		return nil
	}
	return m.records[len(m.records)-1]
}

// LastUndoable returns the most recent interaction whose task is executed
// and reversible, or nil.
func (m *Manager) LastUndoable() *Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if rec.Task != nil && rec.Task.CanUndo() && rec.Task.State() == task.StateExecuted {
			return rec
		}
	}
	return nil
}

// LastUndone returns the most recent interaction whose task has been undone
// and can be redone, or nil.
func (m *Manager) LastUndone() *Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if rec.Task != nil && rec.Task.State() == task.StateUndone {
			return rec
		}
	}
	return nil
}

// Clear drops every record. Tasks still running against cleared records keep
// going; their updates simply land nowhere.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}

// appendAudit writes one JSONL entry. Audit failures are logged, never
// surfaced to the user. Caller holds the lock.
func (m *Manager) appendAudit(rec *Interaction) {
	tool := ""
	if rec.Task != nil {
		tool = rec.Task.Name()
	}
	entry := auditEntry{
		ID:          rec.ID,
		Tool:        tool,
		Instruction: rec.Instruction,
		Status:      rec.Status,
		Timestamp:   time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		m.log.Warn("failed to marshal audit entry", zap.Error(err))
		return
	}

	f, err := os.OpenFile(m.auditFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		m.log.Warn("failed to open audit file", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		m.log.Warn("failed to append audit entry", zap.Error(err))
	}
}
