package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"curator/task"
)

// stubTask is a minimal Task for exercising the manager.
type stubTask struct {
	name    string
	state   task.State
	canUndo bool
}

func (s *stubTask) Name() string                               { return s.name }
func (s *stubTask) ToolDescription() string                    { return "stub" }
func (s *stubTask) CanUndo() bool                              { return s.canUndo }
func (s *stubTask) State() task.State                          { return s.state }
func (s *stubTask) Status() string                             { return "" }
func (s *stubTask) SetContext(string)                          {}
func (s *stubTask) GeneratePrompt(i string, _ []string) string { return i }
func (s *stubTask) ProcessResponse(string) error               { return nil }
func (s *stubTask) Execute()                                   { s.state = task.StateExecuted }
func (s *stubTask) Undo()                                      { s.state = task.StateUndone }
func (s *stubTask) Result() string                             { return "" }
func (s *stubTask) ProposalSummary() []string                  { return nil }

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir, zap.NewNop())
	require.NoError(t, err)
	return m, dir
}

func TestAddAndUpdateStatus(t *testing.T) {
	m, _ := newTestManager(t)

	rec := m.Add("organize textures", []string{"Assets/a.png"}, &stubTask{name: "MoveFiles"})
	require.NotEmpty(t, rec.ID)

	m.UpdateStatus(rec.ID, "Applied 1/1 move operations.")
	assert.Equal(t, "Applied 1/1 move operations.", m.Last().Status)
}

func TestUpdateStatusAfterClearIsSilent(t *testing.T) {
	m, _ := newTestManager(t)

	rec := m.Add("organize", nil, &stubTask{name: "MoveFiles"})
	m.Clear()

	// A request resolving after the history was cleared targets an orphaned
	// record; the update lands nowhere and nothing blows up.
	m.UpdateStatus(rec.ID, "Done")
	assert.Nil(t, m.Last())
}

func TestLastUndoable(t *testing.T) {
	m, _ := newTestManager(t)

	m.Add("one-way", nil, &stubTask{name: "RunCommand", state: task.StateExecuted, canUndo: false})
	undoable := &stubTask{name: "MoveFiles", state: task.StateExecuted, canUndo: true}
	m.Add("reversible", nil, undoable)
	m.Add("pending", nil, &stubTask{name: "MoveFiles", state: task.StateProposed, canUndo: true})

	rec := m.LastUndoable()
	require.NotNil(t, rec)
	assert.Same(t, undoable, rec.Task.(*stubTask))
}

func TestLastUndone(t *testing.T) {
	m, _ := newTestManager(t)

	assert.Nil(t, m.LastUndone())

	st := &stubTask{name: "MoveFiles", state: task.StateUndone, canUndo: true}
	m.Add("undone", nil, st)

	rec := m.LastUndone()
	require.NotNil(t, rec)
	assert.Same(t, st, rec.Task.(*stubTask))
}

func TestAuditTrailWritten(t *testing.T) {
	m, dir := newTestManager(t)

	rec := m.Add("organize textures", nil, &stubTask{name: "MoveFiles"})
	m.UpdateStatus(rec.ID, "Applied 1/1 move operations.")

	entries, err := os.ReadDir(filepath.Join(dir, ".curator", "history"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, ".curator", "history", entries[0].Name()))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2, "one audit line per add and per update")
	assert.Contains(t, lines[0], "organize textures")
	assert.Contains(t, lines[1], "Applied 1/1")
}
