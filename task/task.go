package task

import (
	"context"
	"errors"
	"path"
)

// State represents where a task is in its lifecycle
type State string

const (
	StateIdle     State = "idle"     // nothing proposed yet
	StateProposed State = "proposed" // plan parsed, awaiting confirmation
	StateExecuted State = "executed" // actions applied
	StateUndone   State = "undone"   // actions reversed; Execute again to redo
)

// ErrUnknownTool is returned when a plan names a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool name")

// Store is the filesystem/VCS boundary operation tasks execute against.
// Paths are workspace-relative with forward slashes.
type Store interface {
	// MoveOrRename moves or renames a single path. A no-op move (identical
	// source and target) is an error.
	MoveOrRename(sourcePath, targetPath string) error

	// DirectoryExists reports whether path is an existing directory.
	DirectoryExists(path string) bool

	// CreateDirectory creates path and any missing parents.
	CreateDirectory(path string) error

	// DeleteIfEmpty removes path only if it is an empty directory.
	DeleteIfEmpty(path string)

	// RunCommand executes a shell command in the workspace and returns its
	// captured stdout and stderr.
	RunCommand(ctx context.Context, command string) (stdout, stderr string, err error)
}

// Task is the unit owning one instruction's full propose/execute/undo
// lifecycle. Instances are created fresh per user request and never reused.
type Task interface {
	// Name returns the registered tool name
	Name() string

	// ToolDescription returns the capability string the planner selects by
	ToolDescription() string

	// CanUndo reports whether Undo can reverse this task's effects
	CanUndo() bool

	// State returns the current lifecycle state
	State() State

	// Status returns the last human-readable status message
	Status() string

	// SetContext injects accumulated output from prior orchestrated steps
	SetContext(context string)

	// GeneratePrompt builds a provider-ready prompt for the instruction.
	// When a required selection is empty, the instruction is returned
	// unchanged as a signal that the task cannot proceed.
	GeneratePrompt(instruction string, selection []string) string

	// ProcessResponse parses a raw model response into proposed operations.
	// On parse failure the previous proposal, if any, is left untouched.
	ProcessResponse(raw string) error

	// Execute applies the proposed operations. Per-operation failures are
	// collected into the status message, not raised.
	Execute()

	// Undo reverses the last Execute in strict LIFO order. A no-op unless
	// the task is executed, undoable, and has history.
	Undo()

	// Result returns the textual outcome handed to a later orchestrated step
	Result() string

	// ProposalSummary returns one display line per proposed operation
	ProposalSummary() []string
}

// parentDir returns the parent directory of a workspace-relative path, or ""
// when the path has no parent worth tracking.
func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
