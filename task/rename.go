package task

import (
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"curator/plan"
)

const (
	renameToolName        = "RenameFiles"
	renameToolDescription = "Renames files in place following a naming scheme or convention. Files keep their current directory."
)

// renameAction is the compensating record for one applied rename.
type renameAction struct {
	From string // original path
	To   string // current path after the rename
}

// RenameTask renames selected files in place.
type RenameTask struct {
	eng     *engine[plan.RenameOperation, renameAction]
	log     *zap.Logger
	context string
}

// NewRenameTask creates a rename task bound to the given store.
func NewRenameTask(store Store, log *zap.Logger) *RenameTask {
	t := &RenameTask{log: log}
	t.eng = newEngine(store, log, hooks[plan.RenameOperation, renameAction]{
		// Renames never leave the file's directory, so no folders are created.
		targetDir: func(plan.RenameOperation) string { return "" },
		apply: func(op plan.RenameOperation) (renameAction, error) {
			// The store treats a no-op rename as an error, so check again
			// here even though ProcessResponse already filtered these out.
			if path.Base(op.OriginalPath) == op.NewName {
				return renameAction{}, fmt.Errorf("name unchanged: %s", op.NewName)
			}
			newPath := path.Join(path.Dir(op.OriginalPath), op.NewName)
			if err := store.MoveOrRename(op.OriginalPath, newPath); err != nil {
				return renameAction{}, err
			}
			return renameAction{From: op.OriginalPath, To: newPath}, nil
		},
		originDir: func(act renameAction) string {
			return parentDir(act.From)
		},
		invert: func(act renameAction) error {
			return store.MoveOrRename(act.To, act.From)
		},
		describe: func(op plan.RenameOperation) string {
			return fmt.Sprintf("rename %s -> %s", op.OriginalPath, op.NewName)
		},
	})
	return t
}

func (t *RenameTask) Name() string            { return renameToolName }
func (t *RenameTask) ToolDescription() string { return renameToolDescription }
func (t *RenameTask) CanUndo() bool           { return true }
func (t *RenameTask) State() State            { return t.eng.state }
func (t *RenameTask) Status() string          { return t.eng.status }
func (t *RenameTask) SetContext(c string)     { t.context = c }

// GeneratePrompt builds the rename prompt. Requires a selection.
func (t *RenameTask) GeneratePrompt(instruction string, selection []string) string {
	if len(selection) == 0 {
		return instruction
	}

	var b strings.Builder
	b.WriteString("You are a file naming assistant working inside a project workspace.\n\n")
	b.WriteString("Selected files:\n")
	for _, p := range selection {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	if t.context != "" {
		b.WriteString("\nContext from previous steps:\n")
		b.WriteString(t.context)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nInstruction: %s\n\n", instruction)
	b.WriteString("Respond with JSON only, in exactly this shape:\n")
	b.WriteString(`{"operations":[{"originalPath":"Assets/img1.png","newName":"hero_portrait.png"}]}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- newName is a file name only, never a path.\n")
	b.WriteString("- Keep the original file extension.\n")
	b.WriteString("- Omit files whose name does not change.\n")
	return b.String()
}

// ProcessResponse parses the model response into rename operations, dropping
// entries whose new name equals the current one. Models include no-op renames
// despite being told not to.
func (t *RenameTask) ProcessResponse(raw string) error {
	ops, err := plan.Operations[plan.RenameOperation](raw)
	if err != nil {
		t.eng.status = fmt.Sprintf("Could not parse rename plan: %v", err)
		t.log.Warn("rename plan parse failed", zap.Error(err))
		return err
	}

	filtered := ops[:0:0]
	for _, op := range ops {
		if path.Base(op.OriginalPath) == op.NewName {
			t.log.Debug("dropping no-op rename", zap.String("path", op.OriginalPath))
			continue
		}
		filtered = append(filtered, op)
	}

	t.eng.propose(filtered)
	t.eng.status = fmt.Sprintf("Proposed %d rename operations.", len(filtered))
	return nil
}

func (t *RenameTask) Execute() { t.eng.execute("rename") }

func (t *RenameTask) Undo() { t.eng.undo(t.CanUndo(), "rename") }

func (t *RenameTask) Result() string { return t.eng.status }

func (t *RenameTask) ProposalSummary() []string { return t.eng.proposalSummary() }
