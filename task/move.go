package task

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"curator/plan"
)

const (
	moveToolName        = "MoveFiles"
	moveToolDescription = "Moves files to new locations in the workspace, creating target folders as needed. Use for organizing, grouping, or restructuring files."
)

// moveAction is the compensating record for one applied move.
type moveAction struct {
	From string // original location
	To   string // current location
}

// MoveTask relocates selected files to model-proposed target paths.
type MoveTask struct {
	eng     *engine[plan.MoveOperation, moveAction]
	log     *zap.Logger
	context string
}

// NewMoveTask creates a move task bound to the given store.
func NewMoveTask(store Store, log *zap.Logger) *MoveTask {
	t := &MoveTask{log: log}
	t.eng = newEngine(store, log, hooks[plan.MoveOperation, moveAction]{
		targetDir: func(op plan.MoveOperation) string {
			return parentDir(op.TargetPath)
		},
		apply: func(op plan.MoveOperation) (moveAction, error) {
			if err := store.MoveOrRename(op.SourcePath, op.TargetPath); err != nil {
				return moveAction{}, err
			}
			return moveAction{From: op.SourcePath, To: op.TargetPath}, nil
		},
		originDir: func(act moveAction) string {
			return parentDir(act.From)
		},
		invert: func(act moveAction) error {
			return store.MoveOrRename(act.To, act.From)
		},
		describe: func(op plan.MoveOperation) string {
			return fmt.Sprintf("move %s -> %s", op.SourcePath, op.TargetPath)
		},
	})
	return t
}

func (t *MoveTask) Name() string            { return moveToolName }
func (t *MoveTask) ToolDescription() string { return moveToolDescription }
func (t *MoveTask) CanUndo() bool           { return true }
func (t *MoveTask) State() State            { return t.eng.state }
func (t *MoveTask) Status() string          { return t.eng.status }
func (t *MoveTask) SetContext(c string)     { t.context = c }

// GeneratePrompt builds the move prompt. Moving requires a selection; with
// nothing selected the instruction comes back unchanged so the caller knows
// the task cannot proceed.
func (t *MoveTask) GeneratePrompt(instruction string, selection []string) string {
	if len(selection) == 0 {
		return instruction
	}

	var b strings.Builder
	b.WriteString("You are a file organization assistant working inside a project workspace.\n\n")
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
	b.WriteString(`{"operations":[{"sourcePath":"Assets/a.png","targetPath":"Assets/Textures/a.png"}]}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use workspace-relative paths with forward slashes.\n")
	b.WriteString("- Only move files from the selected list.\n")
	b.WriteString("- Omit files that should stay where they are.\n")
	return b.String()
}

// ProcessResponse parses the model response into move operations. On parse
// failure the previous proposal is preserved.
func (t *MoveTask) ProcessResponse(raw string) error {
	ops, err := plan.Operations[plan.MoveOperation](raw)
	if err != nil {
		t.eng.status = fmt.Sprintf("Could not parse move plan: %v", err)
		t.log.Warn("move plan parse failed", zap.Error(err))
		return err
	}

	t.eng.propose(ops)
	t.eng.status = fmt.Sprintf("Proposed %d move operations.", len(ops))
	return nil
}

func (t *MoveTask) Execute() { t.eng.execute("move") }

func (t *MoveTask) Undo() { t.eng.undo(t.CanUndo(), "move") }

func (t *MoveTask) Result() string { return t.eng.status }

func (t *MoveTask) ProposalSummary() []string { return t.eng.proposalSummary() }
