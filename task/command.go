package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"curator/plan"
)

const (
	commandToolName        = "RunCommand"
	commandToolDescription = "Runs read-only shell commands in the workspace and reports their output, e.g. inspecting version control history or listing files. Output is available to later steps."
)

// CommandTask runs model-proposed shell commands. Commands are one-way:
// CanUndo is false and Undo is a logged no-op.
type CommandTask struct {
	store   Store
	log     *zap.Logger
	timeout time.Duration

	state   State
	status  string
	ops     []plan.CommandOperation
	output  string
	context string
}

// NewCommandTask creates a command task bound to the given store. timeout
// bounds each individual command.
func NewCommandTask(store Store, log *zap.Logger, timeout time.Duration) *CommandTask {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CommandTask{
		store:   store,
		log:     log,
		timeout: timeout,
		state:   StateIdle,
	}
}

func (t *CommandTask) Name() string            { return commandToolName }
func (t *CommandTask) ToolDescription() string { return commandToolDescription }
func (t *CommandTask) CanUndo() bool           { return false }
func (t *CommandTask) State() State            { return t.state }
func (t *CommandTask) Status() string          { return t.status }
func (t *CommandTask) SetContext(c string)     { t.context = c }

// GeneratePrompt builds the command prompt. A selection is optional here;
// commands can operate on the workspace as a whole.
func (t *CommandTask) GeneratePrompt(instruction string, selection []string) string {
	var b strings.Builder
	b.WriteString("You are a shell assistant working inside a project workspace.\n\n")
	if len(selection) > 0 {
		b.WriteString("Selected files:\n")
		for _, p := range selection {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}
	if t.context != "" {
		b.WriteString("Context from previous steps:\n")
		b.WriteString(t.context)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Instruction: %s\n\n", instruction)
	b.WriteString("Respond with JSON only, in exactly this shape:\n")
	b.WriteString(`{"operations":[{"description":"Show recent commits","command":"git log --oneline -10"}]}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- One self-contained command per entry.\n")
	b.WriteString("- No shell pipes, redirection, or command chaining.\n")
	b.WriteString("- Commands run from the workspace root.\n")
	return b.String()
}

// ProcessResponse parses the model response into command operations. On parse
// failure the previous proposal is preserved.
func (t *CommandTask) ProcessResponse(raw string) error {
	ops, err := plan.Operations[plan.CommandOperation](raw)
	if err != nil {
		t.status = fmt.Sprintf("Could not parse command plan: %v", err)
		t.log.Warn("command plan parse failed", zap.Error(err))
		return err
	}

	t.ops = ops
	if len(ops) > 0 {
		t.state = StateProposed
	}
	t.status = fmt.Sprintf("Proposed %d commands.", len(ops))
	return nil
}

// Execute runs each command in order, capturing combined output into a single
// log. The log doubles as the user-visible result and as context for later
// orchestrated steps. Failures are recorded and do not stop the batch.
func (t *CommandTask) Execute() {
	if t.state == StateExecuted {
		t.log.Debug("execute skipped, already executed")
		return
	}

	var out strings.Builder
	failed := 0
	for _, op := range t.ops {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		stdout, stderr, err := t.store.RunCommand(ctx, op.Command)
		cancel()

		fmt.Fprintf(&out, "### %s\n$ %s\n", op.Description, op.Command)
		if stdout != "" {
			out.WriteString(stdout)
			if !strings.HasSuffix(stdout, "\n") {
				out.WriteString("\n")
			}
		}
		if stderr != "" {
			out.WriteString(stderr)
			if !strings.HasSuffix(stderr, "\n") {
				out.WriteString("\n")
			}
		}
		if err != nil {
			failed++
			fmt.Fprintf(&out, "error: %v\n", err)
			t.log.Warn("command failed",
				zap.String("command", op.Command),
				zap.Error(err))
		}
		out.WriteString("\n")
	}

	t.output = out.String()
	total := len(t.ops)
	if failed == 0 {
		t.status = fmt.Sprintf("Ran %d/%d commands.", total, total)
	} else {
		t.status = fmt.Sprintf("Ran %d/%d commands, %d failed.", total-failed, total, failed)
	}
	t.state = StateExecuted
}

// Undo is a no-op: executed commands cannot be reversed.
func (t *CommandTask) Undo() {
	t.log.Info("undo requested for command task, commands cannot be undone")
}

func (t *CommandTask) Result() string { return t.output }

func (t *CommandTask) ProposalSummary() []string {
	lines := make([]string, len(t.ops))
	for i, op := range t.ops {
		lines[i] = fmt.Sprintf("%s: %s", op.Description, op.Command)
	}
	return lines
}
