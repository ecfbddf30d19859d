package task

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"curator/llm"
	"curator/plan"
)

const (
	orchestratorName        = "OrchestratePlan"
	orchestratorDescription = "Decomposes a high-level goal into an ordered sequence of tool invocations, threading each step's output into the next."
)

// Mode controls whether orchestrated steps wait for confirmation.
type Mode int

const (
	// ModeManual pauses after each step is proposed and waits for an
	// explicit confirmation before executing it.
	ModeManual Mode = iota

	// ModeAuto executes each step immediately after its response is
	// processed and chains the result into the next step's context.
	ModeAuto
)

// Orchestrator decomposes a user goal into ordered task invocations. It
// satisfies the Task lifecycle itself: the planning response is its proposal,
// and Execute drives every remaining step in auto-chain mode. There is no
// rollback across steps; a failed later step leaves earlier ones applied.
type Orchestrator struct {
	registry *Registry
	adapter  llm.Adapter
	log      *zap.Logger
	mode     Mode

	steps     []plan.PlannedStep
	subtasks  []Task // index-aligned with steps; nil when the tool is unknown
	cursor    int
	selection []string
	context   strings.Builder
	state     State
	status    string
}

// NewOrchestrator creates an orchestrator over the given tool registry.
func NewOrchestrator(registry *Registry, adapter llm.Adapter, log *zap.Logger, mode Mode) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		adapter:  adapter,
		log:      log,
		mode:     mode,
		state:    StateIdle,
	}
}

func (o *Orchestrator) Name() string            { return orchestratorName }
func (o *Orchestrator) ToolDescription() string { return orchestratorDescription }
func (o *Orchestrator) CanUndo() bool           { return false }
func (o *Orchestrator) State() State            { return o.state }
func (o *Orchestrator) Status() string          { return o.status }

// SetContext seeds the accumulated context handed to the first step.
func (o *Orchestrator) SetContext(c string) {
	o.context.Reset()
	o.context.WriteString(c)
}

// GeneratePrompt builds the planning prompt: the catalog of registered tools,
// the user's goal, and explicit formatting rules.
func (o *Orchestrator) GeneratePrompt(goal string, selection []string) string {
	o.selection = selection

	var b strings.Builder
	b.WriteString("You are a planning assistant for a project workspace. Decompose the user's goal into ordered steps, each handled by exactly one of the tools below.\n\n")
	b.WriteString("Available tools:\n")
	for _, info := range o.registry.Catalog() {
		fmt.Fprintf(&b, "- %s: %s\n", info.Name, info.Description)
	}
	if len(selection) > 0 {
		b.WriteString("\nSelected files:\n")
		for _, p := range selection {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	fmt.Fprintf(&b, "\nGoal: %s\n\n", goal)
	b.WriteString("Respond with JSON only, in exactly this shape:\n")
	b.WriteString(`{"steps":[{"toolName":"MoveFiles","instruction":"...","reasoning":"..."}]}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Each step automatically receives the output of all previous steps.\n")
	b.WriteString("- Steps that gather information must come before steps that act on it, e.g. read the log before filtering commits.\n")
	b.WriteString("- Use only the tool names listed above.\n")
	return b.String()
}

// ProcessResponse parses the planning response and instantiates one sub-task
// per step. Steps naming unknown tools are kept for display but cannot run.
func (o *Orchestrator) ProcessResponse(raw string) error {
	steps, err := plan.Steps(raw)
	if err != nil {
		o.status = fmt.Sprintf("Could not parse plan: %v", err)
		o.log.Warn("plan parse failed", zap.Error(err))
		return err
	}

	o.steps = steps
	o.subtasks = make([]Task, len(steps))
	o.cursor = 0
	for i, step := range steps {
		sub, err := o.registry.New(step.ToolName)
		if err != nil {
			o.log.Warn("step names an unknown tool, it will be skipped",
				zap.Int("step", i+1),
				zap.String("tool", step.ToolName))
			continue
		}
		o.subtasks[i] = sub
	}

	if len(steps) > 0 {
		o.state = StateProposed
	}
	o.status = fmt.Sprintf("Planned %d steps.", len(steps))
	return nil
}

// Steps returns the planned steps for display and audit.
func (o *Orchestrator) Steps() []plan.PlannedStep { return o.steps }

// Done reports whether every step has been processed.
func (o *Orchestrator) Done() bool { return o.cursor >= len(o.steps) }

// ProposeNext drives the current step through its prompt, model call, and
// response processing, returning the proposed sub-task for confirmation.
// Steps whose tool could not be resolved are skipped. Returns (nil, 0, nil)
// when the plan is exhausted.
func (o *Orchestrator) ProposeNext(ctx context.Context, selection []string) (Task, int, error) {
	for !o.Done() && o.subtasks[o.cursor] == nil {
		o.cursor++
	}
	if o.Done() {
		return nil, 0, nil
	}

	step := o.steps[o.cursor]
	sub := o.subtasks[o.cursor]
	sub.SetContext(o.context.String())

	prompt := sub.GeneratePrompt(step.Instruction, selection)
	resp, err := o.adapter.Send(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return nil, 0, fmt.Errorf("model request for step %d: %w", o.cursor+1, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, 0, fmt.Errorf("step %d: %w", o.cursor+1, llm.ErrEmptyResponse)
	}

	if err := sub.ProcessResponse(resp.Content); err != nil {
		return nil, 0, fmt.Errorf("response for step %d: %w", o.cursor+1, err)
	}

	return sub, o.cursor, nil
}

// ConfirmCurrent executes the currently proposed step, folds its textual
// result into the accumulated context under a step-numbered heading, and
// advances the cursor.
func (o *Orchestrator) ConfirmCurrent() {
	if o.Done() {
		return
	}
	sub := o.subtasks[o.cursor]
	if sub == nil {
		o.cursor++
		return
	}

	sub.Execute()
	fmt.Fprintf(&o.context, "## Step %d: %s\n%s\n\n",
		o.cursor+1, o.steps[o.cursor].ToolName, sub.Result())
	o.cursor++
}

// SkipCurrent advances past the current step without executing it.
func (o *Orchestrator) SkipCurrent() {
	if !o.Done() {
		o.cursor++
	}
}

// Run drives every remaining step to completion in auto-chain mode. A
// transport or parse failure stops the run; already-executed steps stay
// applied.
func (o *Orchestrator) Run(ctx context.Context, selection []string) error {
	executed := 0
	for !o.Done() {
		sub, _, err := o.ProposeNext(ctx, selection)
		if err != nil {
			o.status = fmt.Sprintf("Stopped after %d steps: %v", executed, err)
			return err
		}
		if sub == nil {
			break
		}
		o.ConfirmCurrent()
		executed++
	}

	o.state = StateExecuted
	o.status = fmt.Sprintf("Completed %d of %d planned steps.", executed, len(o.steps))
	return nil
}

// Execute drives the plan in auto-chain mode against the selection captured
// by GeneratePrompt. Manual gating goes through ProposeNext/ConfirmCurrent
// instead.
func (o *Orchestrator) Execute() {
	if o.state == StateExecuted {
		o.log.Debug("execute skipped, already executed")
		return
	}
	if err := o.Run(context.Background(), o.selection); err != nil {
		o.log.Warn("orchestrated run stopped early", zap.Error(err))
	}
}

// Undo is a no-op: an orchestrated plan is not reversible as a unit. Undo the
// individual steps instead.
func (o *Orchestrator) Undo() {
	o.log.Info("undo requested for an orchestrated plan, undo individual steps instead")
}

// Result returns the accumulated step output.
func (o *Orchestrator) Result() string { return o.context.String() }

// ProposalSummary renders the planned steps, marking unresolvable tools.
func (o *Orchestrator) ProposalSummary() []string {
	lines := make([]string, len(o.steps))
	for i, step := range o.steps {
		line := fmt.Sprintf("%d. %s: %s", i+1, step.ToolName, step.Instruction)
		if o.subtasks != nil && o.subtasks[i] == nil {
			line += " (unknown tool, will be skipped)"
		} else if step.Reasoning != "" {
			line += fmt.Sprintf(" (%s)", step.Reasoning)
		}
		lines[i] = line
	}
	return lines
}

// SubTask returns the instantiated task for a step, or nil when the step's
// tool was unknown.
func (o *Orchestrator) SubTask(i int) Task {
	if i < 0 || i >= len(o.subtasks) {
		return nil
	}
	return o.subtasks[i]
}
