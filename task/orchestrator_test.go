package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const planResponse = "```json\n" + `{"steps":[
	{"toolName":"RunCommand","instruction":"list recently changed files","reasoning":"need the file list first"},
	{"toolName":"MoveFiles","instruction":"move the listed files into Archive","reasoning":"goal asks for archiving"}]}` + "\n```"

func newTestOrchestrator(store *fakeStore, adapter *fakeAdapter, mode Mode) *Orchestrator {
	registry := DefaultRegistry(store, zap.NewNop(), true, time.Second)
	return NewOrchestrator(registry, adapter, zap.NewNop(), mode)
}

func TestOrchestratorPromptListsCatalog(t *testing.T) {
	o := newTestOrchestrator(newFakeStore(), &fakeAdapter{}, ModeAuto)

	prompt := o.GeneratePrompt("archive old textures", []string{"Assets/a.png"})
	assert.Contains(t, prompt, "MoveFiles:")
	assert.Contains(t, prompt, "RenameFiles:")
	assert.Contains(t, prompt, "RunCommand:")
	assert.Contains(t, prompt, "archive old textures")
	assert.Contains(t, prompt, `"steps"`)
}

func TestOrchestratorProcessResponse(t *testing.T) {
	o := newTestOrchestrator(newFakeStore(), &fakeAdapter{}, ModeAuto)

	require.NoError(t, o.ProcessResponse(planResponse))
	assert.Equal(t, StateProposed, o.State())
	require.Len(t, o.Steps(), 2)
	assert.NotNil(t, o.SubTask(0))
	assert.NotNil(t, o.SubTask(1))
	assert.Equal(t, "RunCommand", o.Steps()[0].ToolName)
}

func TestOrchestratorUnknownToolRetainedButSkipped(t *testing.T) {
	o := newTestOrchestrator(newFakeStore(), &fakeAdapter{}, ModeAuto)

	resp := `{"steps":[
		{"toolName":"Teleport","instruction":"impossible","reasoning":""},
		{"toolName":"RenameFiles","instruction":"rename things","reasoning":""}]}`
	require.NoError(t, o.ProcessResponse(resp))

	// The step stays visible in the plan but has no runnable task.
	require.Len(t, o.Steps(), 2)
	assert.Nil(t, o.SubTask(0))
	assert.NotNil(t, o.SubTask(1))
	assert.Contains(t, o.ProposalSummary()[0], "unknown tool")
}

func TestOrchestratorAutoChainThreadsContext(t *testing.T) {
	store := newFakeStore("Assets/a.png")
	store.cmdOutput["git status --short"] = "M Assets/a.png\n"
	adapter := &fakeAdapter{responses: []string{
		`{"operations":[{"description":"changed files","command":"git status --short"}]}`,
		`{"operations":[{"sourcePath":"Assets/a.png","targetPath":"Archive/a.png"}]}`,
	}}
	o := newTestOrchestrator(store, adapter, ModeAuto)

	o.GeneratePrompt("archive modified assets", []string{"Assets/a.png"})
	require.NoError(t, o.ProcessResponse(planResponse))

	o.Execute()
	assert.Equal(t, StateExecuted, o.State())
	assert.Contains(t, o.Status(), "Completed 2 of 2")

	// Step 1 ran and its output reached step 2's prompt under a numbered
	// heading.
	require.Len(t, adapter.prompts, 2)
	assert.Contains(t, adapter.prompts[1], "## Step 1: RunCommand")
	assert.Contains(t, adapter.prompts[1], "M Assets/a.png")

	// Step 2 actually moved the file.
	assert.True(t, store.files["Archive/a.png"])
	assert.Contains(t, o.Result(), "## Step 2: MoveFiles")
}

func TestOrchestratorManualGating(t *testing.T) {
	store := newFakeStore("Assets/a.png")
	adapter := &fakeAdapter{responses: []string{
		`{"operations":[{"description":"look","command":"ls"}]}`,
		`{"operations":[{"sourcePath":"Assets/a.png","targetPath":"Archive/a.png"}]}`,
	}}
	o := newTestOrchestrator(store, adapter, ModeManual)

	require.NoError(t, o.ProcessResponse(planResponse))

	sub, i, err := o.ProposeNext(context.Background(), []string{"Assets/a.png"})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, 0, i)
	assert.Equal(t, StateProposed, sub.State())
	assert.Empty(t, store.commands, "nothing executes before confirmation")

	o.ConfirmCurrent()
	assert.Len(t, store.commands, 1)

	sub, i, err = o.ProposeNext(context.Background(), []string{"Assets/a.png"})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, 1, i)

	// Declining a step skips it without executing.
	o.SkipCurrent()
	assert.False(t, store.files["Archive/a.png"])
	assert.True(t, o.Done())
}

func TestOrchestratorNoCrossStepRollback(t *testing.T) {
	store := newFakeStore("Assets/a.png")
	adapter := &fakeAdapter{responses: []string{
		`{"operations":[{"sourcePath":"Assets/a.png","targetPath":"Archive/a.png"}]}`,
		"this is not a plan at all",
	}}
	registry := DefaultRegistry(store, zap.NewNop(), true, time.Second)
	o := NewOrchestrator(registry, adapter, zap.NewNop(), ModeAuto)

	resp := `{"steps":[
		{"toolName":"MoveFiles","instruction":"archive it","reasoning":""},
		{"toolName":"MoveFiles","instruction":"second move","reasoning":""}]}`
	require.NoError(t, o.ProcessResponse(resp))

	err := o.Run(context.Background(), []string{"Assets/a.png"})
	require.Error(t, err)

	// The failed second step leaves the first step's effects in place.
	assert.True(t, store.files["Archive/a.png"])
}

func TestOrchestratorTransportFailure(t *testing.T) {
	adapter := &fakeAdapter{err: errors.New("connection refused")}
	o := newTestOrchestrator(newFakeStore("Assets/a.png"), adapter, ModeAuto)

	require.NoError(t, o.ProcessResponse(planResponse))

	err := o.Run(context.Background(), []string{"Assets/a.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
}

func TestOrchestratorParseFailureSetsStatus(t *testing.T) {
	o := newTestOrchestrator(newFakeStore(), &fakeAdapter{}, ModeAuto)

	err := o.ProcessResponse("no json here")
	require.Error(t, err)
	assert.Contains(t, o.Status(), "Could not parse")
	assert.Equal(t, StateIdle, o.State())
}
