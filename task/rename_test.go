package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"curator/plan"
)

func TestRenameTaskFiltersNoopRenames(t *testing.T) {
	store := newFakeStore("Assets/img1.png", "Assets/img2.png")
	rt := NewRenameTask(store, zap.NewNop())

	// The model was told to omit unchanged names but included one anyway.
	resp := "```json\n" + `{"operations":[
		{"originalPath":"Assets/img1.png","newName":"hero.png"},
		{"originalPath":"Assets/img2.png","newName":"img2.png"}]}` + "\n```"
	require.NoError(t, rt.ProcessResponse(resp))

	summary := rt.ProposalSummary()
	require.Len(t, summary, 1, "no-op rename must be filtered before confirmation")
	assert.Contains(t, summary[0], "hero.png")
}

func TestRenameTaskLifecycle(t *testing.T) {
	store := newFakeStore("Assets/img1.png")
	rt := NewRenameTask(store, zap.NewNop())

	resp := `{"operations":[{"originalPath":"Assets/img1.png","newName":"hero.png"}]}`
	require.NoError(t, rt.ProcessResponse(resp))
	require.Equal(t, StateProposed, rt.State())

	rt.Execute()
	assert.Equal(t, StateExecuted, rt.State())
	assert.True(t, store.files["Assets/hero.png"])
	assert.False(t, store.files["Assets/img1.png"])
	assert.Len(t, rt.eng.history, 1)

	rt.Undo()
	assert.Equal(t, StateUndone, rt.State())
	assert.True(t, store.files["Assets/img1.png"])
	assert.False(t, store.files["Assets/hero.png"])
}

func TestRenameTaskDefensiveCheckBeforeRename(t *testing.T) {
	store := newFakeStore("Assets/img1.png")
	rt := NewRenameTask(store, zap.NewNop())

	// Bypass the post-parse filter: the primitive treats a no-op rename as
	// an error, so the apply hook must catch it without calling the store.
	rt.eng.propose([]plan.RenameOperation{{OriginalPath: "Assets/img1.png", NewName: "img1.png"}})

	rt.Execute()
	assert.Empty(t, store.moves, "the store primitive must never see a no-op rename")
	assert.Empty(t, rt.eng.history)
	assert.Contains(t, rt.Status(), "name unchanged")
}

func TestRenameTaskNeverCreatesDirectories(t *testing.T) {
	store := newFakeStore("Assets/img1.png")
	rt := NewRenameTask(store, zap.NewNop())

	resp := `{"operations":[{"originalPath":"Assets/img1.png","newName":"hero.png"}]}`
	require.NoError(t, rt.ProcessResponse(resp))
	rt.Execute()

	assert.Empty(t, rt.eng.created)
}

func TestRenameTaskPromptRules(t *testing.T) {
	rt := NewRenameTask(newFakeStore(), zap.NewNop())

	instruction := "snake_case everything"
	assert.Equal(t, instruction, rt.GeneratePrompt(instruction, nil))

	prompt := rt.GeneratePrompt(instruction, []string{"Assets/img1.png"})
	assert.Contains(t, prompt, "Omit files whose name does not change")
	assert.Contains(t, prompt, `"originalPath"`)
}
