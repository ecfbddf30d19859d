package plan

// MoveOperation relocates a single file to a new workspace-relative path.
type MoveOperation struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath"`
}

// RenameOperation gives a file a new name within its current directory.
type RenameOperation struct {
	OriginalPath string `json:"originalPath"`
	NewName      string `json:"newName"`
}

// CommandOperation is a single shell command proposed by the model.
type CommandOperation struct {
	Description string `json:"description"`
	Command     string `json:"command"`
}

// Document is the wire wrapper for a list of operations. A missing or empty
// "operations" key is a valid no-op plan, not an error.
type Document[O any] struct {
	Operations []O `json:"operations"`
}

// PlannedStep binds one orchestrated step to a named tool. Reasoning is
// advisory only and never affects control flow.
type PlannedStep struct {
	ToolName    string `json:"toolName"`
	Instruction string `json:"instruction"`
	Reasoning   string `json:"reasoning"`
}

// StepPlan is the wire wrapper for an orchestrated plan.
type StepPlan struct {
	Steps []PlannedStep `json:"steps"`
}
