package task

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Every task kind satisfies the shared lifecycle contract.
var (
	_ Task = (*MoveTask)(nil)
	_ Task = (*RenameTask)(nil)
	_ Task = (*CommandTask)(nil)
	_ Task = (*Orchestrator)(nil)
)

// ToolInfo pairs a registered tool name with its planner-facing description.
type ToolInfo struct {
	Name        string
	Description string
}

// Factory creates a fresh task instance. Tasks are never reused across
// requests, so every lookup goes through a factory.
type Factory func() Task

type registration struct {
	description string
	factory     Factory
}

// Registry maps tool names to task factories. It is populated explicitly at
// startup; there is no runtime type discovery.
type Registry struct {
	order   []string
	entries map[string]registration
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register adds a tool under the given name, replacing any previous entry.
func (r *Registry) Register(name, description string, factory Factory) {
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = registration{description: description, factory: factory}
}

// New instantiates a fresh task for the named tool. Unknown names yield an
// error wrapping ErrUnknownTool.
func (r *Registry) New(name string) (Task, error) {
	reg, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return reg.factory(), nil
}

// Catalog returns every registered tool in registration order, for embedding
// into the planner prompt.
func (r *Registry) Catalog() []ToolInfo {
	infos := make([]ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, ToolInfo{Name: name, Description: r.entries[name].description})
	}
	return infos
}

// DefaultRegistry registers the built-in tools. The command runner is only
// available when shell execution is enabled in config.
func DefaultRegistry(store Store, log *zap.Logger, enableShell bool, commandTimeout time.Duration) *Registry {
	r := NewRegistry()
	r.Register(moveToolName, moveToolDescription, func() Task {
		return NewMoveTask(store, log)
	})
	r.Register(renameToolName, renameToolDescription, func() Task {
		return NewRenameTask(store, log)
	})
	if enableShell {
		r.Register(commandToolName, commandToolDescription, func() Task {
			return NewCommandTask(store, log, commandTimeout)
		})
	}
	return r
}
