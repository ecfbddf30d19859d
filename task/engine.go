package task

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// hooks supplies the kind-specific behavior an engine needs. Apply and invert
// are injected rather than inherited so the lifecycle bookkeeping lives in
// exactly one place.
type hooks[O, A any] struct {
	// targetDir returns the directory an operation needs to exist before it
	// can be applied, or "" when none.
	targetDir func(op O) string

	// apply performs the operation and returns the compensating action that
	// reverses it.
	apply func(op O) (A, error)

	// originDir returns the directory that must exist again before the
	// action can be inverted, or "" when none.
	originDir func(act A) string

	// invert reverses one previously applied action.
	invert func(act A) error

	// describe renders one operation for status messages and proposals.
	describe func(op O) string
}

// engine drives the shared propose/execute/undo lifecycle for operation
// tasks. It owns the state machine, the compensating-action stack, and the
// created-folder bookkeeping; everything kind-specific comes in via hooks.
type engine[O, A any] struct {
	store Store
	log   *zap.Logger
	h     hooks[O, A]

	state   State
	ops     []O
	history []A // one entry per successful operation, execution order
	created map[string]struct{}
	status  string
}

func newEngine[O, A any](store Store, log *zap.Logger, h hooks[O, A]) *engine[O, A] {
	return &engine[O, A]{
		store:   store,
		log:     log,
		h:       h,
		state:   StateIdle,
		created: make(map[string]struct{}),
	}
}

// propose installs a freshly parsed operation list. An empty list is a valid
// no-op plan and leaves the task idle.
func (e *engine[O, A]) propose(ops []O) {
	e.ops = ops
	if len(ops) > 0 {
		e.state = StateProposed
	}
}

// execute applies every proposed operation in order, pushing a compensating
// action for each success and collecting errors for the rest. History and
// folder tracking are rebuilt from scratch, so calling execute after an undo
// is a full redo.
func (e *engine[O, A]) execute(noun string) {
	if e.state == StateExecuted {
		e.log.Debug("execute skipped, already executed")
		return
	}

	e.history = nil
	e.created = make(map[string]struct{})

	var errs []string
	for _, op := range e.ops {
		if dir := e.h.targetDir(op); dir != "" {
			e.ensureDir(dir)
		}

		act, err := e.h.apply(op)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", e.h.describe(op), err))
			e.log.Warn("operation failed",
				zap.String("operation", e.h.describe(op)),
				zap.Error(err))
			continue
		}
		e.history = append(e.history, act)
	}

	total := len(e.ops)
	if len(errs) == 0 {
		e.status = fmt.Sprintf("Applied %d/%d %s operations.", total, total, noun)
	} else {
		e.status = fmt.Sprintf("Applied %d/%d %s operations. Errors: %s",
			total-len(errs), total, noun, strings.Join(errs, "; "))
	}
	e.state = StateExecuted
}

// undo reverses the history stack in strict LIFO order, then prunes folders
// this execute pass created, deepest first, so children go before parents.
// Pre-existing folders that happen to become empty are never touched.
func (e *engine[O, A]) undo(canUndo bool, noun string) {
	if !canUndo {
		e.log.Info("undo requested for a task that cannot be undone")
		return
	}
	if e.state != StateExecuted || len(e.history) == 0 {
		return
	}

	undone := 0
	for i := len(e.history) - 1; i >= 0; i-- {
		act := e.history[i]

		if dir := e.h.originDir(act); dir != "" && !e.store.DirectoryExists(dir) {
			if err := e.store.CreateDirectory(dir); err != nil {
				e.log.Warn("failed to restore original directory",
					zap.String("dir", dir), zap.Error(err))
			}
		}

		if err := e.h.invert(act); err != nil {
			e.log.Warn("undo of operation failed", zap.Error(err))
			continue
		}
		undone++
	}

	dirs := make([]string, 0, len(e.created))
	for d := range e.created {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		e.store.DeleteIfEmpty(d)
	}

	e.history = nil
	e.status = fmt.Sprintf("Reverted %d %s operations.", undone, noun)
	e.state = StateUndone
}

// ensureDir creates dir if needed, recording only components that did not
// exist before this call so undo never deletes a pre-existing folder.
func (e *engine[O, A]) ensureDir(dir string) {
	var missing []string
	for p := dir; p != "" && p != "." && p != "/"; p = path.Dir(p) {
		if e.store.DirectoryExists(p) {
			break
		}
		missing = append(missing, p)
	}
	if len(missing) == 0 {
		return
	}

	if err := e.store.CreateDirectory(dir); err != nil {
		e.log.Warn("failed to create target directory",
			zap.String("dir", dir), zap.Error(err))
		return
	}
	for _, p := range missing {
		e.created[p] = struct{}{}
	}
}

func (e *engine[O, A]) proposalSummary() []string {
	lines := make([]string, len(e.ops))
	for i, op := range e.ops {
		lines[i] = e.h.describe(op)
	}
	return lines
}
