package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	apperrors "github.com/Joseda-hg/lazytodo/internal/errors"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

// target captures who a mutation writes for, so the result can be dropped if
// the identity changes while the adapter call is in flight.
type target struct {
	identity   model.Identity
	generation uint64
}

func (e *Engine) readyLocked() (target, bool) {
	if e.state != StateReady || e.identity == "" {
		return target{}, false
	}
	return target{identity: e.identity, generation: e.generation}, true
}

// Add persists a new task at order = current count, then prepends it to the
// collection. Callers trim and check the title; the engine does not.
func (e *Engine) Add(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	e.mu.Lock()
	t, ok := e.readyLocked()
	if !ok {
		e.mu.Unlock()
		return model.Task{}, ErrNotReady
	}
	draft.Order = len(e.tasks)
	e.mu.Unlock()

	created, err := e.adapter.Insert(ctx, t.identity, draft)
	if err != nil {
		e.notify(LevelError, "Failed to add task", err)
		return model.Task{}, err
	}

	e.mu.Lock()
	if t.generation != e.generation {
		e.mu.Unlock()
		return created, nil
	}
	e.tasks = append([]model.Task{created.Clone()}, e.tasks...)
	e.rederive()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snapshot)
	return created, nil
}

// Update merges patch into the task after the adapter accepts it. Unknown
// ids are a no-op.
func (e *Engine) Update(ctx context.Context, id string, patch model.TaskPatch) error {
	e.mu.Lock()
	t, ok := e.readyLocked()
	if !ok {
		e.mu.Unlock()
		return ErrNotReady
	}
	if indexOf(e.tasks, id) < 0 {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.adapter.Update(ctx, id, t.identity, patch); err != nil {
		e.notify(LevelError, "Failed to update task", err)
		return err
	}

	e.mu.Lock()
	index := indexOf(e.tasks, id)
	if t.generation != e.generation || index < 0 {
		e.mu.Unlock()
		return nil
	}
	e.tasks[index] = patch.Apply(e.tasks[index])
	e.rederive()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snapshot)
	return nil
}

// Delete removes the task after the adapter does. Remaining order values are
// left as they are; the next reorder closes the gap.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	t, ok := e.readyLocked()
	if !ok {
		e.mu.Unlock()
		return ErrNotReady
	}
	if indexOf(e.tasks, id) < 0 {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.adapter.Delete(ctx, id, t.identity); err != nil {
		e.notify(LevelError, "Failed to delete task", err)
		return err
	}

	e.mu.Lock()
	index := indexOf(e.tasks, id)
	if t.generation != e.generation || index < 0 {
		e.mu.Unlock()
		return nil
	}
	e.tasks = append(e.tasks[:index:index], e.tasks[index+1:]...)
	e.rederive()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snapshot)
	return nil
}

func (e *Engine) ToggleComplete(ctx context.Context, id string) error {
	e.mu.Lock()
	if _, ok := e.readyLocked(); !ok {
		e.mu.Unlock()
		return ErrNotReady
	}
	index := indexOf(e.tasks, id)
	if index < 0 {
		e.mu.Unlock()
		return nil
	}
	completed := e.tasks[index].Completed
	e.mu.Unlock()

	return e.Update(ctx, id, model.TaskPatch{Completed: model.BoolPtr(!completed)})
}

// Reorder moves the task at position from of the presented sequence to
// position to. The moved sequence comes first in the new arrangement, tasks
// hidden by the current filter follow in their previous manual order, and
// every task is renumbered 0..N-1. Only the presented order is meaningful to
// the user when the manual sort is active; under any other sort the next
// re-sort hides the move.
//
// The in-memory collection is updated before persisting. Writes are
// sequential and not rolled back on failure; Reload reconciles.
func (e *Engine) Reorder(ctx context.Context, from, to int) error {
	e.mu.Lock()
	t, ok := e.readyLocked()
	if !ok {
		e.mu.Unlock()
		return ErrNotReady
	}
	if from < 0 || from >= len(e.presented) || to < 0 || to >= len(e.presented) {
		count := len(e.presented)
		e.mu.Unlock()
		return apperrors.ValidationError{Field: "index", Reason: fmt.Sprintf("reorder %d -> %d outside 0..%d", from, to, count-1)}
	}

	moved := make([]model.Task, 0, len(e.tasks))
	for _, task := range e.presented {
		moved = append(moved, e.tasks[indexOf(e.tasks, task.ID)])
	}
	item := moved[from]
	moved = append(moved[:from], moved[from+1:]...)
	moved = append(moved[:to], append([]model.Task{item}, moved[to:]...)...)

	inPresented := make(map[string]struct{}, len(moved))
	for _, task := range moved {
		inPresented[task.ID] = struct{}{}
	}
	hidden := make([]model.Task, 0, len(e.tasks)-len(moved))
	for _, task := range e.tasks {
		if _, ok := inPresented[task.ID]; !ok {
			hidden = append(hidden, task)
		}
	}
	sort.SliceStable(hidden, func(i, j int) bool { return hidden[i].Order < hidden[j].Order })

	arranged := append(moved, hidden...)
	type write struct {
		id    string
		order int
	}
	var writes []write
	for i := range arranged {
		if arranged[i].Order != i {
			writes = append(writes, write{id: arranged[i].ID, order: i})
		}
		arranged[i] = arranged[i].Clone()
		arranged[i].Order = i
	}
	e.tasks = arranged
	e.rederive()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snapshot)

	var errs []error
	for _, w := range writes {
		if err := e.adapter.Update(ctx, w.id, t.identity, model.TaskPatch{Order: model.IntPtr(w.order)}); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		e.notify(LevelError, fmt.Sprintf("Failed to save new order for %d of %d tasks", len(errs), len(writes)), err)
		return err
	}
	return nil
}
