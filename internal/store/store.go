package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Joseda-hg/lazytodo/internal/errors"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Adapter persists one identity's tasks. Every method rejects an empty
// identity without writing anything.
type Adapter interface {
	Load(ctx context.Context, identity model.Identity) ([]model.Task, error)
	Insert(ctx context.Context, identity model.Identity, draft model.TaskDraft) (model.Task, error)
	Update(ctx context.Context, id string, identity model.Identity, patch model.TaskPatch) error
	Delete(ctx context.Context, id string, identity model.Identity) error
}

// BlobStore is the key-value surface the local adapter writes through.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// HealthChecker is implemented by stores that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func requireIdentity(op, id string, identity model.Identity) error {
	if strings.TrimSpace(string(identity)) == "" {
		return apperrors.Storage(op, id, apperrors.ErrNoIdentity)
	}
	return nil
}

func validateDraft(draft model.TaskDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return apperrors.ValidationError{Field: "title", Reason: "required"}
	}
	if draft.Priority != "" && !draft.Priority.Valid() {
		return apperrors.ValidationError{Field: "priority", Reason: "must be low, medium or high"}
	}
	if draft.RecurringPattern != "" && !draft.RecurringPattern.Valid() {
		return apperrors.ValidationError{Field: "recurringPattern", Reason: "must be daily, weekly or monthly"}
	}
	if draft.Order < 0 {
		return apperrors.ValidationError{Field: "order", Reason: "must not be negative"}
	}
	return nil
}

func validatePatch(patch model.TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return apperrors.ValidationError{Field: "title", Reason: "required"}
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return apperrors.ValidationError{Field: "priority", Reason: "must be low, medium or high"}
	}
	if patch.RecurringPattern != nil && *patch.RecurringPattern != "" && !patch.RecurringPattern.Valid() {
		return apperrors.ValidationError{Field: "recurringPattern", Reason: "must be daily, weekly or monthly"}
	}
	return nil
}

func newTask(draft model.TaskDraft, now time.Time) model.Task {
	priority := draft.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	task := model.Task{
		ID:               uuid.NewString(),
		Title:            draft.Title,
		Description:      draft.Description,
		CreatedAt:        now,
		Priority:         priority,
		Tags:             model.NormalizeTags(draft.Tags),
		CategoryID:       draft.CategoryID,
		IsRecurring:      draft.IsRecurring,
		RecurringPattern: draft.RecurringPattern,
		Order:            draft.Order,
	}
	if draft.DueDate != nil {
		due := *draft.DueDate
		task.DueDate = &due
	}
	if draft.Reminder != nil {
		reminder := *draft.Reminder
		task.Reminder = &reminder
	}
	return task
}
