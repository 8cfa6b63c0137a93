package model

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities so that high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func ParsePriority(value string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(value)))
	if p == "" {
		return PriorityMedium, true
	}
	return p, p.Valid()
}

type RecurringPattern string

const (
	RecurDaily   RecurringPattern = "daily"
	RecurWeekly  RecurringPattern = "weekly"
	RecurMonthly RecurringPattern = "monthly"
)

func (r RecurringPattern) Valid() bool {
	return r == RecurDaily || r == RecurWeekly || r == RecurMonthly
}

// Identity is the opaque user id that scopes a task collection.
type Identity string

type Task struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	Completed        bool             `json:"completed"`
	CreatedAt        time.Time        `json:"createdAt"`
	DueDate          *Date            `json:"dueDate,omitempty"`
	Priority         Priority         `json:"priority"`
	Tags             []string         `json:"tags"`
	CategoryID       string           `json:"categoryId,omitempty"`
	Reminder         *time.Time       `json:"reminder,omitempty"`
	IsRecurring      bool             `json:"isRecurring"`
	RecurringPattern RecurringPattern `json:"recurringPattern,omitempty"`
	Order            int              `json:"order"`
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Task) Clone() Task {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.Reminder != nil {
		reminder := *t.Reminder
		out.Reminder = &reminder
	}
	return out
}

func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// TaskDraft holds the fields accepted when creating a task. The adapter
// assigns ID and CreatedAt.
type TaskDraft struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	DueDate          *Date            `json:"dueDate"`
	Priority         Priority         `json:"priority"`
	Tags             []string         `json:"tags"`
	CategoryID       string           `json:"categoryId"`
	Reminder         *time.Time       `json:"reminder"`
	IsRecurring      bool             `json:"isRecurring"`
	RecurringPattern RecurringPattern `json:"recurringPattern"`
	Order            int              `json:"order"`
}

// TaskPatch is a partial update. A nil pointer means "no change"; the Clear
// flags unset optional values. ID and CreatedAt have no field here.
type TaskPatch struct {
	Title            *string           `json:"title,omitempty"`
	Description      *string           `json:"description,omitempty"`
	Completed        *bool             `json:"completed,omitempty"`
	DueDate          *Date             `json:"dueDate,omitempty"`
	ClearDueDate     bool              `json:"clearDueDate,omitempty"`
	Priority         *Priority         `json:"priority,omitempty"`
	Tags             *[]string         `json:"tags,omitempty"`
	CategoryID       *string           `json:"categoryId,omitempty"`
	ClearCategory    bool              `json:"clearCategory,omitempty"`
	Reminder         *time.Time        `json:"reminder,omitempty"`
	ClearReminder    bool              `json:"clearReminder,omitempty"`
	IsRecurring      *bool             `json:"isRecurring,omitempty"`
	RecurringPattern *RecurringPattern `json:"recurringPattern,omitempty"`
	Order            *int              `json:"order,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Priority == nil && p.Tags == nil &&
		p.CategoryID == nil && !p.ClearCategory && p.Reminder == nil && !p.ClearReminder &&
		p.IsRecurring == nil && p.RecurringPattern == nil && p.Order == nil
}

// Apply merges the supplied fields into a copy of task.
func (p TaskPatch) Apply(task Task) Task {
	out := task.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		out.DueDate = &due
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Tags != nil {
		out.Tags = NormalizeTags(*p.Tags)
	}
	if p.ClearCategory {
		out.CategoryID = ""
	} else if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	if p.ClearReminder {
		out.Reminder = nil
	} else if p.Reminder != nil {
		reminder := *p.Reminder
		out.Reminder = &reminder
	}
	if p.IsRecurring != nil {
		out.IsRecurring = *p.IsRecurring
	}
	if p.RecurringPattern != nil {
		out.RecurringPattern = *p.RecurringPattern
	}
	if p.Order != nil {
		out.Order = *p.Order
	}
	return out
}

// NormalizeTags trims labels, drops empty ones and removes case-insensitive
// duplicates, keeping the first spelling seen.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func StringPtr(value string) *string { return &value }

func BoolPtr(value bool) *bool { return &value }

func IntPtr(value int) *int { return &value }

func PriorityPtr(value Priority) *Priority { return &value }
