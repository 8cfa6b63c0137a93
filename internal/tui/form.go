package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

const reminderLayout = "2006-01-02 15:04"

type formField struct {
	Label string
	Value string
	// Options turns the field into a picker cycled with space and arrows.
	Options []string
}

const (
	fieldTitle = iota
	fieldDescription
	fieldDue
	fieldPriority
	fieldTags
	fieldCategory
	fieldRecurring
	fieldReminder
)

const noneOption = "none"

var (
	priorityOptions  = []string{string(model.PriorityLow), string(model.PriorityMedium), string(model.PriorityHigh)}
	recurringOptions = []string{noneOption, string(model.RecurDaily), string(model.RecurWeekly), string(model.RecurMonthly)}
)

func categoryOptions() []string {
	options := []string{noneOption}
	for _, category := range model.Categories() {
		options = append(options, category.ID)
	}
	return options
}

func buildFormFields(task *model.Task) []formField {
	fields := []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Due (YYYY-MM-DD)"},
		{Label: "Priority (space/←→)", Options: priorityOptions},
		{Label: "Tags (comma separated)"},
		{Label: "Category (space/←→)", Options: categoryOptions()},
		{Label: "Repeat (space/←→)", Options: recurringOptions},
		{Label: "Reminder (YYYY-MM-DD HH:MM)"},
	}

	if task == nil {
		fields[fieldPriority].Value = string(model.PriorityMedium)
		fields[fieldCategory].Value = noneOption
		fields[fieldRecurring].Value = noneOption
		return fields
	}

	fields[fieldTitle].Value = task.Title
	fields[fieldDescription].Value = task.Description
	if task.DueDate != nil {
		fields[fieldDue].Value = task.DueDate.String()
	}
	fields[fieldPriority].Value = string(task.Priority)
	fields[fieldTags].Value = strings.Join(task.Tags, ", ")
	fields[fieldCategory].Value = noneOption
	if task.CategoryID != "" {
		fields[fieldCategory].Value = task.CategoryID
	}
	fields[fieldRecurring].Value = noneOption
	if task.IsRecurring && task.RecurringPattern != "" {
		fields[fieldRecurring].Value = string(task.RecurringPattern)
	}
	if task.Reminder != nil {
		fields[fieldReminder].Value = task.Reminder.Local().Format(reminderLayout)
	}
	return fields
}

// formValues is the parsed, validated content of a form.
type formValues struct {
	title       string
	description string
	due         *model.Date
	priority    model.Priority
	tags        []string
	categoryID  string
	recurring   model.RecurringPattern
	reminder    *time.Time
}

func parseFormFields(fields []formField) (formValues, error) {
	title := strings.TrimSpace(fields[fieldTitle].Value)
	if title == "" {
		return formValues{}, fmt.Errorf("title is required")
	}

	due, err := parseDue(fields[fieldDue].Value)
	if err != nil {
		return formValues{}, err
	}
	priority, ok := model.ParsePriority(fields[fieldPriority].Value)
	if !ok {
		return formValues{}, fmt.Errorf("invalid priority")
	}
	reminder, err := parseReminder(fields[fieldReminder].Value)
	if err != nil {
		return formValues{}, err
	}

	values := formValues{
		title:       title,
		description: strings.TrimSpace(fields[fieldDescription].Value),
		due:         due,
		priority:    priority,
		tags:        model.NormalizeTags(parseTags(fields[fieldTags].Value)),
		reminder:    reminder,
	}
	if category := strings.TrimSpace(fields[fieldCategory].Value); category != noneOption {
		values.categoryID = category
	}
	if pattern := strings.TrimSpace(fields[fieldRecurring].Value); pattern != noneOption && pattern != "" {
		values.recurring = model.RecurringPattern(pattern)
	}
	return values, nil
}

func (v formValues) draft() model.TaskDraft {
	return model.TaskDraft{
		Title:            v.title,
		Description:      v.description,
		DueDate:          v.due,
		Priority:         v.priority,
		Tags:             v.tags,
		CategoryID:       v.categoryID,
		Reminder:         v.reminder,
		IsRecurring:      v.recurring != "",
		RecurringPattern: v.recurring,
	}
}

// patch replaces every editable field, clearing optional ones left blank.
func (v formValues) patch() model.TaskPatch {
	tags := v.tags
	pattern := v.recurring
	patch := model.TaskPatch{
		Title:            model.StringPtr(v.title),
		Description:      model.StringPtr(v.description),
		Priority:         model.PriorityPtr(v.priority),
		Tags:             &tags,
		IsRecurring:      model.BoolPtr(v.recurring != ""),
		RecurringPattern: &pattern,
	}
	if v.due != nil {
		patch.DueDate = v.due
	} else {
		patch.ClearDueDate = true
	}
	if v.categoryID != "" {
		patch.CategoryID = model.StringPtr(v.categoryID)
	} else {
		patch.ClearCategory = true
	}
	if v.reminder != nil {
		patch.Reminder = v.reminder
	} else {
		patch.ClearReminder = true
	}
	return patch
}

func parseDue(value string) (*model.Date, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := model.ParseDate(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid due date")
	}
	return &parsed, nil
}

func parseReminder(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(reminderLayout, trimmed, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder")
	}
	return &parsed, nil
}

func parseTags(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func cycleOption(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	value := strings.TrimSpace(current)
	index := 0
	for i, option := range options {
		if option == value {
			index = i
			break
		}
	}
	index = (index + delta + len(options)) % len(options)
	return options[index]
}
