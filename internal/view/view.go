package view

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

var filterOrder = []Filter{FilterAll, FilterActive, FilterCompleted}

func ParseFilter(value string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", value)
	}
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	return cycle(filterOrder, f)
}

type SortKey string

const (
	SortDate     SortKey = "date"
	SortDueDate  SortKey = "dueDate"
	SortPriority SortKey = "priority"
	SortName     SortKey = "name"
	// SortManual follows the order field set by drag reordering.
	SortManual SortKey = "manual"
)

var sortOrder = []SortKey{SortDate, SortDueDate, SortPriority, SortName, SortManual}

func ParseSort(value string) (SortKey, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return SortDate, nil
	}
	for _, key := range sortOrder {
		if strings.EqualFold(trimmed, string(key)) {
			return key, nil
		}
	}
	return "", fmt.Errorf("unknown sort %q", value)
}

func (k SortKey) Next() SortKey {
	return cycle(sortOrder, k)
}

func cycle[T comparable](values []T, current T) T {
	for i, value := range values {
		if value == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// Params are the engine-local view parameters.
type Params struct {
	Filter     Filter   `json:"filter"`
	Sort       SortKey  `json:"sort"`
	Search     string   `json:"search"`
	CategoryID string   `json:"categoryId,omitempty"`
	Tags       []string `json:"tags"`
	// Locale drives name collation; empty means the root collation.
	Locale language.Tag `json:"-"`
}

func DefaultParams() Params {
	return Params{Filter: FilterAll, Sort: SortDate, Tags: []string{}}
}

// Present filters, searches and sorts tasks. The input is not modified.
func Present(tasks []model.Task, params Params) []model.Task {
	visible := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if !matchesStatus(task, params.Filter) {
			continue
		}
		if params.CategoryID != "" && task.CategoryID != params.CategoryID {
			continue
		}
		if !matchesTags(task, params.Tags) {
			continue
		}
		if !matchesSearch(task, params.Search) {
			continue
		}
		visible = append(visible, task.Clone())
	}
	Sort(visible, params.Sort, params.Locale)
	return visible
}

func matchesStatus(task model.Task, filter Filter) bool {
	switch filter {
	case FilterActive:
		return !task.Completed
	case FilterCompleted:
		return task.Completed
	default:
		return true
	}
}

func matchesTags(task model.Task, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if task.HasTag(tag) {
			return true
		}
	}
	return false
}

func matchesSearch(task model.Task, query string) bool {
	if query == "" {
		return true
	}
	needle := strings.ToLower(query)
	if strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle) {
		return true
	}
	for _, tag := range task.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Sort orders tasks in place. It is stable for equal keys.
func Sort(tasks []model.Task, key SortKey, locale language.Tag) {
	switch key {
	case SortDueDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueDate, tasks[j].DueDate
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return a.Before(*b)
		})
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
		})
	case SortName:
		// Case only breaks ties at the tertiary level, so "apple" < "Apple" < "banana".
		// Collators keep internal buffers, so each sort gets its own.
		collator := collate.New(locale)
		sort.SliceStable(tasks, func(i, j int) bool {
			return collator.CompareString(tasks[i].Title, tasks[j].Title) < 0
		})
	case SortManual:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Order < tasks[j].Order
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	}
}
