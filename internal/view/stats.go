package view

import (
	"fmt"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type Stats struct {
	Total             int `json:"total"`
	Completed         int `json:"completed"`
	Active            int `json:"active"`
	Overdue           int `json:"overdue"`
	CompletedToday    int `json:"completedToday"`
	CompletedThisWeek int `json:"completedThisWeek"`
}

// ComputeStats aggregates the full collection relative to now. The
// "completed today/this week" counters bucket by CreatedAt because tasks
// carry no completion timestamp.
func ComputeStats(tasks []model.Task, now time.Time) Stats {
	today := model.DateOf(now)
	weekStart, weekEnd := weekBounds(now)

	stats := Stats{Total: len(tasks)}
	for _, task := range tasks {
		if !task.Completed {
			stats.Active++
			if IsOverdue(task, today) {
				stats.Overdue++
			}
			continue
		}
		stats.Completed++
		created := task.CreatedAt.In(now.Location())
		if model.DateOf(created) == today {
			stats.CompletedToday++
		}
		if !created.Before(weekStart) && created.Before(weekEnd) {
			stats.CompletedThisWeek++
		}
	}
	return stats
}

// IsOverdue reports whether an active task's due date lies strictly before today.
func IsOverdue(task model.Task, today model.Date) bool {
	return !task.Completed && task.DueDate != nil && task.DueDate.Before(today)
}

// weekBounds returns the Sunday-to-Sunday week containing now.
func weekBounds(now time.Time) (time.Time, time.Time) {
	midnight := model.DateOf(now).In(now.Location())
	start := midnight.AddDate(0, 0, -int(now.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

type SuggestionKind string

const (
	SuggestOverdue      SuggestionKind = "overdue"
	SuggestCongratulate SuggestionKind = "congratulate"
	SuggestPrioritize   SuggestionKind = "prioritize"
)

type Suggestion struct {
	Kind    SuggestionKind `json:"kind"`
	Message string         `json:"message"`
}

const (
	congratulateThreshold = 5
	highPriorityLimit     = 3
)

// Suggest derives hints in fixed order: overdue, congratulation, prioritization.
func Suggest(tasks []model.Task, stats Stats) []Suggestion {
	suggestions := []Suggestion{}
	if stats.Overdue > 0 {
		suggestions = append(suggestions, Suggestion{
			Kind:    SuggestOverdue,
			Message: fmt.Sprintf("You have %d overdue %s. Consider rescheduling or tackling them first.", stats.Overdue, plural(stats.Overdue, "task", "tasks")),
		})
	}
	if stats.CompletedToday >= congratulateThreshold {
		suggestions = append(suggestions, Suggestion{
			Kind:    SuggestCongratulate,
			Message: fmt.Sprintf("Great job! You've completed %d tasks today.", stats.CompletedToday),
		})
	}

	highActive := 0
	for _, task := range tasks {
		if !task.Completed && task.Priority == model.PriorityHigh {
			highActive++
		}
	}
	if highActive > highPriorityLimit {
		suggestions = append(suggestions, Suggestion{
			Kind:    SuggestPrioritize,
			Message: fmt.Sprintf("You have %d high-priority tasks. Consider focusing on the most important ones first.", highActive),
		})
	}
	return suggestions
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
