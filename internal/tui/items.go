package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

type tagCountEntry struct {
	Name   string
	Count  int
	Active bool
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "no tags"
	}
	return strings.Join(tags, ",")
}

func priorityMarker(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!!"
	case model.PriorityLow:
		return ". "
	default:
		return "! "
	}
}

// formatDue renders a due date relative to now, e.g. "2026-10-20 (4 days from now)".
func formatDue(due *model.Date, now time.Time) string {
	if due == nil {
		return "n/a"
	}
	today := model.DateOf(now)
	if *due == today {
		return due.String() + " (today)"
	}
	return fmt.Sprintf("%s (%s)", due, humanize.RelTime(due.In(now.Location()), today.In(now.Location()), "overdue", "from now"))
}

func formatTaskSummary(task model.Task, now time.Time) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s %s %s", check, priorityMarker(task.Priority), task.Title)
	if task.DueDate != nil {
		marker := ""
		if view.IsOverdue(task, model.DateOf(now)) {
			marker = " OVERDUE"
		}
		line += fmt.Sprintf(" | due %s%s", task.DueDate, marker)
	}
	if len(task.Tags) > 0 {
		line += " | " + formatTags(task.Tags)
	}
	return line
}

func categoryLabel(id string) string {
	if id == "" {
		return "none"
	}
	category, ok := model.LookupCategory(id)
	if !ok {
		return id + " (unknown)"
	}
	return fmt.Sprintf("%s %s", category.Icon, category.Name)
}

func formatReminder(reminder *time.Time, now time.Time) string {
	if reminder == nil {
		return "n/a"
	}
	return fmt.Sprintf("%s (%s)", reminder.Local().Format(reminderLayout), humanize.RelTime(*reminder, now, "ago", "from now"))
}

// countTags tallies tags over the whole collection. Active filter tags are
// listed even when no task carries them.
func countTags(tasks []model.Task, active []string) []tagCountEntry {
	counts := make(map[string]int)
	for _, task := range tasks {
		for _, tag := range task.Tags {
			counts[tag]++
		}
	}
	activeSet := make(map[string]struct{}, len(active))
	for _, tag := range active {
		activeSet[tag] = struct{}{}
		if _, ok := counts[tag]; !ok {
			counts[tag] = 0
		}
	}

	entries := make([]tagCountEntry, 0, len(counts))
	for name, count := range counts {
		_, on := activeSet[name]
		entries = append(entries, tagCountEntry{Name: name, Count: count, Active: on})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Count > entries[j].Count
	})
	return entries
}
