package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/engine"
	"github.com/Joseda-hg/lazytodo/internal/identity"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/store"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

func TestToggleCompleteAndDelete(t *testing.T) {
	eng, cleanup := newTestEngine(t, "alice")
	defer cleanup()

	addTask(t, eng, "Water plants")
	ui := newTestUI(eng)

	if err := ui.toggleComplete(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if tasks := eng.All(); len(tasks) != 1 || !tasks[0].Completed {
		t.Fatalf("expected completed task, got %+v", tasks)
	}

	if err := ui.toggleComplete(nil, nil); err != nil {
		t.Fatalf("toggle again: %v", err)
	}
	if tasks := eng.All(); tasks[0].Completed {
		t.Fatalf("expected task to be active again")
	}

	if err := ui.deleteTask(nil, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(eng.All()) != 0 {
		t.Fatalf("expected task to be deleted")
	}
	if ui.selectedTask() != nil {
		t.Fatalf("expected empty selection after delete")
	}
}

func TestSubmitFormCreatesAndEditsTask(t *testing.T) {
	eng, cleanup := newTestEngine(t, "alice")
	defer cleanup()
	ui := newTestUI(eng)

	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	ui.form.fields[fieldTitle].Value = "  Buy groceries "
	ui.form.fields[fieldDue].Value = "2026-10-20"
	ui.form.fields[fieldPriority].Value = "high"
	ui.form.fields[fieldTags].Value = "errands, Errands, food"
	ui.form.fields[fieldCategory].Value = "shopping"
	ui.form.fields[fieldRecurring].Value = "weekly"

	if err := ui.submitFormNow(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ui.form != nil {
		t.Fatalf("expected form to close, status %q", ui.status)
	}

	tasks := eng.All()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	created := tasks[0]
	if created.Title != "Buy groceries" || created.Priority != model.PriorityHigh || created.CategoryID != "shopping" {
		t.Fatalf("unexpected task %+v", created)
	}
	if created.DueDate == nil || created.DueDate.String() != "2026-10-20" {
		t.Fatalf("unexpected due date %v", created.DueDate)
	}
	if strings.Join(created.Tags, ",") != "errands,food" {
		t.Fatalf("expected normalized tags, got %v", created.Tags)
	}
	if !created.IsRecurring || created.RecurringPattern != model.RecurWeekly {
		t.Fatalf("expected weekly recurrence, got %+v", created)
	}

	if err := ui.editTask(nil, nil); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if ui.form.taskID != created.ID {
		t.Fatalf("expected edit form for %s", created.ID)
	}
	ui.form.fields[fieldTitle].Value = "Buy groceries and bread"
	ui.form.fields[fieldDue].Value = ""
	ui.form.fields[fieldCategory].Value = noneOption
	ui.form.fields[fieldRecurring].Value = noneOption

	if err := ui.submitFormNow(nil, nil); err != nil {
		t.Fatalf("submit edit: %v", err)
	}
	updated, ok := eng.Task(created.ID)
	if !ok {
		t.Fatalf("task missing after edit")
	}
	if updated.Title != "Buy groceries and bread" || updated.DueDate != nil || updated.CategoryID != "" || updated.IsRecurring {
		t.Fatalf("unexpected edited task %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("edit must not touch createdAt")
	}
}

func TestSubmitFormKeepsInputOnError(t *testing.T) {
	eng, cleanup := newTestEngine(t, "alice")
	defer cleanup()
	ui := newTestUI(eng)

	_ = ui.addTask(nil, nil)
	ui.form.fields[fieldTitle].Value = "Plan trip"
	ui.form.fields[fieldDue].Value = "next week"

	if err := ui.submitFormNow(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ui.form == nil {
		t.Fatalf("expected form to stay open")
	}
	if ui.status != "invalid due date" {
		t.Fatalf("unexpected status %q", ui.status)
	}
	if len(eng.All()) != 0 {
		t.Fatalf("nothing should be persisted")
	}

	ui.form.fields[fieldTitle].Value = "   "
	ui.form.fields[fieldDue].Value = ""
	_ = ui.submitFormNow(nil, nil)
	if ui.status != "title is required" {
		t.Fatalf("unexpected status %q", ui.status)
	}
}

func TestMutationsWithoutIdentityShowHint(t *testing.T) {
	eng, cleanup := newTestEngine(t, "")
	defer cleanup()
	ui := newTestUI(eng)

	_ = ui.addTask(nil, nil)
	ui.form.fields[fieldTitle].Value = "Orphan"
	if err := ui.submitFormNow(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ui.status != "Sign in to manage tasks" {
		t.Fatalf("unexpected status %q", ui.status)
	}
	if ui.form == nil {
		t.Fatalf("expected form to stay open")
	}
}

func TestMoveTaskUnderManualSort(t *testing.T) {
	eng, cleanup := newTestEngine(t, "alice")
	defer cleanup()

	for _, title := range []string{"first", "second", "third"} {
		addTask(t, eng, title)
	}
	eng.SetSort(view.SortManual)
	ui := newTestUI(eng)

	if err := ui.moveTaskDown(nil, nil); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if got := presentedTitles(eng); got != "second,first,third" {
		t.Fatalf("unexpected order %s", got)
	}
	if ui.selected != 1 {
		t.Fatalf("expected selection to follow the task, got %d", ui.selected)
	}

	_ = ui.moveTaskDown(nil, nil)
	_ = ui.moveTaskDown(nil, nil)
	if got := presentedTitles(eng); got != "second,third,first" {
		t.Fatalf("moving past the end must be a no-op, got %s", got)
	}

	if err := ui.moveTaskUp(nil, nil); err != nil {
		t.Fatalf("move up: %v", err)
	}
	if got := presentedTitles(eng); got != "second,first,third" {
		t.Fatalf("unexpected order %s", got)
	}
	for i, task := range eng.Presented() {
		if task.Order != i {
			t.Fatalf("expected dense order, task %s has %d at %d", task.Title, task.Order, i)
		}
	}
}

func TestViewControlsUpdateParams(t *testing.T) {
	eng, cleanup := newTestEngine(t, "alice")
	defer cleanup()
	ui := newTestUI(eng)

	_ = ui.cycleFilter(nil, nil)
	if eng.Params().Filter != view.FilterActive {
		t.Fatalf("expected active filter, got %s", eng.Params().Filter)
	}
	_ = ui.cycleSort(nil, nil)
	if eng.Params().Sort != view.SortDueDate {
		t.Fatalf("expected dueDate sort, got %s", eng.Params().Sort)
	}
	_ = ui.cycleCategory(nil, nil)
	if eng.Params().CategoryID != "work" {
		t.Fatalf("expected work category, got %q", eng.Params().CategoryID)
	}

	ui.searchActive = true
	_ = ui.submitSearch(nil, nil)
	ui.tagFilterActive = true
	_ = ui.submitTagFilter(nil, nil)

	_ = ui.clearFilters(nil, nil)
	params := eng.Params()
	if params.Filter != view.FilterAll || params.CategoryID != "" || params.Search != "" {
		t.Fatalf("expected filters cleared, got %+v", params)
	}
	if params.Sort != view.SortDueDate {
		t.Fatalf("clearing filters keeps the sort, got %s", params.Sort)
	}
	if ui.inputActive() {
		t.Fatalf("prompts should be closed")
	}
}

func TestCycleCategoryWrapsToNone(t *testing.T) {
	eng, cleanup := newTestEngine(t, "alice")
	defer cleanup()
	ui := newTestUI(eng)

	for range model.Categories() {
		_ = ui.cycleCategory(nil, nil)
	}
	if eng.Params().CategoryID != "shopping" {
		t.Fatalf("expected last category, got %q", eng.Params().CategoryID)
	}
	_ = ui.cycleCategory(nil, nil)
	if eng.Params().CategoryID != "" {
		t.Fatalf("expected category filter cleared, got %q", eng.Params().CategoryID)
	}
}

func TestCountTags(t *testing.T) {
	tasks := []model.Task{
		{Title: "a", Tags: []string{"home", "urgent"}},
		{Title: "b", Tags: []string{"home"}},
	}
	entries := countTags(tasks, []string{"urgent", "archived"})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", entries)
	}
	if entries[0].Name != "home" || entries[0].Count != 2 || entries[0].Active {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[2].Name != "archived" || entries[2].Count != 0 || !entries[2].Active {
		t.Fatalf("expected active empty tag last, got %+v", entries[2])
	}
}

func TestFormatDue(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		due  *model.Date
		want string
	}{
		{nil, "n/a"},
		{model.DatePtr(model.DateOf(now)), "2026-10-16 (today)"},
		{model.DatePtr(model.Date{Year: 2026, Month: time.October, Day: 13}), "2026-10-13 (3 days overdue)"},
		{model.DatePtr(model.Date{Year: 2026, Month: time.October, Day: 20}), "2026-10-20 (4 days from now)"},
	}
	for _, tt := range tests {
		if got := formatDue(tt.due, now); got != tt.want {
			t.Fatalf("formatDue(%v) = %q, want %q", tt.due, got, tt.want)
		}
	}
}

func addTask(t *testing.T, eng *engine.Engine, title string) {
	t.Helper()
	if _, err := eng.Add(context.Background(), model.TaskDraft{Title: title}); err != nil {
		t.Fatalf("add %s: %v", title, err)
	}
}

func presentedTitles(eng *engine.Engine) string {
	titles := make([]string, 0)
	for _, task := range eng.Presented() {
		titles = append(titles, task.Title)
	}
	return strings.Join(titles, ",")
}

func newTestUI(eng *engine.Engine) *UI {
	ui := newUI(eng, engine.NewNoticeLog(5))
	ui.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	return ui
}

func newTestEngine(t *testing.T, user model.Identity) (*engine.Engine, func()) {
	t.Helper()
	dbConn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	session := identity.NewSession(nil)
	if user != "" {
		session.SignInAs(user)
	}
	eng := engine.New(store.NewLocal(db.NewKV(dbConn), ""), session)
	eng.Start(context.Background())
	return eng, func() {
		eng.Close()
		_ = dbConn.Close()
	}
}
