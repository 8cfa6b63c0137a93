package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazytodo/internal/engine"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

const (
	viewHeader    = "header"
	viewFooter    = "footer"
	viewTasks     = "tasks"
	viewDetails   = "details"
	viewStats     = "stats"
	viewSearch    = "search"
	viewForm      = "form"
	viewHelp      = "help"
	viewTagFilter = "tagFilter"
)

type UI struct {
	engine  *engine.Engine
	notices *engine.NoticeLog
	gui     *gocui.Gui
	ctx     context.Context
	now     func() time.Time

	snapshot engine.Snapshot
	tags     []tagCountEntry

	selected int
	focus    string

	form            *formState
	formEditor      *formEditor
	searchActive    bool
	helpActive      bool
	tagFilterActive bool
	status          string
}

type formState struct {
	taskID string
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

func newUI(eng *engine.Engine, notices *engine.NoticeLog) *UI {
	ui := &UI{
		engine:  eng,
		notices: notices,
		ctx:     context.Background(),
		now:     time.Now,
		focus:   viewTasks,
	}
	ui.formEditor = &formEditor{ui: ui}
	ui.refresh()
	return ui
}

// Run blocks until the user quits. The engine must already be started.
func Run(ctx context.Context, eng *engine.Engine, notices *engine.NoticeLog) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(eng, notices)
	ui.gui = gui
	ui.ctx = ctx
	gui.Mouse = true

	// Snapshots published by other surfaces (the web API, identity changes)
	// only need a redraw; layout pulls the latest snapshot itself.
	unsubscribe := eng.Subscribe(func(engine.Snapshot) {
		gui.Update(func(*gocui.Gui) error { return nil })
	})
	defer unsubscribe()

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	global := []struct {
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyCtrlC, u.quit},
		{'q', u.quit},
		{'r', u.reload},
		{'g', u.clearFilters},
		{'a', u.addTask},
		{'e', u.editTask},
		{'d', u.deleteTask},
		{'x', u.toggleComplete},
		{'J', u.moveTaskDown},
		{'K', u.moveTaskUp},
		{'f', u.cycleFilter},
		{'o', u.cycleSort},
		{'c', u.cycleCategory},
		{'t', u.startTagFilter},
		{'/', u.startSearch},
		{'?', u.toggleHelp},
		{gocui.KeyTab, u.switchFocus},
		{'1', u.focusTasks},
		{'2', u.focusDetails},
		{'3', u.focusStats},
	}
	for _, binding := range global {
		if err := gui.SetKeybinding("", binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}

	perView := []struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{viewTasks, gocui.KeyArrowDown, u.moveDown},
		{viewTasks, 'j', u.moveDown},
		{viewTasks, gocui.KeyArrowUp, u.moveUp},
		{viewTasks, 'k', u.moveUp},
		{viewTasks, gocui.KeySpace, u.toggleComplete},
		{viewTasks, gocui.KeyEnter, u.editTask},
		{viewDetails, gocui.KeyArrowDown, u.scrollDown},
		{viewDetails, gocui.KeyArrowUp, u.scrollUp},
		{viewStats, gocui.KeyArrowDown, u.scrollDown},
		{viewStats, gocui.KeyArrowUp, u.scrollUp},
		{viewSearch, gocui.KeyEnter, u.submitSearch},
		{viewSearch, gocui.KeyEsc, u.cancelSearch},
		{viewTagFilter, gocui.KeyEnter, u.submitTagFilter},
		{viewTagFilter, gocui.KeyEsc, u.cancelTagFilter},
		{viewForm, gocui.KeyEnter, u.submitFormNow},
		{viewForm, gocui.KeyCtrlJ, u.submitFormNow},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, binding := range perView {
		if err := gui.SetKeybinding(binding.view, binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}

	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onTaskClick(gui, opts)
	}}); err != nil {
		return err
	}
	for _, name := range []string{viewTasks, viewDetails, viewStats} {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

// refresh pulls the engine's current snapshot and keeps the selection in range.
func (u *UI) refresh() {
	u.snapshot = u.engine.Snapshot()
	u.tags = countTags(u.snapshot.All, u.snapshot.Params.Tags)
	if u.selected >= len(u.snapshot.Presented) {
		u.selected = max(len(u.snapshot.Presented)-1, 0)
	}
	if u.selected < 0 {
		u.selected = 0
	}
}

func (u *UI) layout(gui *gocui.Gui) error {
	u.refresh()

	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-1, 1)
	footerY0 := max(footerY1-3, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 2
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	dims := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX1 := dims.leftWidth - 1
	rightX0 := min(leftX1+1, maxX-1)
	detailsY1 := bodyTop + dims.detailsHeight - 1

	tasksView, err := gui.SetView(viewTasks, 0, bodyTop, leftX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	tasksView.Title = fmt.Sprintf("1 Tasks (%d/%d)", len(u.snapshot.Presented), len(u.snapshot.All))
	applyViewStyle(tasksView, u.focus == viewTasks, true)
	u.renderTaskList(tasksView)

	detailsView, err := gui.SetView(viewDetails, rightX0, bodyTop, maxX-1, detailsY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailsView.Title = "2 Details"
		detailsView.Wrap = true
	}
	applyViewStyle(detailsView, u.focus == viewDetails, false)
	u.renderDetails(detailsView)

	statsView, err := gui.SetView(viewStats, rightX0, detailsY1+1, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		statsView.Title = "3 Stats"
		statsView.Wrap = true
	}
	applyViewStyle(statsView, u.focus == viewStats, false)
	u.renderStats(statsView)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if err := u.syncOverlay(gui, u.searchActive, viewSearch, u.showSearch); err != nil {
		return err
	}
	if err := u.syncOverlay(gui, u.tagFilterActive, viewTagFilter, u.showTagFilter); err != nil {
		return err
	}
	if err := u.syncOverlay(gui, u.form != nil, viewForm, u.showForm); err != nil {
		return err
	}
	if err := u.syncOverlay(gui, u.helpActive, viewHelp, u.showHelp); err != nil {
		return err
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(u.focus)
	}
	gui.Cursor = u.searchActive || u.form != nil || u.tagFilterActive
	return nil
}

func (u *UI) syncOverlay(gui *gocui.Gui, active bool, name string, show func(*gocui.Gui) error) error {
	if active {
		return show(gui)
	}
	_ = gui.DeleteView(name)
	return nil
}

type layout struct {
	leftWidth     int
	detailsHeight int
}

func computeLayout(width, height int) layout {
	safeWidth := max(width-2, 20)
	safeHeight := max(height, 8)

	leftWidth := safeWidth * 3 / 5
	if leftWidth < 30 {
		leftWidth = 30
	}
	if leftWidth > safeWidth-18 {
		leftWidth = safeWidth / 2
	}

	detailsHeight := int(float64(safeHeight) * 0.55)
	if detailsHeight < 4 {
		detailsHeight = 4
	}
	if safeHeight-detailsHeight < 4 {
		detailsHeight = max(safeHeight-4, 4)
	}
	return layout{leftWidth: leftWidth, detailsHeight: detailsHeight}
}

func (u *UI) renderHeader(v *gocui.View) {
	v.Clear()
	params := u.snapshot.Params

	identity := "not signed in"
	if u.snapshot.Identity != "" {
		identity = string(u.snapshot.Identity)
	}
	query := strings.TrimSpace(params.Search)
	if query == "" {
		query = "type / to search"
	}
	category := "any"
	if params.CategoryID != "" {
		category = categoryLabel(params.CategoryID)
	}
	tags := "none"
	if len(params.Tags) > 0 {
		tags = strings.Join(params.Tags, ",")
	}

	fmt.Fprintf(v, "User: %s (%s) | Search: %s | Show: %s | Sort: %s | Category: %s | Tags: %s",
		identity, u.snapshot.State, query, params.Filter, params.Sort, category, tags)
}

func (u *UI) renderFooter(v *gocui.View) {
	v.Clear()
	v.SetOrigin(0, 0)
	v.SetCursor(0, 0)

	fmt.Fprintln(v, "a add | e edit | d delete | x/space done | J/K move | f filter | o sort | c category | t tag")
	fmt.Fprintln(v, "/ search | g clear | r reload | tab/1-3 panes | ? help | q quit")
	if line := u.statusLine(); line != "" {
		fmt.Fprint(v, line)
	}
}

// statusLine prefers the last local error and falls back to the latest
// engine notice.
func (u *UI) statusLine() string {
	if u.status != "" {
		return u.status
	}
	if u.notices == nil {
		return ""
	}
	notice, ok := u.notices.Latest()
	if !ok {
		return ""
	}
	return fmt.Sprintf("[%s] %s", notice.Level, notice.Message)
}

func (u *UI) renderTaskList(v *gocui.View) {
	v.Clear()
	switch u.snapshot.State {
	case engine.StateNoIdentity:
		fmt.Fprint(v, "Not signed in")
		return
	case engine.StateLoading:
		fmt.Fprint(v, "Loading tasks...")
		return
	}
	if len(u.snapshot.Presented) == 0 {
		if len(u.snapshot.All) == 0 {
			fmt.Fprint(v, "No tasks yet. Press a to add one.")
		} else {
			fmt.Fprint(v, "No tasks match the current filters. Press g to clear.")
		}
		return
	}

	focused := u.focus == viewTasks
	now := u.now()
	for i, task := range u.snapshot.Presented {
		prefix := " "
		if i == u.selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(v, "%s %s\n", prefix, formatTaskSummary(task, now))
	}
	if focused {
		v.SetCursor(0, min(u.selected, len(u.snapshot.Presented)-1))
	}
}

func (u *UI) renderDetails(v *gocui.View) {
	v.Clear()
	selected := u.selectedTask()
	if selected == nil {
		fmt.Fprint(v, "No task selected")
		return
	}

	now := u.now()
	status := "active"
	if selected.Completed {
		status = "completed"
	}
	repeat := "no"
	if selected.IsRecurring {
		repeat = string(selected.RecurringPattern)
	}

	lines := []string{
		selected.Title,
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Priority: %s", selected.Priority),
		fmt.Sprintf("Due: %s", formatDue(selected.DueDate, now)),
		fmt.Sprintf("Category: %s", categoryLabel(selected.CategoryID)),
		fmt.Sprintf("Tags: %s", formatTags(selected.Tags)),
		fmt.Sprintf("Repeats: %s", repeat),
		fmt.Sprintf("Reminder: %s", formatReminder(selected.Reminder, now)),
		fmt.Sprintf("Created: %s", selected.CreatedAt.Local().Format("2006-01-02 15:04")),
	}
	if description := strings.TrimSpace(selected.Description); description != "" {
		lines = append(lines, "", description)
	}
	fmt.Fprint(v, strings.Join(lines, "\n"))
}

func (u *UI) renderStats(v *gocui.View) {
	v.Clear()
	stats := u.snapshot.Stats
	fmt.Fprintf(v, "Total: %d | Active: %d | Completed: %d | Overdue: %d\n",
		stats.Total, stats.Active, stats.Completed, stats.Overdue)
	fmt.Fprintf(v, "Done today: %d | Done this week: %d\n", stats.CompletedToday, stats.CompletedThisWeek)

	if len(u.snapshot.Suggestions) > 0 {
		fmt.Fprintln(v)
		for _, suggestion := range u.snapshot.Suggestions {
			fmt.Fprintf(v, "* %s\n", suggestion.Message)
		}
	}

	if len(u.tags) > 0 {
		fmt.Fprintln(v, "\nTags:")
		for _, entry := range u.tags {
			marker := " "
			if entry.Active {
				marker = "x"
			}
			fmt.Fprintf(v, " [%s] %s (%d)\n", marker, entry.Name, entry.Count)
		}
	}
}

func (u *UI) selectedTask() *model.Task {
	if u.selected >= 0 && u.selected < len(u.snapshot.Presented) {
		return &u.snapshot.Presented[u.selected]
	}
	return nil
}

// apply reports the outcome of an engine call in the footer. Engine failures
// already raised a notice; this only adds the not-signed-in hint.
func (u *UI) apply(err error) error {
	switch {
	case err == nil:
		u.status = ""
	case goerrors.Is(err, engine.ErrNotReady):
		u.status = "Sign in to manage tasks"
	default:
		u.status = err.Error()
	}
	u.refresh()
	return nil
}

func (u *UI) onTaskClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	v, err := gui.View(viewTasks)
	if err != nil {
		return nil
	}
	_, y0, _, _ := v.Dimensions()
	_, oy := v.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	u.selected = min(row, len(u.snapshot.Presented)-1)
	return u.setFocus(gui, viewTasks)
}

func (u *UI) scrollUp(gui *gocui.Gui, v *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if v == nil && gui != nil {
		v = gui.CurrentView()
	}
	if v != nil {
		v.ScrollUp(1)
	}
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, v *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if v == nil && gui != nil {
		v = gui.CurrentView()
	}
	if v != nil {
		v.ScrollDown(1)
	}
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	switch u.focus {
	case viewTasks:
		return u.setFocus(gui, viewDetails)
	case viewDetails:
		return u.setFocus(gui, viewStats)
	default:
		return u.setFocus(gui, viewTasks)
	}
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewTasks)
}

func (u *UI) focusDetails(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewDetails)
}

func (u *UI) focusStats(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewStats)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < len(u.snapshot.Presented)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) moveTaskDown(_ *gocui.Gui, _ *gocui.View) error {
	return u.moveTask(1)
}

func (u *UI) moveTaskUp(_ *gocui.Gui, _ *gocui.View) error {
	return u.moveTask(-1)
}

// moveTask reorders the selected task by delta positions and keeps it selected.
func (u *UI) moveTask(delta int) error {
	if u.inputActive() || u.selectedTask() == nil {
		return nil
	}
	to := u.selected + delta
	if to < 0 || to >= len(u.snapshot.Presented) {
		return nil
	}
	if err := u.engine.Reorder(u.ctx, u.selected, to); err != nil {
		return u.apply(err)
	}
	if u.snapshot.Params.Sort != view.SortManual {
		u.refresh()
		u.status = "Moved. Press o until sort is manual to see the custom order."
		return nil
	}
	u.selected = to
	return u.apply(nil)
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.engine.Reload(u.ctx)
	return u.apply(nil)
}

func (u *UI) clearFilters(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.engine.ClearFilters()
	return u.apply(nil)
}

func (u *UI) cycleFilter(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.engine.SetFilter(u.snapshot.Params.Filter.Next())
	return u.apply(nil)
}

func (u *UI) cycleSort(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.engine.SetSort(u.snapshot.Params.Sort.Next())
	return u.apply(nil)
}

func (u *UI) cycleCategory(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	options := categoryOptions()
	current := u.snapshot.Params.CategoryID
	if current == "" {
		current = noneOption
	}
	next := cycleOption(options, current, 1)
	if next == noneOption {
		next = ""
	}
	u.engine.SetCategory(next)
	return u.apply(nil)
}

func (u *UI) startSearch(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	v, created, err := u.showPrompt(gui, viewSearch, "Search")
	if err != nil {
		return err
	}
	if created {
		fmt.Fprint(v, u.snapshot.Params.Search)
		v.SetCursor(len([]rune(u.snapshot.Params.Search)), 0)
	}
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, v *gocui.View) error {
	query := ""
	if v != nil {
		query = strings.TrimSpace(v.Buffer())
	}
	u.searchActive = false
	u.closeOverlay(gui, viewSearch)
	u.engine.SetSearch(query)
	return u.apply(nil)
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	u.closeOverlay(gui, viewSearch)
	return nil
}

func (u *UI) startTagFilter(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.tagFilterActive = true
	return nil
}

func (u *UI) showTagFilter(gui *gocui.Gui) error {
	_, _, err := u.showPrompt(gui, viewTagFilter, "Toggle tag filter")
	return err
}

func (u *UI) submitTagFilter(gui *gocui.Gui, v *gocui.View) error {
	tag := ""
	if v != nil {
		tag = strings.TrimSpace(v.Buffer())
	}
	u.tagFilterActive = false
	u.closeOverlay(gui, viewTagFilter)
	if tag != "" {
		u.engine.ToggleTag(tag)
	}
	return u.apply(nil)
}

func (u *UI) cancelTagFilter(gui *gocui.Gui, _ *gocui.View) error {
	u.tagFilterActive = false
	u.closeOverlay(gui, viewTagFilter)
	return nil
}

// showPrompt opens a one-line editable view centred on screen.
func (u *UI) showPrompt(gui *gocui.Gui, name, title string) (*gocui.View, bool, error) {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(name, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return nil, false, err
	}
	created := goerrors.Is(err, gocui.ErrUnknownView)
	if created {
		v.Title = title
		v.Wrap = true
		v.Clear()
	}
	v.Editable = true
	v.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(name)
	return v, created, nil
}

func (u *UI) closeOverlay(gui *gocui.Gui, name string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(name)
	_, _ = gui.SetCurrentView(u.focus)
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	u.closeOverlay(gui, viewHelp)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 20
	x0 := (maxX - width) / 2
	y0 := max((maxY-height)/2, 0)

	v, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Title = "Help"
		v.Wrap = true
	}
	v.Clear()
	fmt.Fprint(v, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) addTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil)}
	return nil
}

func (u *UI) editTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{taskID: selected.ID, fields: buildFormFields(selected)}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(len(u.form.fields)+2, max(8, maxY-2))
	x0 := (maxX - width) / 2
	y0 := max((maxY-height)/2, 0)

	v, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if u.form.taskID != "" {
		v.Title = "Edit Task"
	} else {
		v.Title = "New Task"
	}
	v.Wrap = true
	v.Editable = true
	v.KeybindOnEdit = true
	v.Editor = u.formEditor
	u.renderForm(v)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitFormNow(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	values, err := parseFormFields(u.form.fields)
	if err != nil {
		u.status = err.Error()
		return nil
	}

	if u.form.taskID == "" {
		_, err = u.engine.Add(u.ctx, values.draft())
	} else {
		err = u.engine.Update(u.ctx, u.form.taskID, values.patch())
	}
	if err != nil {
		// keep the form open so the input is not lost
		return u.apply(err)
	}

	u.form = nil
	u.closeOverlay(gui, viewForm)
	return u.apply(nil)
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	u.closeOverlay(gui, viewForm)
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, v *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(v)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, v *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(v)
	return nil
}

func (u *UI) renderForm(v *gocui.View) {
	if u.form == nil || v == nil {
		return
	}
	v.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		value := field.Value
		if index == fieldCategory {
			value = categoryLabel(strings.TrimPrefix(value, noneOption))
		}
		fmt.Fprintf(v, "%s%s: %s\n", prefix, field.Label, value)
	}
	current := u.form.fields[u.form.index]
	cursorX := len([]rune(current.Label)) + len([]rune(current.Value)) + 4
	v.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if len(field.Options) > 0 {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleOption(field.Options, field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleOption(field.Options, field.Value, -1)
		}
		ui.renderForm(v)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(v)
	return true
}

func (u *UI) deleteTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	return u.apply(u.engine.Delete(u.ctx, selected.ID))
}

func (u *UI) toggleComplete(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	return u.apply(u.engine.ToggleComplete(u.ctx, selected.ID))
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive || u.tagFilterActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  Tab cycle panes | 1 Tasks | 2 Details | 3 Stats",
		"  j/k or arrows move selection",
		"  mouse click selects a task, wheel scrolls",
		"",
		"Tasks:",
		"  a add | e/enter edit | d delete | x/space toggle done",
		"  J/K move the selected task down/up (manual order)",
		"  enter save (form) | tab next field | esc cancel",
		"",
		"View:",
		"  f cycle all/active/completed",
		"  o cycle sort: date, due date, priority, name, manual",
		"  c cycle category | t toggle a tag filter",
		"  / search | g clear filters",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(v *gocui.View, focused bool, highlight bool) {
	v.Frame = true
	v.Highlight = focused && highlight
	v.HighlightInactive = false
	v.SelBgColor = gocui.ColorBlue
	v.SelFgColor = gocui.ColorBlack
	v.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		v.FrameColor = gocui.ColorCyan
		v.TitleColor = gocui.ColorCyan
	} else {
		v.FrameColor = gocui.ColorDefault
		v.TitleColor = gocui.ColorDefault
	}
}
