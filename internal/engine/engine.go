package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/Joseda-hg/lazytodo/internal/identity"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/store"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

type State int

const (
	StateNoIdentity State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "no-identity"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrNotReady is returned by mutations while no identity is signed in or the
// initial load has not finished. Nothing is written.
var ErrNotReady = errors.New("task list is not ready")

// Snapshot is a consistent copy of everything a presentation layer reads.
type Snapshot struct {
	State       State             `json:"state"`
	Identity    model.Identity    `json:"identity"`
	Params      view.Params       `json:"params"`
	Presented   []model.Task      `json:"presented"`
	All         []model.Task      `json:"all"`
	Stats       view.Stats        `json:"stats"`
	Suggestions []view.Suggestion `json:"suggestions"`
}

type Option func(*Engine)

func WithNotifier(notifier Notifier) Option {
	return func(e *Engine) { e.notifier = notifier }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLocale(tag language.Tag) Option {
	return func(e *Engine) { e.params.Locale = tag }
}

// Engine owns the canonical task collection of the current identity. It is
// the only writer of that collection; the adapter is called without holding
// the lock, so overlapping mutations race on write order.
type Engine struct {
	adapter  store.Adapter
	provider identity.Provider
	notifier Notifier
	now      func() time.Time

	mu          sync.Mutex
	state       State
	identity    model.Identity
	generation  uint64
	tasks       []model.Task
	params      view.Params
	presented   []model.Task
	stats       view.Stats
	suggestions []view.Suggestion

	subscribers map[int]func(Snapshot)
	nextSub     int
	unsubscribe func()
}

func New(adapter store.Adapter, provider identity.Provider, opts ...Option) *Engine {
	e := &Engine{
		adapter:     adapter,
		provider:    provider,
		notifier:    LogNotifier{},
		now:         time.Now,
		params:      view.DefaultParams(),
		tasks:       []model.Task{},
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rederive()
	return e
}

// Start loads the provider's current identity and follows later changes.
func (e *Engine) Start(ctx context.Context) {
	if e.provider == nil {
		return
	}
	e.unsubscribe = e.provider.Subscribe(func(model.Identity, bool) {
		e.follow(context.Background())
	})
	e.load(ctx, e.currentIdentity())
}

func (e *Engine) currentIdentity() model.Identity {
	current, ok := e.provider.Current()
	if !ok {
		return ""
	}
	return current
}

// follow re-reads the provider instead of trusting the delivered value:
// overlapping sign-ins may deliver out of order, but Current is always the
// last one set.
func (e *Engine) follow(ctx context.Context) {
	current := e.currentIdentity()
	e.mu.Lock()
	same := current == e.identity
	e.mu.Unlock()
	if same {
		return
	}
	e.load(ctx, current)
}

func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Reload re-reads the current identity's collection, reconciling any
// divergence left by a partially failed reorder.
func (e *Engine) Reload(ctx context.Context) {
	e.mu.Lock()
	current := e.identity
	e.mu.Unlock()
	e.load(ctx, current)
}

func (e *Engine) load(ctx context.Context, id model.Identity) {
	e.mu.Lock()
	e.generation++
	generation := e.generation
	e.identity = id
	e.tasks = []model.Task{}
	if id == "" {
		e.state = StateNoIdentity
	} else {
		e.state = StateLoading
	}
	e.rederive()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	e.publish(snapshot)

	if id == "" {
		return
	}

	tasks, err := e.adapter.Load(ctx, id)

	e.mu.Lock()
	if generation != e.generation {
		// a newer identity change superseded this read
		e.mu.Unlock()
		return
	}
	if err != nil {
		tasks = []model.Task{}
	}
	e.tasks = tasks
	e.state = StateReady
	e.rederive()
	snapshot = e.snapshotLocked()
	e.mu.Unlock()

	if err != nil {
		e.notify(LevelError, "Failed to load tasks", err)
	}
	e.publish(snapshot)
}

func (e *Engine) rederive() {
	e.presented = view.Present(e.tasks, e.params)
	e.stats = view.ComputeStats(e.tasks, e.now())
	e.suggestions = view.Suggest(e.tasks, e.stats)
}

func (e *Engine) notify(level Level, message string, err error) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(Notice{Level: level, Message: message, Err: err, At: e.now()})
}

// Subscribe registers fn to receive a snapshot after every change.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

func (e *Engine) publish(snapshot Snapshot) {
	e.mu.Lock()
	subscribers := make([]func(Snapshot), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subscribers = append(subscribers, fn)
	}
	e.mu.Unlock()
	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		State:       e.state,
		Identity:    e.identity,
		Params:      copyParams(e.params),
		Presented:   cloneTasks(e.presented),
		All:         cloneTasks(e.tasks),
		Stats:       e.stats,
		Suggestions: append([]view.Suggestion{}, e.suggestions...),
	}
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Identity() (model.Identity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity, e.identity != ""
}

// Presented is the filtered, searched and sorted sequence.
func (e *Engine) Presented() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTasks(e.presented)
}

// All is the full unfiltered canonical collection.
func (e *Engine) All() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTasks(e.tasks)
}

func (e *Engine) Task(id string) (model.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index := indexOf(e.tasks, id); index >= 0 {
		return e.tasks[index].Clone(), true
	}
	return model.Task{}, false
}

func (e *Engine) Params() view.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyParams(e.params)
}

func (e *Engine) Stats() view.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) Suggestions() []view.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]view.Suggestion{}, e.suggestions...)
}

// Health reports whether the adapter's backing store is reachable. Adapters
// that cannot tell are assumed healthy.
func (e *Engine) Health(ctx context.Context) error {
	if checker, ok := e.adapter.(store.HealthChecker); ok {
		return checker.Health(ctx)
	}
	return nil
}

func (e *Engine) Categories() []model.Category {
	return model.Categories()
}

// ResolveCategory returns nil for an empty or dangling category id.
func (e *Engine) ResolveCategory(id string) *model.Category {
	if category, ok := model.LookupCategory(id); ok {
		return &category
	}
	return nil
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

func copyParams(params view.Params) view.Params {
	out := params
	out.Tags = append([]string{}, params.Tags...)
	return out
}

func indexOf(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
