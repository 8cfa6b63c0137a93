package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/Joseda-hg/lazytodo/internal/errors"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

const defaultProfile = "tasks"

// Local keeps each identity's whole collection as one JSON blob. The blob
// holds tasks newest first, matching how the engine presents them.
type Local struct {
	blobs   BlobStore
	profile string
	now     func() time.Time

	mu sync.Mutex
}

func NewLocal(blobs BlobStore, profile string) *Local {
	if profile == "" {
		profile = defaultProfile
	}
	return &Local{blobs: blobs, profile: profile, now: time.Now}
}

func (s *Local) key(identity model.Identity) string {
	return s.profile + ":" + string(identity)
}

// Health pings the blob store when it supports it.
func (s *Local) Health(ctx context.Context) error {
	if checker, ok := s.blobs.(HealthChecker); ok {
		if err := checker.Health(ctx); err != nil {
			return apperrors.Storage("health", "", err)
		}
	}
	return nil
}

func (s *Local) Load(ctx context.Context, identity model.Identity) ([]model.Task, error) {
	if err := requireIdentity("load", "", identity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, identity)
}

// read returns the stored collection. A corrupt blob is logged and treated
// as empty so a bad write never locks the user out.
func (s *Local) read(ctx context.Context, identity model.Identity) ([]model.Task, error) {
	raw, ok, err := s.blobs.Get(ctx, s.key(identity))
	if err != nil {
		return nil, apperrors.Storage("load", "", err)
	}
	if !ok || len(raw) == 0 {
		return []model.Task{}, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		log.Printf("local store: discarding corrupt blob %s: %v", s.key(identity), err)
		return []model.Task{}, nil
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	for i := range tasks {
		tasks[i].Tags = model.NormalizeTags(tasks[i].Tags)
		if tasks[i].Priority == "" {
			tasks[i].Priority = model.PriorityMedium
		}
	}
	return tasks, nil
}

func (s *Local) write(ctx context.Context, op, id string, identity model.Identity, tasks []model.Task) error {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return apperrors.Storage(op, id, fmt.Errorf("encode tasks: %w", err))
	}
	if err := s.blobs.Put(ctx, s.key(identity), payload); err != nil {
		return apperrors.Storage(op, id, err)
	}
	return nil
}

func (s *Local) Insert(ctx context.Context, identity model.Identity, draft model.TaskDraft) (model.Task, error) {
	if err := requireIdentity("insert", "", identity); err != nil {
		return model.Task{}, err
	}
	if err := validateDraft(draft); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.read(ctx, identity)
	if err != nil {
		return model.Task{}, err
	}

	task := newTask(draft, s.now())
	tasks = append([]model.Task{task}, tasks...)
	if err := s.write(ctx, "insert", task.ID, identity, tasks); err != nil {
		return model.Task{}, err
	}
	return task.Clone(), nil
}

func (s *Local) Update(ctx context.Context, id string, identity model.Identity, patch model.TaskPatch) error {
	if err := requireIdentity("update", id, identity); err != nil {
		return err
	}
	if err := validatePatch(patch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.read(ctx, identity)
	if err != nil {
		return err
	}

	index := indexOf(tasks, id)
	if index < 0 {
		return apperrors.Storage("update", id, apperrors.ErrNotOwned)
	}
	tasks[index] = patch.Apply(tasks[index])
	return s.write(ctx, "update", id, identity, tasks)
}

func (s *Local) Delete(ctx context.Context, id string, identity model.Identity) error {
	if err := requireIdentity("delete", id, identity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.read(ctx, identity)
	if err != nil {
		return err
	}

	index := indexOf(tasks, id)
	if index < 0 {
		return apperrors.Storage("delete", id, apperrors.ErrNotOwned)
	}
	tasks = append(tasks[:index], tasks[index+1:]...)
	return s.write(ctx, "delete", id, identity, tasks)
}

func indexOf(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
