package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Joseda-hg/lazytodo/internal/errors"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

// taskRow is the remote row layout. The owning user id is on every row and
// in every WHERE clause.
type taskRow struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)"`
	UserID           string     `gorm:"type:varchar(128);not null;index"`
	Title            string     `gorm:"not null"`
	Description      string     `gorm:"not null;default:''"`
	Completed        bool       `gorm:"not null;default:false"`
	CreatedAt        time.Time  `gorm:"not null"`
	DueDate          dateColumn `gorm:"type:date"`
	Priority         string     `gorm:"type:varchar(8);not null;default:'medium'"`
	Tags             tagsColumn `gorm:"type:text"`
	CategoryID       *string    `gorm:"type:varchar(64)"`
	Reminder         *time.Time
	IsRecurring      bool   `gorm:"not null;default:false"`
	RecurringPattern string `gorm:"type:varchar(8);not null;default:''"`
	Order            int    `gorm:"column:sort_order;not null;default:0"`
}

func (taskRow) TableName() string { return "tasks" }

// dateColumn stores a calendar date with no time component.
type dateColumn struct {
	Date  model.Date
	Valid bool
}

func (d dateColumn) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Date.String(), nil
}

func (d *dateColumn) Scan(src any) error {
	switch value := src.(type) {
	case nil:
		*d = dateColumn{}
		return nil
	case time.Time:
		*d = dateColumn{Date: model.DateOf(value), Valid: true}
		return nil
	case string:
		return d.scanString(value)
	case []byte:
		return d.scanString(string(value))
	default:
		return fmt.Errorf("unsupported due date column type %T", src)
	}
}

func (d *dateColumn) scanString(value string) error {
	if len(value) > len(model.DateLayout) {
		value = value[:len(model.DateLayout)]
	}
	parsed, err := model.ParseDate(value)
	if err != nil {
		return err
	}
	*d = dateColumn{Date: parsed, Valid: true}
	return nil
}

// tagsColumn keeps the ordered tag list as a JSON array.
type tagsColumn []string

func (t tagsColumn) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	payload, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func (t *tagsColumn) Scan(src any) error {
	var raw []byte
	switch value := src.(type) {
	case nil:
		*t = tagsColumn{}
		return nil
	case string:
		raw = []byte(value)
	case []byte:
		raw = value
	default:
		return fmt.Errorf("unsupported tags column type %T", src)
	}
	var tags []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tags); err != nil {
			return fmt.Errorf("%w: tags: %v", apperrors.ErrCorrupt, err)
		}
	}
	*t = tagsColumn(model.NormalizeTags(tags))
	return nil
}

func rowFromTask(identity model.Identity, task model.Task) taskRow {
	row := taskRow{
		ID:               task.ID,
		UserID:           string(identity),
		Title:            task.Title,
		Description:      task.Description,
		Completed:        task.Completed,
		CreatedAt:        task.CreatedAt,
		Priority:         string(task.Priority),
		Tags:             tagsColumn(task.Tags),
		Reminder:         task.Reminder,
		IsRecurring:      task.IsRecurring,
		RecurringPattern: string(task.RecurringPattern),
		Order:            task.Order,
	}
	if task.DueDate != nil {
		row.DueDate = dateColumn{Date: *task.DueDate, Valid: true}
	}
	if task.CategoryID != "" {
		category := task.CategoryID
		row.CategoryID = &category
	}
	return row
}

func (r taskRow) task() model.Task {
	task := model.Task{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Completed:        r.Completed,
		CreatedAt:        r.CreatedAt,
		Priority:         model.Priority(r.Priority),
		Tags:             []string(r.Tags),
		IsRecurring:      r.IsRecurring,
		RecurringPattern: model.RecurringPattern(r.RecurringPattern),
		Order:            r.Order,
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if !task.Priority.Valid() {
		task.Priority = model.PriorityMedium
	}
	if r.DueDate.Valid {
		due := r.DueDate.Date
		task.DueDate = &due
	}
	if r.CategoryID != nil {
		task.CategoryID = *r.CategoryID
	}
	if r.Reminder != nil {
		reminder := *r.Reminder
		task.Reminder = &reminder
	}
	return task
}

// Remote stores one row per task through gorm.
type Remote struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRemote(db *gorm.DB) *Remote {
	return &Remote{db: db, now: time.Now}
}

func (s *Remote) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.Storage("health", "", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.Storage("health", "", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Remote) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the tasks table.
func (s *Remote) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&taskRow{}); err != nil {
		return fmt.Errorf("migrate tasks: %w", err)
	}
	return nil
}

func (s *Remote) owned(ctx context.Context, id string, identity model.Identity) *gorm.DB {
	return s.db.WithContext(ctx).Model(&taskRow{}).Where("id = ? AND user_id = ?", id, string(identity))
}

func (s *Remote) Load(ctx context.Context, identity model.Identity) ([]model.Task, error) {
	if err := requireIdentity("load", "", identity); err != nil {
		return nil, err
	}

	var rows []taskRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", string(identity)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Storage("load", "", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.task())
	}
	return tasks, nil
}

func (s *Remote) Insert(ctx context.Context, identity model.Identity, draft model.TaskDraft) (model.Task, error) {
	if err := requireIdentity("insert", "", identity); err != nil {
		return model.Task{}, err
	}
	if err := validateDraft(draft); err != nil {
		return model.Task{}, err
	}

	task := newTask(draft, s.now().UTC())
	row := rowFromTask(identity, task)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Task{}, apperrors.Storage("insert", task.ID, err)
	}
	return row.task(), nil
}

func (s *Remote) Update(ctx context.Context, id string, identity model.Identity, patch model.TaskPatch) error {
	if err := requireIdentity("update", id, identity); err != nil {
		return err
	}
	if err := validatePatch(patch); err != nil {
		return err
	}

	columns := patchColumns(patch)
	if len(columns) == 0 {
		var count int64
		if err := s.owned(ctx, id, identity).Count(&count).Error; err != nil {
			return apperrors.Storage("update", id, err)
		}
		if count == 0 {
			return apperrors.Storage("update", id, apperrors.ErrNotOwned)
		}
		return nil
	}

	result := s.owned(ctx, id, identity).Updates(columns)
	if result.Error != nil {
		return apperrors.Storage("update", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Storage("update", id, apperrors.ErrNotOwned)
	}
	return nil
}

func (s *Remote) Delete(ctx context.Context, id string, identity model.Identity) error {
	if err := requireIdentity("delete", id, identity); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, string(identity)).Delete(&taskRow{})
	if result.Error != nil {
		return apperrors.Storage("delete", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Storage("delete", id, apperrors.ErrNotOwned)
	}
	return nil
}

// patchColumns maps the supplied patch fields to column updates. A map is
// used so that zero values such as completed=false are written.
func patchColumns(patch model.TaskPatch) map[string]any {
	columns := map[string]any{}
	if patch.Title != nil {
		columns["title"] = *patch.Title
	}
	if patch.Description != nil {
		columns["description"] = *patch.Description
	}
	if patch.Completed != nil {
		columns["completed"] = *patch.Completed
	}
	if patch.ClearDueDate {
		columns["due_date"] = dateColumn{}
	} else if patch.DueDate != nil {
		columns["due_date"] = dateColumn{Date: *patch.DueDate, Valid: true}
	}
	if patch.Priority != nil {
		columns["priority"] = string(*patch.Priority)
	}
	if patch.Tags != nil {
		columns["tags"] = tagsColumn(model.NormalizeTags(*patch.Tags))
	}
	if patch.ClearCategory {
		columns["category_id"] = nil
	} else if patch.CategoryID != nil {
		columns["category_id"] = *patch.CategoryID
	}
	if patch.ClearReminder {
		columns["reminder"] = nil
	} else if patch.Reminder != nil {
		columns["reminder"] = *patch.Reminder
	}
	if patch.IsRecurring != nil {
		columns["is_recurring"] = *patch.IsRecurring
	}
	if patch.RecurringPattern != nil {
		columns["recurring_pattern"] = string(*patch.RecurringPattern)
	}
	if patch.Order != nil {
		columns["sort_order"] = *patch.Order
	}
	return columns
}
