package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/FernanDeHoyos/api-rick/internal/model"

	"gorm.io/gorm"
)

// ErrTaskNotFound is returned when a task id does not exist.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore persists tasks. It guards data integrity only; the
// ownership check lives in the handlers, because the store has no
// notion of a current user.
type TaskStore interface {
	ListByOwner(ctx context.Context, userID uint) ([]model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id uint) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uint) error
	SetCharacter(ctx context.Context, id uint, characterID int) error
}

type dbTaskStore struct {
	db *gorm.DB
}

func (s dbTaskStore) ListByOwner(ctx context.Context, userID uint) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s dbTaskStore) Create(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Create(task).Error
}

func (s dbTaskStore) Get(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// Update writes the whole row; edit semantics are a wholesale
// replacement, not a partial patch.
func (s dbTaskStore) Update(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Save(task).Error
}

func (s dbTaskStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.Task{}, id).Error
}

func (s dbTaskStore) SetCharacter(ctx context.Context, id uint, characterID int) error {
	return s.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Update("character_id", characterID).Error
}
