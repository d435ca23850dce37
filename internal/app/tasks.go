package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

// TaskInput carries the writable task fields.
type TaskInput struct {
	Title    string
	DueDate  time.Time
	Priority domain.TaskPriority
	Status   domain.TaskStatus
}

// CreateTask adds a task for the user. Status defaults to pending.
func (a *App) CreateTask(userID string, in TaskInput) (domain.Task, error) {
	title := security.SanitizeText(strings.TrimSpace(in.Title))
	if !security.ValidTitle(title) {
		return domain.Task{}, ErrInvalidTitle
	}
	if !validPriority(in.Priority) {
		return domain.Task{}, ErrInvalidPriority
	}
	status := in.Status
	if status == "" {
		status = domain.TaskPending
	}
	if !validStatus(status) {
		return domain.Task{}, ErrInvalidStatus
	}
	now := time.Now().UTC()
	task := domain.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		DueDate:   in.DueDate,
		Priority:  in.Priority,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// ListTasks returns the user's tasks ordered by due date.
func (a *App) ListTasks(userID string) ([]domain.Task, error) {
	return a.store.ListTasksByOwner(userID)
}

// UpdateTask edits one of the user's tasks.
func (a *App) UpdateTask(userID, taskID string, in TaskInput) (domain.Task, error) {
	if !security.ValidUUID(taskID) {
		return domain.Task{}, ErrNotFound
	}
	task, ok, err := a.store.GetTask(userID, taskID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	if in.Title != "" {
		title := security.SanitizeText(strings.TrimSpace(in.Title))
		if !security.ValidTitle(title) {
			return domain.Task{}, ErrInvalidTitle
		}
		task.Title = title
	}
	if !in.DueDate.IsZero() {
		task.DueDate = in.DueDate
	}
	if in.Priority != "" {
		if !validPriority(in.Priority) {
			return domain.Task{}, ErrInvalidPriority
		}
		task.Priority = in.Priority
	}
	if in.Status != "" {
		if !validStatus(in.Status) {
			return domain.Task{}, ErrInvalidStatus
		}
		task.Status = in.Status
	}
	task.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// DeleteTask removes one of the user's tasks.
func (a *App) DeleteTask(userID, taskID string) error {
	if !security.ValidUUID(taskID) {
		return ErrNotFound
	}
	_, ok, err := a.store.GetTask(userID, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return a.store.DeleteTask(userID, taskID)
}

func validPriority(p domain.TaskPriority) bool {
	switch p {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		return true
	}
	return false
}

func validStatus(s domain.TaskStatus) bool {
	switch s {
	case domain.TaskPending, domain.TaskInProgress, domain.TaskCompleted:
		return true
	}
	return false
}
