package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BuzzLyutic/todo-list/internal/audit"
	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
)

const maxTitleLen = 200

// TaskService enforces task ownership. A task that belongs to someone else
// is reported as repo.ErrorNotFound, exactly like a missing one.
type TaskService struct {
	repo  repo.TaskRepository
	audit audit.Emitter
}

func NewTaskService(repo repo.TaskRepository, emitter audit.Emitter) *TaskService {
	return &TaskService{repo: repo, audit: emitter}
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, in model.TaskInput) (model.Task, error) {
	in, err := s.validate(in)
	if err != nil {
		return model.Task{}, err
	}

	task, err := s.repo.Create(ctx, model.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.audit.Emit(ctx, audit.Event(ownerID, model.ActionTaskCreate, model.SubjectTask, task.ID))
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id int64) (model.Task, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List always scopes to filter.UserID; a blank query is treated as absent.
func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Query != nil {
		q := strings.TrimSpace(*filter.Query)
		if q == "" {
			filter.Query = nil
		} else {
			filter.Query = &q
		}
	}
	return s.repo.List(ctx, filter)
}

// Update changes title and description only.
func (s *TaskService) Update(ctx context.Context, ownerID, id int64, in model.TaskInput) (model.Task, error) {
	in, err := s.validate(in)
	if err != nil {
		return model.Task{}, err
	}

	task, err := s.repo.Update(ctx, model.Task{
		ID:          id,
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}

	s.audit.Emit(ctx, audit.Event(ownerID, model.ActionTaskUpdate, model.SubjectTask, task.ID))
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	s.audit.Emit(ctx, audit.Event(ownerID, model.ActionTaskDelete, model.SubjectTask, id))
	return nil
}

func (s *TaskService) ToggleComplete(ctx context.Context, ownerID, id int64) (model.Task, error) {
	task, err := s.repo.ToggleCompleted(ctx, ownerID, id)
	if err != nil {
		return model.Task{}, fmt.Errorf("toggle task %d: %w", id, err)
	}

	s.audit.Emit(ctx, audit.Event(ownerID, model.ActionTaskToggle, model.SubjectTask, task.ID))
	return task, nil
}

// validate trims both fields and checks the title.
func (s *TaskService) validate(in model.TaskInput) (model.TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	verr := &ValidationError{}
	switch {
	case in.Title == "":
		verr.add("title", MsgRequired)
	case utf8.RuneCountInString(in.Title) > maxTitleLen:
		verr.add("title", MsgTitleTooLong)
	}
	return in, verr.orNil()
}
