package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

// TaskRepository is owner scoped: every call that names a task id also names
// its owner, and a task owned by someone else behaves as if it did not exist.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, userID, id int64) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	ToggleCompleted(ctx context.Context, userID, id int64) (model.Task, error)
	Delete(ctx context.Context, userID, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type AuditRepository interface {
	Create(ctx context.Context, e model.AuditEvent) (model.AuditEvent, error)
	ListByActor(ctx context.Context, actorID int64, limit int) ([]model.AuditEvent, error)
}
