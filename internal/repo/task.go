package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, description)
		VALUES ($1, $2, $3)
		RETURNING `+taskColumns,
		t.UserID, t.Title, t.Description)

	created, err := scanTask(row)
	return created, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	t, err := scanTask(row)
	return t, mapError(err)
}

// List applies the owner restriction first, then the optional text search
// and inclusive creation date bounds. Newest first, later inserts win ties.
func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		  AND ($2::text IS NULL
		       OR strpos(lower(title), lower($2::text)) > 0
		       OR strpos(lower(description), lower($2::text)) > 0)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at DESC, id DESC
	`, filter.UserID, filter.Query, filter.CreatedFrom, filter.CreatedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update rewrites title and description only.
func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		t.ID, t.UserID, t.Title, t.Description)

	updated, err := scanTask(row)
	return updated, mapError(err)
}

// ToggleCompleted flips the flag in a single statement so a concurrent
// delete makes it fail with ErrorNotFound instead of bringing the row back.
func (r *TaskRepo) ToggleCompleted(ctx context.Context, userID, id int64) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET completed = NOT completed, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		id, userID)

	t, err := scanTask(row)
	return t, mapError(err)
}

func (r *TaskRepo) Delete(ctx context.Context, userID, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
