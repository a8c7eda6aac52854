package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

const userColumns = `id, username, password_hash, last_login, created_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create returns ErrorConflict when the username is already taken.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING `+userColumns,
		username, passwordHash).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.LastLogin, &u.CreatedAt)
	return u, mapError(err)
}

func (r *UserRepo) Get(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.LastLogin, &u.CreatedAt)
	return u, mapError(err)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.LastLogin, &u.CreatedAt)
	return u, mapError(err)
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.pool.Exec(ctx, "UPDATE users SET last_login = $2 WHERE id = $1", id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}
