package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

// AuditRepo stores audit events drained from the audit queue.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Create(ctx context.Context, e model.AuditEvent) (model.AuditEvent, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO audit_events (actor_id, action, subject_type, subject_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, e.ActorID, e.Action, e.SubjectType, e.SubjectID, e.OccurredAt).Scan(&e.ID)
	return e, err
}

func (r *AuditRepo) ListByActor(ctx context.Context, actorID int64, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, subject_type, subject_id, occurred_at
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.AuditEvent, 0, limit)
	for rows.Next() {
		var e model.AuditEvent
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.SubjectType, &e.SubjectID, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
