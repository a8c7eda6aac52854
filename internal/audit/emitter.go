// Package audit emits one structured event per user-visible mutation.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

// Emitter never fails the caller; sinks report their own errors.
type Emitter interface {
	Emit(ctx context.Context, e model.AuditEvent)
}

// Event builds an event stamped with the current time.
func Event(actorID int64, action model.AuditAction, subjectType string, subjectID int64) model.AuditEvent {
	return model.AuditEvent{
		ActorID:     actorID,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		OccurredAt:  time.Now().UTC(),
	}
}

type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger.Named("audit")}
}

func (l *LogEmitter) Emit(_ context.Context, e model.AuditEvent) {
	l.logger.Info("audit event",
		zap.Int64("actor_id", e.ActorID),
		zap.String("action", string(e.Action)),
		zap.String("subject_type", e.SubjectType),
		zap.Int64("subject_id", e.SubjectID),
		zap.Time("occurred_at", e.OccurredAt),
	)
}

// Fanout sends every event to each of its emitters in order.
type Fanout []Emitter

func (f Fanout) Emit(ctx context.Context, e model.AuditEvent) {
	for _, em := range f {
		em.Emit(ctx, e)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, model.AuditEvent) {}
