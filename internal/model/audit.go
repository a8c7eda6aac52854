package model

import "time"

type AuditAction string

const (
	ActionTaskCreate AuditAction = "task.create"
	ActionTaskUpdate AuditAction = "task.update"
	ActionTaskDelete AuditAction = "task.delete"
	ActionTaskToggle AuditAction = "task.toggle"
	ActionSignup     AuditAction = "user.signup"
	ActionLogin      AuditAction = "user.login"
	ActionLogout     AuditAction = "user.logout"
)

const (
	SubjectTask = "task"
	SubjectUser = "user"
)

// AuditEvent records who did what to which entity.
type AuditEvent struct {
	ID          int64       `json:"id,omitempty"`
	ActorID     int64       `json:"actor_id"`
	Action      AuditAction `json:"action"`
	SubjectType string      `json:"subject_type"`
	SubjectID   int64       `json:"subject_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
