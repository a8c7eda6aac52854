package model

import "time"

type Task struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskInput is what a create or edit form may change.
type TaskInput struct {
	Title       string
	Description string
}

// TaskFilter selects the tasks visible to UserID. Date bounds are inclusive.
type TaskFilter struct {
	UserID      int64
	Query       *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
