package handler

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
	"github.com/BuzzLyutic/todo-list/internal/session"
)

// memTasks mirrors the owner scoping of repo.TaskRepo in memory.
type memTasks struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]model.Task
	clock  time.Time
}

func newMemTasks() *memTasks {
	return &memTasks{
		tasks: make(map[int64]model.Task),
		clock: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick hands out strictly increasing timestamps, one minute apart.
func (m *memTasks) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memTasks) Create(_ context.Context, t model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = m.tick()
	t.UpdatedAt = t.CreatedAt
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memTasks) Get(_ context.Context, userID, id int64) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, repo.ErrorNotFound
	}
	return t, nil
}

func (m *memTasks) List(_ context.Context, f model.TaskFilter) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Task{}
	for _, t := range m.tasks {
		if t.UserID != f.UserID {
			continue
		}
		if f.Query != nil {
			q := strings.ToLower(*f.Query)
			if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
				continue
			}
		}
		if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memTasks) Update(_ context.Context, t model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		return model.Task{}, repo.ErrorNotFound
	}
	cur.Title = t.Title
	cur.Description = t.Description
	cur.UpdatedAt = m.tick()
	m.tasks[t.ID] = cur
	return cur, nil
}

func (m *memTasks) ToggleCompleted(_ context.Context, userID, id int64) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tasks[id]
	if !ok || cur.UserID != userID {
		return model.Task{}, repo.ErrorNotFound
	}
	cur.Completed = !cur.Completed
	cur.UpdatedAt = m.tick()
	m.tasks[id] = cur
	return cur, nil
}

func (m *memTasks) Delete(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tasks[id]
	if !ok || cur.UserID != userID {
		return repo.ErrorNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTasks) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *memTasks) byTitle(title string) (model.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.Title == title {
			return t, true
		}
	}
	return model.Task{}, false
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]model.User)}
}

func (m *memUsers) Create(_ context.Context, username, hash string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return model.User{}, repo.ErrorConflict
		}
	}
	m.nextID++
	u := model.User{ID: m.nextID, Username: username, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) Get(_ context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repo.ErrorNotFound
	}
	return u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repo.ErrorNotFound
}

func (m *memUsers) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrorNotFound
	}
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]model.Session)}
}

func (m *memSessions) Save(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
