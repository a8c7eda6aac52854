package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
	"github.com/BuzzLyutic/todo-list/internal/testutil/pgtest"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]model.Session)}
}

func (f *fakeStore) Save(_ context.Context, s model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func requestWith(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestManager_StartAndLoad(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, "secret", time.Hour, true)
	ctx := context.Background()

	w := httptest.NewRecorder()
	started, err := m.Start(ctx, w, 42)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	loaded, err := m.Load(ctx, requestWith(cookies))
	require.NoError(t, err)
	assert.Equal(t, started.ID, loaded.ID)
	assert.Equal(t, int64(42), loaded.UserID)
}

func TestManager_Load(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		request func(t *testing.T, m *Manager, store *fakeStore) *http.Request
		wantErr error
	}{
		{
			name: "no cookie",
			request: func(t *testing.T, m *Manager, store *fakeStore) *http.Request {
				return requestWith(nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "forged token",
			request: func(t *testing.T, m *Manager, store *fakeStore) *http.Request {
				other := NewManager(store, "other-secret", time.Hour, false)
				w := httptest.NewRecorder()
				_, err := other.Start(ctx, w, 1)
				require.NoError(t, err)
				return requestWith(w.Result().Cookies())
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "garbage token",
			request: func(t *testing.T, m *Manager, store *fakeStore) *http.Request {
				return requestWith([]*http.Cookie{{Name: CookieName, Value: "not-a-jwt"}})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "revoked session",
			request: func(t *testing.T, m *Manager, store *fakeStore) *http.Request {
				w := httptest.NewRecorder()
				s, err := m.Start(ctx, w, 1)
				require.NoError(t, err)
				require.NoError(t, store.Delete(ctx, s.ID))
				return requestWith(w.Result().Cookies())
			},
			wantErr: ErrNotFound,
		},
		{
			name: "record owned by another user",
			request: func(t *testing.T, m *Manager, store *fakeStore) *http.Request {
				w := httptest.NewRecorder()
				s, err := m.Start(ctx, w, 1)
				require.NoError(t, err)
				s.UserID = 2
				require.NoError(t, store.Save(ctx, s))
				return requestWith(w.Result().Cookies())
			},
			wantErr: ErrNotFound,
		},
		{
			name: "expired",
			request: func(t *testing.T, m *Manager, store *fakeStore) *http.Request {
				w := httptest.NewRecorder()
				_, err := m.Start(ctx, w, 1)
				require.NoError(t, err)
				m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
				return requestWith(w.Result().Cookies())
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			m := NewManager(store, "secret", time.Hour, false)

			_, err := m.Load(ctx, tt.request(t, m, store))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestManager_Destroy(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, "secret", time.Hour, false)
	ctx := context.Background()

	w := httptest.NewRecorder()
	s, err := m.Start(ctx, w, 7)
	require.NoError(t, err)
	r := requestWith(w.Result().Cookies())

	w2 := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, w2, r))

	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cleared := w2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)

	t.Run("anonymous is a no-op", func(t *testing.T) {
		w := httptest.NewRecorder()
		assert.NoError(t, m.Destroy(ctx, w, requestWith(nil)))
		assert.Len(t, w.Result().Cookies(), 1)
	})
}

func TestPostgresStore(t *testing.T) {
	pool, _ := pgtest.SetupTestDB(t, repo.Migrate)
	pgtest.TruncateTables(t, pool)
	ctx := context.Background()

	userID := pgtest.SeedUser(t, pool, "alice")
	store := NewPostgresStore(pool)

	live := model.Session{ID: "0b6c3c8e-3a61-4d2f-9d38-0f8f2f0b9a11", UserID: userID, ExpiresAt: time.Now().Add(time.Hour).UTC()}
	stale := model.Session{ID: "5f1e2d4c-8b7a-4c3d-a2e1-9f8e7d6c5b4a", UserID: userID, ExpiresAt: time.Now().Add(-time.Hour).UTC()}
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, stale))

	got, err := store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, store.Delete(ctx, live.ID))
	_, err = store.Get(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client)
	s := model.Session{ID: "redis-test", UserID: 3, ExpiresAt: time.Now().Add(time.Minute).UTC()}

	require.NoError(t, store.Save(ctx, s))
	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
