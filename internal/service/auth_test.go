package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, username, passwordHash string) (model.User, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func newAuthService(users *MockUserRepository, emitter *recordingEmitter) *AuthService {
	return NewAuthService(users, NewPasswordManager(bcrypt.MinCost), emitter)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		password1  string
		password2  string
		setupMock  func(*MockUserRepository)
		wantFields map[string]string
	}{
		{
			name:      "successful signup",
			username:  " newuser ",
			password1: "newpassword123",
			password2: "newpassword123",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "newuser").Return(model.User{}, repo.ErrorNotFound)
				m.On("Create", mock.Anything, "newuser", mock.MatchedBy(func(hash string) bool {
					return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword123")) == nil
				})).Return(model.User{ID: 3, Username: "newuser"}, nil)
			},
		},
		{
			name:      "password mismatch",
			username:  "newuser",
			password1: "password123",
			password2: "password321",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "newuser").Return(model.User{}, repo.ErrorNotFound)
			},
			wantFields: map[string]string{"password2": MsgPasswordMismatch},
		},
		{
			name:      "duplicate username",
			username:  "alice",
			password1: "newpassword123",
			password2: "newpassword123",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "alice").Return(model.User{ID: 1, Username: "alice"}, nil)
			},
			wantFields: map[string]string{"username": MsgUsernameTaken},
		},
		{
			name:      "duplicate username lost race",
			username:  "alice",
			password1: "newpassword123",
			password2: "newpassword123",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "alice").Return(model.User{}, repo.ErrorNotFound)
				m.On("Create", mock.Anything, "alice", mock.Anything).Return(model.User{}, repo.ErrorConflict)
			},
			wantFields: map[string]string{"username": MsgUsernameTaken},
		},
		{
			name:      "blank fields",
			username:  "  ",
			setupMock: func(m *MockUserRepository) {},
			wantFields: map[string]string{
				"username":  MsgRequired,
				"password1": MsgRequired,
				"password2": MsgRequired,
			},
		},
		{
			name:       "invalid username characters",
			username:   "bad name!",
			password1:  "newpassword123",
			password2:  "newpassword123",
			setupMock:  func(m *MockUserRepository) {},
			wantFields: map[string]string{"username": MsgUsernameInvalid},
		},
		{
			name:      "password longer than bcrypt accepts",
			username:  "newuser",
			password1: strings.Repeat("a", 73),
			password2: strings.Repeat("a", 73),
			setupMock: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "newuser").Return(model.User{}, repo.ErrorNotFound)
			},
			wantFields: map[string]string{"password2": MsgPasswordTooLong},
		},
		{
			name:      "short password",
			username:  "newuser",
			password1: "abc",
			password2: "abc",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "newuser").Return(model.User{}, repo.ErrorNotFound)
			},
			wantFields: map[string]string{"password2": MsgPasswordTooShort},
		},
		{
			name:      "numeric password",
			username:  "newuser",
			password1: "1234567890",
			password2: "1234567890",
			setupMock: func(m *MockUserRepository) {
				m.On("GetByUsername", mock.Anything, "newuser").Return(model.User{}, repo.ErrorNotFound)
			},
			wantFields: map[string]string{"password2": MsgPasswordNumeric},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setupMock(users)
			emitter := &recordingEmitter{}

			user, err := newAuthService(users, emitter).Signup(context.Background(), tt.username, tt.password1, tt.password2)

			if tt.wantFields != nil {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantFields, verr.Fields)
				assert.Empty(t, emitter.events)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(3), user.ID)
				assert.Equal(t, []model.AuditAction{model.ActionSignup}, emitter.actions())
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_Signup_StoreFailure(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByUsername", mock.Anything, "newuser").Return(model.User{}, errors.New("connection reset"))

	_, err := newAuthService(users, &recordingEmitter{}).Signup(context.Background(), "newuser", "newpassword123", "newpassword123")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := NewPasswordManager(bcrypt.MinCost).HashPassword("testpassword123")
	require.NoError(t, err)
	stored := model.User{ID: 1, Username: "testuser", PasswordHash: hash}

	t.Run("correct credentials", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetByUsername", mock.Anything, "testuser").Return(stored, nil)
		users.On("TouchLastLogin", mock.Anything, int64(1), mock.AnythingOfType("time.Time")).Return(nil)
		emitter := &recordingEmitter{}

		user, err := newAuthService(users, emitter).Login(context.Background(), "testuser", "testpassword123")

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		require.NotNil(t, user.LastLogin)
		assert.Equal(t, []model.AuditAction{model.ActionLogin}, emitter.actions())
		users.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetByUsername", mock.Anything, "testuser").Return(stored, nil)
		emitter := &recordingEmitter{}

		_, err := newAuthService(users, emitter).Login(context.Background(), "testuser", "wrongpassword")

		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Empty(t, emitter.events)
		users.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetByUsername", mock.Anything, "ghost").Return(model.User{}, repo.ErrorNotFound)

		_, err := newAuthService(users, &recordingEmitter{}).Login(context.Background(), "ghost", "whatever123")

		assert.ErrorIs(t, err, ErrAuthentication)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := newAuthService(new(MockUserRepository), &recordingEmitter{}).Login(context.Background(), "", "")

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, map[string]string{"username": MsgRequired, "password": MsgRequired}, verr.Fields)
	})
}

func TestAuthService_Logout(t *testing.T) {
	emitter := &recordingEmitter{}
	newAuthService(new(MockUserRepository), emitter).Logout(context.Background(), 4)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, model.ActionLogout, emitter.events[0].Action)
	assert.Equal(t, int64(4), emitter.events[0].ActorID)
}

func TestPasswordManager(t *testing.T) {
	pm := NewPasswordManager(bcrypt.MinCost)

	hash, err := pm.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, pm.VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, pm.VerifyPassword(hash, "S3cret-pass"))

	other, err := pm.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted")
}
