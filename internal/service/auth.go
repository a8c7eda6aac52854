package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/BuzzLyutic/todo-list/internal/audit"
	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
)

const (
	maxUsernameLen   = 150
	minPasswordLen   = 8
	maxPasswordBytes = 72 // bcrypt limit
)

type AuthService struct {
	users     repo.UserRepository
	passwords *PasswordManager
	audit     audit.Emitter
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repo.UserRepository, passwords *PasswordManager, emitter audit.Emitter) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		audit:     emitter,
		now:       time.Now,
	}
}

// Signup registers a user. Duplicate usernames are a field error on
// "username", never a server error.
func (s *AuthService) Signup(ctx context.Context, username, password1, password2 string) (model.User, error) {
	username = normalizeUsername(username)

	verr := &ValidationError{}
	switch {
	case username == "":
		verr.add("username", MsgRequired)
	case utf8.RuneCountInString(username) > maxUsernameLen:
		verr.add("username", MsgUsernameTooLong)
	case !validUsername(username):
		verr.add("username", MsgUsernameInvalid)
	}

	if password1 == "" {
		verr.add("password1", MsgRequired)
	}
	switch {
	case password2 == "":
		verr.add("password2", MsgRequired)
	case password1 != "" && password1 != password2:
		verr.add("password2", MsgPasswordMismatch)
	case len(password2) > maxPasswordBytes:
		verr.add("password2", MsgPasswordTooLong)
	case utf8.RuneCountInString(password2) < minPasswordLen:
		verr.add("password2", MsgPasswordTooShort)
	case isNumeric(password2):
		verr.add("password2", MsgPasswordNumeric)
	}

	if _, ok := verr.Fields["username"]; !ok {
		_, err := s.users.GetByUsername(ctx, username)
		switch {
		case err == nil:
			verr.add("username", MsgUsernameTaken)
		case !errors.Is(err, repo.ErrorNotFound):
			return model.User{}, fmt.Errorf("failed to check existing user: %w", err)
		}
	}
	if err := verr.orNil(); err != nil {
		return model.User{}, err
	}

	hash, err := s.passwords.HashPassword(password1)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.Create(ctx, username, hash)
	if errors.Is(err, repo.ErrorConflict) {
		verr.add("username", MsgUsernameTaken)
		return model.User{}, verr
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Emit(ctx, audit.Event(user.ID, model.ActionSignup, model.SubjectUser, user.ID))
	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords both yield
// ErrAuthentication, and both pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) (model.User, error) {
	username = normalizeUsername(username)

	verr := &ValidationError{}
	if username == "" {
		verr.add("username", MsgRequired)
	}
	if password == "" {
		verr.add("password", MsgRequired)
	}
	if err := verr.orNil(); err != nil {
		return model.User{}, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repo.ErrorNotFound) {
		s.passwords.VerifyPassword(s.dummy(), password)
		return model.User{}, ErrAuthentication
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.passwords.VerifyPassword(user.PasswordHash, password) {
		return model.User{}, ErrAuthentication
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return model.User{}, fmt.Errorf("failed to update last_login: %w", err)
	}
	user.LastLogin = &now

	s.audit.Emit(ctx, audit.Event(user.ID, model.ActionLogin, model.SubjectUser, user.ID))
	return user, nil
}

// Logout records the event; the caller clears the session itself.
func (s *AuthService) Logout(ctx context.Context, userID int64) {
	s.audit.Emit(ctx, audit.Event(userID, model.ActionLogout, model.SubjectUser, userID))
}

func (s *AuthService) User(ctx context.Context, id int64) (model.User, error) {
	return s.users.Get(ctx, id)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.passwords.HashPassword("not-a-real-password")
	})
	return s.dummyHash
}

func normalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}

func validUsername(username string) bool {
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return false
	}
	return true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
