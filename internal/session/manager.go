// Package session keeps server-side login sessions. The browser only holds a
// signed token naming the session; the record itself lives in a Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

const CookieName = "sessionid"

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("invalid session token")
)

type Store interface {
	Save(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Start creates a session for userID and sets its cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID int64) (model.Session, error) {
	s := model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl).UTC(),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return model.Session{}, fmt.Errorf("save session: %w", err)
	}

	token, err := m.sign(s)
	if err != nil {
		return model.Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Load returns the live session named by the request cookie. A missing,
// forged, expired or revoked session yields ErrNotFound or ErrInvalidToken.
func (m *Manager) Load(ctx context.Context, r *http.Request) (model.Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return model.Session{}, ErrNotFound
	}

	id, userID, err := m.parse(c.Value)
	if err != nil {
		return model.Session{}, err
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if s.UserID != userID || s.Expired(m.now()) {
		return model.Session{}, ErrNotFound
	}
	return s, nil
}

// Destroy revokes the request's session, if any, and always clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	id, _, err := m.parse(c.Value)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) sign(s model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   strconv.FormatInt(s.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

func (m *Manager) parse(token string) (string, int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return "", 0, ErrInvalidToken
	}
	return claims.ID, userID, nil
}
