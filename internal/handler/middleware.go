package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/i18n"
	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
	"github.com/BuzzLyutic/todo-list/internal/session"
	"github.com/BuzzLyutic/todo-list/pkg/respond"
)

type ctxKey struct{}

func withUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// CurrentUser returns the logged-in user, if any.
func CurrentUser(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(model.User)
	return u, ok
}

// requestLogger writes one line per request, like chi's middleware.Logger but
// through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// userLookup is the part of the auth service LoadSession needs.
type userLookup interface {
	User(ctx context.Context, id int64) (model.User, error)
}

// LoadSession attaches the session's user to the request context. Requests
// without a valid session pass through anonymously.
func LoadSession(sessions *session.Manager, users userLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Load(r.Context(), r)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrInvalidToken) {
					logger.Error("failed to load session", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			u, err := users.User(r.Context(), s.UserID)
			if err != nil {
				if !errors.Is(err, repo.ErrorNotFound) {
					logger.Error("failed to load session user", zap.Int64("user_id", s.UserID), zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
		})
	}
}

// RequireAuth sends anonymous callers to the login page, remembering where
// they were headed in ?next=. Only GET targets are remembered, since the
// browser comes back with a GET; form posts resume at the task list.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		loc := i18n.FromContext(r.Context())
		resume := loc.Path("/tasks/")
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			resume = loc.Path(r.URL.RequestURI())
		}
		target := loc.Path("/auth/login/") + "?next=" + url.QueryEscape(resume)
		respond.Redirect(w, r, target)
	})
}

// AnonymousOnly sends logged-in users who ask for the signup or login form
// to the home page.
func AnonymousOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); ok {
			respond.Redirect(w, r, i18n.FromContext(r.Context()).Path("/"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// safeNext returns next when it is a path on this site, else fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
