package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/i18n"
	"github.com/BuzzLyutic/todo-list/internal/metrics"
	"github.com/BuzzLyutic/todo-list/internal/service"
	"github.com/BuzzLyutic/todo-list/internal/session"
	"github.com/BuzzLyutic/todo-list/pkg/respond"
)

// Deps is everything the HTTP layer needs. Metrics and Health are optional.
type Deps struct {
	Tasks      *service.TaskService
	Auth       *service.AuthService
	Sessions   *session.Manager
	Translator *i18n.Translator
	Metrics    *metrics.Metrics
	Health     func(ctx context.Context) error
	Logger     *zap.Logger

	SignupRedirect string
	CookieSecure   bool
}

func NewRouter(d Deps) (http.Handler, error) {
	views, err := newRenderer(d.Logger)
	if err != nil {
		return nil, err
	}

	tasks := &TaskHandler{service: d.Tasks, views: views, logger: d.Logger}
	auth := &AuthHandler{
		service:        d.Auth,
		sessions:       d.Sessions,
		translator:     d.Translator,
		views:          views,
		logger:         d.Logger,
		signupRedirect: d.SignupRedirect,
		cookieSecure:   d.CookieSecure,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(d.Translator.Middleware)
	r.Use(LoadSession(d.Sessions, d.Auth, d.Logger))

	r.NotFound(views.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	r.Get("/health", health(d.Health))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		views.render(w, r, http.StatusOK, "home", nil)
	})
	r.Get("/i18n/setlang/", auth.SetLanguage)
	r.Post("/i18n/setlang/", auth.SetLanguage)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(AnonymousOnly)
			r.Get("/signup/", auth.SignupForm)
			r.Post("/signup/", auth.Signup)
			r.Get("/login/", auth.LoginForm)
			r.Post("/login/", auth.Login)
		})
		r.Get("/logout/", auth.Logout)
		r.Post("/logout/", auth.Logout)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(RequireAuth)
		r.Get("/", tasks.List)
		r.Get("/new/", tasks.NewForm)
		r.Post("/new/", tasks.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/edit/", tasks.EditForm)
			r.Post("/edit/", tasks.Update)
			r.Get("/delete/", tasks.ConfirmDelete)
			r.Post("/delete/", tasks.Delete)
			r.Post("/toggle/", tasks.Toggle)
		})
	})

	return r, nil
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				respond.JSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
