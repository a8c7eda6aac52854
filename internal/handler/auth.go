package handler

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/config"
	"github.com/BuzzLyutic/todo-list/internal/i18n"
	"github.com/BuzzLyutic/todo-list/internal/service"
	"github.com/BuzzLyutic/todo-list/internal/session"
	"github.com/BuzzLyutic/todo-list/pkg/respond"
)

type AuthHandler struct {
	service        *service.AuthService
	sessions       *session.Manager
	translator     *i18n.Translator
	views          *renderer
	logger         *zap.Logger
	signupRedirect string
	cookieSecure   bool
}

type authPage struct {
	Form form
}

func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, "signup", authPage{Form: newForm()})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	f := newForm()
	f.Values["username"] = r.PostFormValue("username")

	user, err := h.service.Signup(r.Context(), f.Values["username"], r.PostFormValue("password1"), r.PostFormValue("password2"))
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			f.Errors = verr.Fields
			h.views.render(w, r, http.StatusOK, "signup", authPage{Form: f})
			return
		}
		h.handleErrors(w, r, err)
		return
	}

	loc := i18n.FromContext(r.Context())
	if h.signupRedirect == config.SignupRedirectLogin {
		respond.Redirect(w, r, loc.Path("/auth/login/"))
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, user.ID); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	flash(w, noticeWelcome, user.Username)
	respond.Redirect(w, r, loc.Path("/tasks/"))
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	f := newForm()
	f.Values["next"] = r.URL.Query().Get("next")
	h.views.render(w, r, http.StatusOK, "login", authPage{Form: f})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	f := newForm()
	f.Values["username"] = r.PostFormValue("username")
	f.Values["next"] = r.PostFormValue("next")

	user, err := h.service.Login(r.Context(), f.Values["username"], r.PostFormValue("password"))
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			f.Errors = verr.Fields
		case errors.Is(err, service.ErrAuthentication):
			f.NonField = service.MsgInvalidLogin
		default:
			h.handleErrors(w, r, err)
			return
		}
		h.views.render(w, r, http.StatusOK, "login", authPage{Form: f})
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, user.ID); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	loc := i18n.FromContext(r.Context())
	respond.Redirect(w, r, safeNext(f.Values["next"], loc.Path("/tasks/")))
}

// Logout works for anonymous callers too; either way the cookie is cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := CurrentUser(r.Context()); ok {
		h.service.Logout(r.Context(), u.ID)
	}
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.logger.Error("failed to destroy session", zap.Error(err))
	}

	flash(w, noticeLoggedOut)
	respond.Redirect(w, r, i18n.FromContext(r.Context()).Path("/"))
}

// SetLanguage remembers an explicit language choice in a cookie and goes
// back to where the user was.
func (h *AuthHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("lang")
	if r.Method == http.MethodPost {
		code = r.PostFormValue("lang")
	}

	if _, ok := h.translator.Lookup(code); ok {
		http.SetCookie(w, &http.Cookie{
			Name:     i18n.CookieName,
			Value:    code,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	next := r.URL.Query().Get("next")
	if next == "" {
		if ref, err := url.Parse(r.Referer()); err == nil && ref.Host == r.Host {
			next = ref.RequestURI()
		}
	}
	respond.Redirect(w, r, safeNext(next, "/"))
}

func (h *AuthHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("internal error", zap.Error(err))
	h.views.serverError(w, r)
}
