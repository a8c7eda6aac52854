package handler

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/i18n"
	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/pkg/respond"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home", "tasks_list", "tasks_form", "tasks_confirm_delete",
	"signup", "login", "404", "500",
}

const flashCookie = "flash"

// Notices a handler may flash. Anything else found in the cookie is ignored.
const (
	noticeTaskCreated = "The task was created successfully."
	noticeTaskUpdated = "The task was updated successfully."
	noticeTaskDeleted = "The task was deleted successfully."
	noticeLoggedOut   = "You have been logged out."
	noticeWelcome     = "Welcome, %s!"
)

var notices = map[string]bool{
	noticeTaskCreated: true,
	noticeTaskUpdated: true,
	noticeTaskDeleted: true,
	noticeLoggedOut:   true,
	noticeWelcome:     true,
}

// page is the data every template receives.
type page struct {
	L     i18n.Locale
	User  *model.User
	Flash string
	// Here is the current path+query without the language prefix.
	Here      string
	Languages []string
	Data      any
}

// form carries submitted values and per-field message keys back to a form.
type form struct {
	Values   map[string]string
	Errors   map[string]string
	NonField string
}

func newForm() form {
	return form{Values: map[string]string{}, Errors: map[string]string{}}
}

type renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

// newRenderer parses each page together with the base layout.
func newRenderer(logger *zap.Logger) (*renderer, error) {
	v := &renderer{pages: make(map[string]*template.Template, len(pageNames)), logger: logger}
	for _, name := range pageNames {
		t, err := template.New(name).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (v *renderer) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	t, ok := v.pages[name]
	if !ok {
		v.logger.Error("unknown template", zap.String("template", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p := page{
		L:         i18n.FromContext(r.Context()),
		Flash:     v.takeFlash(w, r),
		Here:      r.URL.RequestURI(),
		Languages: languageCodes(),
		Data:      data,
	}
	if u, ok := CurrentUser(r.Context()); ok {
		p.User = &u
	}

	if err := respond.HTML(w, code, t, "base", p); err != nil {
		v.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (v *renderer) notFound(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusNotFound, "404", nil)
}

func (v *renderer) serverError(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusInternalServerError, "500", nil)
}

// flash stores a notice for the next rendered page.
func flash(w http.ResponseWriter, key string, args ...string) {
	vals := url.Values{"m": {key}}
	if len(args) > 0 {
		vals["a"] = args
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    vals.Encode(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads, translates and clears the pending notice.
func (v *renderer) takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	vals, err := url.ParseQuery(c.Value)
	if err != nil {
		return ""
	}
	key := vals.Get("m")
	if !notices[key] {
		return ""
	}

	args := make([]any, 0, len(vals["a"]))
	for _, a := range vals["a"] {
		args = append(args, a)
	}
	return i18n.FromContext(r.Context()).T(key, args...)
}

func languageCodes() []string {
	codes := make([]string, 0, len(i18n.Supported))
	for _, tag := range i18n.Supported {
		base, _ := tag.Base()
		codes = append(codes, base.String())
	}
	return codes
}
