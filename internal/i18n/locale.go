package i18n

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// CookieName holds an explicit language choice.
const CookieName = "lang"

type ctxKey struct{}

// Locale is the language chosen for one request.
type Locale struct {
	Tag language.Tag
	// Prefix is "/es" when the request came in under a language prefix and
	// must be kept on every link and redirect.
	Prefix  string
	printer *message.Printer
}

// T translates key, formatting args into it.
func (l Locale) T(key string, args ...any) string {
	p := l.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	return p.Sprintf(key, args...)
}

// Code is the two-letter language code, e.g. "es".
func (l Locale) Code() string {
	base, _ := l.Tag.Base()
	return base.String()
}

// Path prefixes p with the request's language prefix.
func (l Locale) Path(p string) string {
	return l.Prefix + p
}

func (l Locale) FormatTime(t time.Time) string {
	if l.Code() == "es" {
		return t.Format("02/01/2006 15:04")
	}
	return t.Format("Jan 2, 2006 15:04")
}

type Translator struct {
	catalog  catalog.Catalog
	matcher  language.Matcher
	fallback language.Tag
}

func NewTranslator(defaultLang string) (*Translator, error) {
	cat, err := NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	t := &Translator{
		catalog:  cat,
		matcher:  language.NewMatcher(Supported),
		fallback: Supported[0],
	}
	if tag, ok := t.Lookup(defaultLang); ok {
		t.fallback = tag
	}
	return t, nil
}

// Locale returns the locale for tag, which must be one of Supported.
func (t *Translator) Locale(tag language.Tag, prefix string) Locale {
	return Locale{
		Tag:     tag,
		Prefix:  prefix,
		printer: message.NewPrinter(tag, message.Catalog(t.catalog)),
	}
}

// Lookup reports whether code names a supported language.
func (t *Translator) Lookup(code string) (language.Tag, bool) {
	for _, tag := range Supported {
		base, _ := tag.Base()
		if strings.EqualFold(base.String(), code) {
			return tag, true
		}
	}
	return language.Und, false
}

// Negotiate picks the locale from, in order: a "/xx/" path prefix, the lang
// cookie, Accept-Language, the configured default. It also returns the path
// with any prefix removed.
func (t *Translator) Negotiate(r *http.Request) (Locale, string) {
	path := r.URL.Path
	if code, rest, ok := splitPrefix(path); ok {
		if tag, ok := t.Lookup(code); ok {
			return t.Locale(tag, "/"+code), rest
		}
	}

	if c, err := r.Cookie(CookieName); err == nil {
		if tag, ok := t.Lookup(c.Value); ok {
			return t.Locale(tag, ""), path
		}
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if prefs, _, err := language.ParseAcceptLanguage(accept); err == nil && len(prefs) > 0 {
			_, idx, conf := t.matcher.Match(prefs...)
			if conf != language.No {
				return t.Locale(Supported[idx], ""), path
			}
		}
	}

	return t.Locale(t.fallback, ""), path
}

// Middleware stores the negotiated Locale in the request context and strips
// the language prefix before routing.
func (t *Translator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc, path := t.Negotiate(r)
		r = r.WithContext(WithLocale(r.Context(), loc))
		if path != r.URL.Path {
			u := *r.URL
			u.Path = path
			u.RawPath = ""
			r.URL = &u
		}
		w.Header().Set("Content-Language", loc.Code())
		next.ServeHTTP(w, r)
	})
}

func WithLocale(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request locale, or an untranslated English one.
func FromContext(ctx context.Context) Locale {
	if l, ok := ctx.Value(ctxKey{}).(Locale); ok {
		return l
	}
	return Locale{Tag: language.English}
}

// splitPrefix splits "/es/tasks/" into "es" and "/tasks/".
func splitPrefix(path string) (string, string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	code, rest, found := strings.Cut(trimmed, "/")
	if len(code) != 2 {
		return "", "", false
	}
	if !found {
		return code, "/", true
	}
	return code, "/" + rest, true
}
