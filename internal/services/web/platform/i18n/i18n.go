// Package i18n resolves the request language and exposes a message printer
// on the request context.
package i18n

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/campaignforge/internal/platform/i18n/catalog"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter that selects a language.
	LangParam = "lang"
	// LangCookieName stores the selected language.
	LangCookieName = "cf_lang"
)

// Localizer is the formatting surface templates depend on.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

var (
	supported = catalog.Default().Tags()
	matcher   = language.NewMatcher(supported)
)

// Supported returns the catalog languages, base locale first.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match returns the supported tag closest to the preferred tags.
func Match(preferred ...language.Tag) language.Tag {
	_, index, confidence := matcher.Match(preferred...)
	if confidence == language.No {
		return supported[0]
	}
	return supported[index]
}

// ParseTag resolves one language value to a supported tag.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Tag{}, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Tag{}, false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return language.Tag{}, false
	}
	return supported[index], true
}

// ResolveTag picks the request language from the lang query parameter, the
// language cookie, then Accept-Language. The bool reports whether the query
// parameter chose it and should be persisted.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return supported[0], false
	}
	if tag, ok := ParseTag(r.URL.Query().Get(LangParam)); ok {
		return tag, true
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := ParseTag(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return Match(tags...), false
		}
	}
	return supported[0], false
}

type tagContextKey struct{}

// WithTag stores the request language on ctx.
func WithTag(ctx context.Context, tag language.Tag) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tagContextKey{}, tag)
}

// TagFromContext returns the request language, defaulting to the base locale.
func TagFromContext(ctx context.Context) language.Tag {
	if ctx != nil {
		if tag, ok := ctx.Value(tagContextKey{}).(language.Tag); ok {
			return tag
		}
	}
	return supported[0]
}

// Printer returns a message printer for the request language.
func Printer(ctx context.Context) *message.Printer {
	return message.NewPrinter(TagFromContext(ctx))
}

// T formats one catalog message for the request language.
func T(ctx context.Context, key string, args ...any) string {
	return Printer(ctx).Sprintf(key, args...)
}

// Middleware resolves the request language once and persists an explicit
// lang choice in a cookie.
func Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag, persist := ResolveTag(r)
			if persist {
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookieName,
					Value:    tag.String(),
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(WithTag(r.Context(), tag)))
		})
	}
}
