// Package weberror renders shared error responses for web modules.
package weberror

import (
	"context"
	"log"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/campaignforge/internal/services/web/platform/errors"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/pagerender"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
	"github.com/louisbranch/campaignforge/internal/services/web/templates"
)

// ShouldRenderAppError reports whether status should use the error page.
func ShouldRenderAppError(statusCode int) bool {
	return statusCode == http.StatusNotFound ||
		statusCode == http.StatusForbidden ||
		statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized error message.
func PublicMessage(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	if key := apperrors.LocalizationKey(err); key != "" {
		if localized := strings.TrimSpace(webi18n.T(ctx, key)); localized != "" && localized != key {
			return localized
		}
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// WriteAppError writes the localized error page for statusCode.
func WriteAppError(w http.ResponseWriter, r *http.Request, statusCode int) {
	if w == nil {
		return
	}
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	ctx := httpx.RequestContext(r)
	message := webi18n.T(ctx, statusMessageKey(statusCode))
	err := pagerender.WriteModulePage(w, r, pagerender.ModulePage{
		Title:      webi18n.T(ctx, "core.error.title"),
		StatusCode: statusCode,
		Fragment:   templates.ErrorPage(statusCode, message),
	})
	if err != nil {
		http.Error(w, message, statusCode)
	}
}

func statusMessageKey(statusCode int) string {
	switch statusCode {
	case http.StatusNotFound:
		return "core.error.not_found"
	case http.StatusForbidden:
		return "core.error.forbidden"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "core.error.unavailable"
	default:
		return "core.error.internal"
	}
}

// WriteModuleError writes a module-safe localized error response. A
// rejected session sends the user to sign in and return afterwards.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError && r != nil {
		log.Printf("module error method=%s path=%s request_id=%s err=%v", r.Method, r.URL.Path, httpx.RequestIDFromContext(r.Context()), err)
	}
	if statusCode == http.StatusUnauthorized && r != nil {
		httpx.WriteRedirect(w, r, routepath.LoginWithNext(r.URL.RequestURI()))
		return
	}
	if ShouldRenderAppError(statusCode) {
		WriteAppError(w, r, statusCode)
		return
	}
	http.Error(w, PublicMessage(httpx.RequestContext(r), err), statusCode)
}
