package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	apperrors "github.com/louisbranch/campaignforge/internal/services/web/platform/errors"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/pagerender"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/weberror"
	"github.com/louisbranch/campaignforge/internal/services/web/principal"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
	"github.com/louisbranch/campaignforge/internal/services/web/templates"
)

const maxFormBytes = 16 << 10

type handlers struct {
	factory *backend.Factory
}

func newHandlers(factory *backend.Factory) handlers {
	return handlers{factory: factory}
}

func (h handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := routepath.SafeNext(r.URL.Query().Get(routepath.NextQueryKey), "")
	user, err := principal.User(w, r, h.factory)
	if err != nil {
		log.Printf("login session check failed err=%v", err)
	}
	if user != nil {
		httpx.WriteRedirect(w, r, routepath.SafeNext(next, routepath.AppCampaigns))
		return
	}
	h.renderLogin(w, r, http.StatusOK, templates.LoginView{Next: next})
}

func (h handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, apperrors.Wrap(apperrors.KindInvalidInput, "parse login form", err))
		return
	}
	view := templates.LoginView{
		Email: strings.TrimSpace(r.PostForm.Get("email")),
		Next:  routepath.SafeNext(r.PostForm.Get(routepath.NextQueryKey), ""),
	}
	password := r.PostForm.Get("password")
	if view.Email == "" || password == "" {
		view.Error = webi18n.T(r.Context(), "web.login.failed")
		h.renderLogin(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	_, err := h.factory.New(sessioncookie.FromRequest(w, r)).SignInWithPassword(r.Context(), view.Email, password)
	if err != nil {
		status := backend.StatusCode(err)
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			view.Error = webi18n.T(r.Context(), "web.login.failed")
			h.renderLogin(w, r, http.StatusUnauthorized, view)
			return
		}
		h.writeError(w, r, apperrors.FromBackend("sign in", err))
		return
	}
	httpx.WriteRedirect(w, r, routepath.SafeNext(view.Next, routepath.AppCampaigns))
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.factory.New(sessioncookie.FromRequest(w, r)).SignOut(r.Context()); err != nil {
		log.Printf("sign out failed request_id=%s err=%v", httpx.RequestIDFromContext(r.Context()), err)
	}
	httpx.WriteRedirect(w, r, routepath.Login)
}

func (h handlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, view templates.LoginView) {
	if err := pagerender.WriteModulePage(w, r, pagerender.ModulePage{
		Title:      webi18n.T(r.Context(), "web.login.title"),
		StatusCode: status,
		Fragment:   templates.LoginPage(view),
	}); err != nil {
		h.writeError(w, r, err)
	}
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound)
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err)
}
