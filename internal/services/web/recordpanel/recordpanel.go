// Package recordpanel serves the create form and paginated list of one
// campaign-scoped record collection.
//
// A panel is mounted by a page module on one route: GET renders the list
// (the bare list for HTMX refreshes, the whole panel otherwise) and POST
// creates a record. The campaign and user come from the identity installed
// on the request context.
package recordpanel

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/platform/requestctx"
	"github.com/louisbranch/campaignforge/internal/platform/timeouts"
	apperrors "github.com/louisbranch/campaignforge/internal/services/web/platform/errors"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/pagerender"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/weberror"
	"github.com/louisbranch/campaignforge/internal/services/web/principal"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
	"github.com/louisbranch/campaignforge/internal/services/web/templates"
	"github.com/louisbranch/campaignforge/internal/services/web/userdisplay"
)

const maxFormBytes = 64 << 10

// Loader is the record loader a panel renders from.
type Loader = resources.Loader[resources.Record]

// Snapshot is one state of a panel's loader.
type Snapshot = resources.Snapshot[resources.Record]

// Panel describes one collection panel.
type Panel struct {
	// ID is the DOM id of the panel; its list uses ID + "-list".
	ID         string
	Collection resources.Collection
	HeadingKey string
	// Route returns the list and create route for a campaign.
	Route func(campaignID string) string
	// Page returns the page hosting the panel, where plain form posts land.
	Page      func(campaignID string) string
	Resources *resources.Service
	Factory   *backend.Factory
}

// Start begins loading one page of the panel's collection. The caller owns
// the loader and must Close it once the response is written.
func (p Panel) Start(w http.ResponseWriter, r *http.Request, page int) (*Loader, error) {
	if p.Resources == nil {
		return nil, apperrors.E(apperrors.KindUnavailable, "resource service is not configured")
	}
	key, err := resources.KeyFor(r.Context(), page)
	if err != nil {
		return nil, err
	}
	loader := p.Resources.RecordLoader(sessioncookie.FromRequest(w, r), p.Collection)
	loader.Load(r.Context(), key)
	return loader, nil
}

// Await waits for loader to settle until ctx ends. A loader still loading
// when ctx ends is returned as is so the page can render a placeholder.
func Await(ctx context.Context, loader *Loader) Snapshot {
	snapshot, _ := loader.Wait(ctx)
	return snapshot
}

// Render returns the panel for snapshot with form above the list.
func (p Panel) Render(w http.ResponseWriter, r *http.Request, snapshot Snapshot, form templates.FormView) templ.Component {
	form.Action = p.Route(campaignID(r.Context()))
	return templates.RecordPanel(p.ID, form, p.listView(w, r, snapshot))
}

// ServeList handles GET on the panel route.
func (p Panel) ServeList(w http.ResponseWriter, r *http.Request) {
	loader, err := p.Start(w, r, routepath.Page(r.URL.Query().Get(routepath.PageQueryKey)))
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	defer loader.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.ResourceLoad)
	snapshot, err := loader.Wait(ctx)
	cancel()
	if err != nil {
		snapshot.State = resources.StateError
		snapshot.Err = apperrors.Wrap(apperrors.KindUnavailable, "load "+string(p.Collection), err)
	}

	fragment := p.Render(w, r, snapshot, templates.FormView{})
	if httpx.IsHTMXRequest(r) {
		fragment = templates.RecordList(p.listView(w, r, snapshot))
	}
	p.write(w, r, http.StatusOK, fragment)
}

// ServeCreate handles POST on the panel route. Validation failures re-render
// the panel with the submitted values and status 422.
func (p Panel) ServeCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		weberror.WriteModuleError(w, r, apperrors.Wrap(apperrors.KindInvalidInput, "parse record form", err))
		return
	}
	values := map[string]string{
		"title": r.PostForm.Get("title"),
		"body":  r.PostForm.Get("body"),
		"kind":  r.PostForm.Get("kind"),
	}
	if p.Resources == nil {
		weberror.WriteModuleError(w, r, apperrors.E(apperrors.KindUnavailable, "resource service is not configured"))
		return
	}

	_, err := p.Resources.CreateRecord(r.Context(), sessioncookie.FromRequest(w, r), p.Collection, resources.RecordInput{
		Title: values["title"],
		Body:  values["body"],
		Kind:  values["kind"],
	})
	form := templates.FormView{}
	status := http.StatusOK
	switch {
	case err != nil && apperrors.KindOf(err) != apperrors.KindInvalidInput:
		weberror.WriteModuleError(w, r, err)
		return
	case err != nil:
		form = templates.FormView{Error: weberror.PublicMessage(r.Context(), err), Values: values}
		status = http.StatusUnprocessableEntity
	case !httpx.IsHTMXRequest(r):
		httpx.WriteRedirect(w, r, p.Page(campaignID(r.Context())))
		return
	}

	loader, err := p.Start(w, r, 1)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	defer loader.Close()
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.RenderWait)
	snapshot := Await(ctx, loader)
	cancel()
	p.write(w, r, status, p.Render(w, r, snapshot, form))
}

func (p Panel) write(w http.ResponseWriter, r *http.Request, status int, fragment templ.Component) {
	if err := pagerender.WriteModulePage(w, r, pagerender.ModulePage{
		Title:      webi18n.T(r.Context(), p.HeadingKey),
		StatusCode: status,
		Fragment:   fragment,
	}); err != nil {
		weberror.WriteModuleError(w, r, err)
	}
}

func (p Panel) listView(w http.ResponseWriter, r *http.Request, snapshot Snapshot) templates.RecordListView {
	ctx := r.Context()
	view := templates.RecordListView{ListView: templates.ListView{
		ID:      p.ID + "-list",
		Heading: webi18n.T(ctx, p.HeadingKey),
		Source:  p.Route(campaignID(ctx)),
		State:   snapshot.State,
		Page:    snapshot.Key.Page,
	}}
	switch snapshot.State {
	case resources.StateError:
		view.Error = weberror.PublicMessage(ctx, snapshot.Err)
	case resources.StateSuccess:
		authors := userdisplay.NewResolver(principal.ForRequest(w, r, p.Factory))
		view.Items = make([]templates.RecordItem, 0, len(snapshot.Items))
		for _, record := range snapshot.Items {
			view.Items = append(view.Items, templates.RecordItem{
				Title:     record.Title,
				Body:      record.Body,
				Kind:      record.Kind,
				Author:    author(ctx, authors, record.OwnerID),
				CreatedAt: record.CreatedAt,
			})
		}
		view.HasNext = len(snapshot.Items) == resources.PageSize
	}
	return view
}

func author(ctx context.Context, authors *userdisplay.Resolver, ownerID string) string {
	if strings.TrimSpace(ownerID) == "" {
		return ""
	}
	if email, ok := authors.Email(ctx, ownerID); ok {
		return webi18n.T(ctx, "web.record.by", email)
	}
	return webi18n.T(ctx, "web.record.by_other")
}

func campaignID(ctx context.Context) string {
	identity, _ := requestctx.IdentityFromContext(ctx)
	return identity.CampaignID
}
