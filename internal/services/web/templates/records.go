package templates

import (
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
)

// RecordItem is one rendered record.
type RecordItem struct {
	Title     string
	Body      string
	Kind      string
	Author    string
	CreatedAt time.Time
}

// ListView is the state shared by every paginated list fragment.
type ListView struct {
	// ID is the DOM id the fragment replaces on refresh.
	ID      string
	Heading string
	// Source is the fragment route that re-renders this list.
	Source  string
	State   resources.State
	Error   string
	Page    int
	HasNext bool
}

// RecordListView is a paginated record list.
type RecordListView struct {
	ListView
	Items []RecordItem
}

// FormView carries a create form's target and validation state.
type FormView struct {
	Action string
	// Target is the DOM id of the list refreshed after submit.
	Target string
	Error  string
	Values map[string]string
}

func (f FormView) value(name string) string {
	if f.Values == nil {
		return ""
	}
	return f.Values[name]
}

// RecordList renders a record list in its current load state.
func RecordList(view RecordListView) templ.Component {
	return component(func(h *htmlWriter) {
		openList(h, view.ListView)
		if listBody(h, view.ListView, len(view.Items)) {
			h.raw(`<ul class="records">`)
			for _, item := range view.Items {
				h.raw(`<li class="record"><article><h3>`)
				h.text(item.Title)
				h.raw("</h3>")
				if item.Kind != "" {
					h.raw(`<span class="record-kind">`)
					h.text(item.Kind)
					h.raw("</span>")
				}
				if item.Body != "" {
					h.raw(`<p class="record-body">`)
					h.text(item.Body)
					h.raw("</p>")
				}
				h.raw(`<footer>`)
				if item.Author != "" {
					h.raw(`<span class="record-author">`)
					h.text(item.Author)
					h.raw("</span>")
				}
				if !item.CreatedAt.IsZero() {
					h.raw("<time")
					h.attr("datetime", item.CreatedAt.UTC().Format(time.RFC3339))
					h.raw(">")
					h.text(item.CreatedAt.UTC().Format("2006-01-02 15:04"))
					h.raw("</time>")
				}
				h.raw("</footer></article></li>")
			}
			h.raw("</ul>")
			pagination(h, view.ListView)
		}
		h.raw("</section>")
	})
}

func openList(h *htmlWriter, view ListView) {
	h.raw(`<section class="list"`)
	h.attr("id", view.ID)
	h.attr("data-state", view.State.String())
	h.raw(">")
	if view.Heading != "" {
		h.raw("<h2>")
		h.text(view.Heading)
		h.raw("</h2>")
	}
}

// listBody renders the non-success states and reports whether the caller
// should render items.
func listBody(h *htmlWriter, view ListView, count int) bool {
	switch view.State {
	case resources.StateIdle, resources.StateLoading:
		h.raw(`<p class="state-loading"`)
		if view.Source != "" {
			h.urlAttr("hx-get", routepath.WithPage(view.Source, view.Page))
			h.attr("hx-trigger", "load")
			h.attr("hx-target", "#"+view.ID)
			h.attr("hx-swap", "outerHTML")
		}
		h.raw(">")
		h.t("core.state.loading")
		h.raw("</p>")
		return false
	case resources.StateError:
		h.raw(`<div class="state-error" role="alert"><p>`)
		if view.Error != "" {
			h.text(view.Error)
		} else {
			h.t("core.state.load_failed")
		}
		h.raw("</p>")
		if view.Source != "" {
			source := routepath.WithPage(view.Source, view.Page)
			h.raw("<a")
			h.urlAttr("href", source)
			h.urlAttr("hx-get", source)
			h.attr("hx-target", "#"+view.ID)
			h.attr("hx-swap", "outerHTML")
			h.raw(">")
			h.t("core.state.retry")
			h.raw("</a>")
		}
		h.raw("</div>")
		return false
	}
	if count == 0 && view.Page <= 1 {
		h.raw(`<p class="state-empty">`)
		h.t("core.state.empty")
		h.raw("</p>")
		return false
	}
	return true
}

func pagination(h *htmlWriter, view ListView) {
	if view.Page <= 1 && !view.HasNext {
		return
	}
	h.raw(`<nav class="pagination">`)
	if view.Page > 1 {
		pageLink(h, view, view.Page-1, "core.pagination.newer")
	}
	if view.HasNext {
		pageLink(h, view, view.Page+1, "core.pagination.older")
	}
	h.raw("</nav>")
}

func pageLink(h *htmlWriter, view ListView, page int, key string) {
	target := routepath.WithPage(view.Source, page)
	h.raw("<a")
	h.urlAttr("href", target)
	h.urlAttr("hx-get", target)
	h.attr("hx-target", "#"+view.ID)
	h.attr("hx-swap", "outerHTML")
	h.attr("data-page", strconv.Itoa(page))
	h.raw(">")
	h.t(key)
	h.raw("</a>")
}

// RecordForm renders the create form for a record collection.
func RecordForm(view FormView) templ.Component {
	return component(func(h *htmlWriter) {
		openForm(h, view)
		textInput(h, "title", "web.record.title", view.value("title"), true)
		h.raw(`<label>`)
		h.t("web.record.body")
		h.raw(`<textarea name="body" rows="3">`)
		h.text(view.value("body"))
		h.raw("</textarea></label>")
		textInput(h, "kind", "web.record.kind", view.value("kind"), false)
		h.raw(`<button type="submit">`)
		h.t("web.record.add")
		h.raw("</button></form>")
	})
}

func openForm(h *htmlWriter, view FormView) {
	h.raw(`<form class="create-form" method="post"`)
	h.urlAttr("action", view.Action)
	if view.Target != "" {
		h.urlAttr("hx-post", view.Action)
		h.attr("hx-target", "#"+view.Target)
		h.attr("hx-swap", "outerHTML")
	}
	h.raw(">")
	if view.Error != "" {
		h.raw(`<p class="form-error" role="alert">`)
		h.text(view.Error)
		h.raw("</p>")
	}
}

func textInput(h *htmlWriter, name, labelKey, value string, required bool) {
	h.raw("<label>")
	h.t(labelKey)
	h.raw(`<input type="text"`)
	h.attr("name", name)
	h.attr("value", value)
	if required {
		h.raw(" required")
	}
	h.raw("></label>")
}

// RecordPanel renders a create form above its list. Form submissions swap
// the whole panel so validation errors and the refreshed list arrive
// together.
func RecordPanel(id string, form FormView, list RecordListView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="panel"`)
		h.attr("id", id)
		h.raw(">")
		form.Target = id
		h.component(RecordForm(form))
		h.component(RecordList(list))
		h.raw("</div>")
	})
}
