package page

import (
	"net/url"

	"github.com/vango-dev/counsel/pkg/filter"
	"github.com/vango-dev/counsel/pkg/form"
	"github.com/vango-dev/counsel/pkg/submit"
	"github.com/vango-dev/counsel/pkg/toast"
	"github.com/vango-dev/counsel/pkg/toggle"
)

// View is a render snapshot of a page.
type View struct {
	Page  string `json:"page"`
	Title string `json:"title"`

	Values     url.Values        `json:"values"`
	Dirty      bool              `json:"dirty"`
	Submitting bool              `json:"submitting"`
	Button     submit.Button     `json:"button"`
	Invalid    map[string]string `json:"invalid,omitempty"`

	// Revealed lists password fields shown as plain text.
	Revealed []string `json:"revealed,omitempty"`

	Counters map[string]form.Counter `json:"counters,omitempty"`
	Sections []toggle.SectionState   `json:"sections,omitempty"`
	Toasts   []ToastView             `json:"toasts"`

	Availability string     `json:"availability,omitempty"`
	Image        *ImageView `json:"image,omitempty"`

	// Visible lists the table rows passing the filter, in table order.
	Visible  []string        `json:"visible,omitempty"`
	Criteria filter.Criteria `json:"criteria,omitempty"`

	Scroll int `json:"scroll,omitempty"`
}

// ToastView is a notification as rendered, most recent first.
type ToastView struct {
	ID      uint64      `json:"id"`
	Message string      `json:"message"`
	Kind    toast.Type  `json:"kind"`
	Phase   toast.Phase `json:"phase"`
}

// ImageView is the selected image.
type ImageView struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// View returns the current snapshot.
func (p *Page) View() View {
	v := View{
		Page:       p.def.Name,
		Title:      p.def.Title,
		Values:     p.Values(),
		Dirty:      p.state.Dirty(),
		Submitting: p.state.Submitting(),
		Sections:   p.toggles.Sections(),
		Scroll:     p.scroll,
	}
	if p.def.Endpoint != "" {
		v.Button = p.submit.Button()
	}

	if fields := p.state.InvalidFields(); len(fields) > 0 {
		v.Invalid = make(map[string]string, len(fields))
		for _, f := range fields {
			v.Invalid[f], _ = p.state.Invalid(f)
		}
	}

	for _, f := range p.def.Fields {
		if p.revealed[f.Name] {
			v.Revealed = append(v.Revealed, f.Name)
		}
		if f.Counter > 0 {
			if v.Counters == nil {
				v.Counters = make(map[string]form.Counter)
			}
			v.Counters[f.Name] = form.Count(p.state.Get(f.Name), f.Counter)
		}
	}

	items := p.toasts.Items()
	v.Toasts = make([]ToastView, len(items))
	for i, it := range items {
		v.Toasts[i] = ToastView{
			ID:      it.ID(),
			Message: it.Message(),
			Kind:    it.Kind(),
			Phase:   it.Phase,
		}
	}

	if p.def.Availability != nil {
		v.Availability = p.availability().String()
	}
	if p.image != nil {
		if f := p.image.File(); f != nil {
			v.Image = &ImageView{
				ID:          f.ID,
				Filename:    f.Filename,
				ContentType: f.ContentType,
				Size:        f.Size,
			}
		}
	}
	if p.table != nil {
		v.Visible = p.table.Visible()
		v.Criteria = p.table.Criteria()
	}
	return v
}
