package engine

import (
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

// View parameter changes never touch the adapter. They work in every state.

func (e *Engine) SetFilter(filter view.Filter) {
	e.updateParams(func(p *view.Params) { p.Filter = filter })
}

func (e *Engine) SetSort(key view.SortKey) {
	e.updateParams(func(p *view.Params) { p.Sort = key })
}

func (e *Engine) SetSearch(query string) {
	e.updateParams(func(p *view.Params) { p.Search = query })
}

// SetCategory restricts to one category id; an empty id clears it.
func (e *Engine) SetCategory(id string) {
	e.updateParams(func(p *view.Params) { p.CategoryID = id })
}

func (e *Engine) SetTags(tags []string) {
	e.updateParams(func(p *view.Params) { p.Tags = model.NormalizeTags(tags) })
}

// ToggleTag adds tag to the tag filter, or removes it if already present.
func (e *Engine) ToggleTag(tag string) {
	e.updateParams(func(p *view.Params) {
		next := make([]string, 0, len(p.Tags)+1)
		removed := false
		for _, existing := range p.Tags {
			if existing == tag {
				removed = true
				continue
			}
			next = append(next, existing)
		}
		if !removed {
			next = append(next, tag)
		}
		p.Tags = model.NormalizeTags(next)
	})
}

// ClearFilters resets filter, search, category and tags but keeps the sort.
func (e *Engine) ClearFilters() {
	e.updateParams(func(p *view.Params) {
		p.Filter = view.FilterAll
		p.Search = ""
		p.CategoryID = ""
		p.Tags = []string{}
	})
}

// SetParams replaces every view parameter except the collation locale.
func (e *Engine) SetParams(params view.Params) {
	e.updateParams(func(p *view.Params) {
		locale := p.Locale
		*p = params
		p.Locale = locale
		p.Tags = model.NormalizeTags(params.Tags)
		if p.Filter == "" {
			p.Filter = view.FilterAll
		}
		if p.Sort == "" {
			p.Sort = view.SortDate
		}
	})
}

func (e *Engine) updateParams(fn func(*view.Params)) {
	e.mu.Lock()
	fn(&e.params)
	e.rederive()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	e.publish(snapshot)
}
