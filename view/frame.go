package view

import (
	"github.com/lodastack/meterboard/embed"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/timerange"
)

// Frame is the rendered output of a session: the tab bar and the panels
// of the active tab with their iframe URLs.
type Frame struct {
	ObjectID  int64           `json:"objectid"`
	State     string          `json:"state"`
	ActiveTab int             `json:"activeTab"`
	TimeRange string          `json:"timerange"`
	Range     timerange.Range `json:"range"`
	Tabs      []TabHeader     `json:"tabs"`
	Panels    []PanelFrame    `json:"panels"`
}

// TabHeader is one entry of the tab bar.
type TabHeader struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type PanelFrame struct {
	ID              string          `json:"id"`
	Label           string          `json:"label"`
	Expanded        bool            `json:"expanded"`
	NoAccordion     bool            `json:"noAccordion,omitempty"`
	Height          string          `json:"height,omitempty"`
	HistogramHeight string          `json:"histogramHeight,omitempty"`
	PanelIDWidth    string          `json:"panelIdWidth,omitempty"`
	PanelID3Height  string          `json:"panelId3height,omitempty"`
	Selector        bool            `json:"selector"`
	Counters        []model.Counter `json:"counters,omitempty"`
	Counter         string          `json:"counter"`
	CounterID       string          `json:"counterId"`
	Histogram       bool            `json:"histogram"`
	HistogramShown  bool            `json:"histogramShown"`
	URLs            embed.PanelURLs `json:"urls"`
}

// window resolves the selected range. An empty selection leaves each panel
// on its own interval.
func (s *Session) window() timerange.Range {
	if s.timeRange == "" {
		return timerange.Range{}
	}
	return s.cfg.Catalog.Resolve(s.timeRange)
}

// frame renders the current state. Callers hold mu.
func (s *Session) frame() Frame {
	f := Frame{
		ObjectID:  s.reg.ObjectID(),
		State:     s.state.String(),
		ActiveTab: s.active,
		TimeRange: s.timeRange,
		Range:     s.window(),
		Tabs:      make([]TabHeader, 0, len(s.tabs)),
		Panels:    []PanelFrame{},
	}
	for i, t := range s.tabs {
		f.Tabs = append(f.Tabs, TabHeader{ID: t.ID, Label: t.Label, Active: i == s.active})
	}
	if s.active >= len(s.tabs) {
		return f
	}
	for _, p := range s.tabs[s.active].Panels {
		f.Panels = append(f.Panels, s.renderPanel(p, f.Range))
	}
	return f
}

func (s *Session) renderPanel(p model.Panel, rng timerange.Range) PanelFrame {
	return RenderPanel(s.cfg.Builder, s.reg, p, s.selected[p.ID], rng, s.histogram[p.ID])
}

// RenderPanel renders one panel with counter ref, falling back to the
// panel's default counter. Histogram URLs are built only when histogram is
// set and the panel has a usable histogram.
func RenderPanel(b *embed.Builder, reg *meter.Registry, p model.Panel, ref string, rng timerange.Range, histogram bool) PanelFrame {
	if ref == "" {
		ref = p.DefaultCounter()
	}
	shown := histogram && p.HasHistogram()
	return PanelFrame{
		ID:              p.ID,
		Label:           p.Label,
		Expanded:        p.Expanded,
		NoAccordion:     p.NoAccordion,
		Height:          p.Height,
		HistogramHeight: p.HistogramHeight,
		PanelIDWidth:    p.PanelIDWidth,
		PanelID3Height:  p.PanelID3Height,
		Selector:        p.HasSelector(),
		Counters:        p.Auswahl,
		Counter:         ref,
		CounterID:       reg.Resolve(ref),
		Histogram:       p.HasHistogram(),
		HistogramShown:  shown,
		URLs:            b.Panel(p, ref, rng, reg, shown),
	}
}
