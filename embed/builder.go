// Package embed builds and patches the solo-panel dashboard URLs that the
// page embeds as iframes.
package embed

import (
	"strings"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/timerange"
)

const (
	DefaultGrafanaBase = "https://graf.heatcare.one"
	DefaultDashboard   = "d-solo/eelav0ybil2wwd/ws-heatcare"

	ParamOrgID   = "orgId"
	ParamFrom    = "from"
	ParamTo      = "to"
	ParamPanelID = "panelId"
	ParamVarID   = "var-id"
	ParamRefresh = "refresh"
	ParamKiosk   = "kiosk"
	FlagSolo     = "__feature.dashboardSceneSolo"

	orgID        = "1"
	refreshEvery = "1m"
)

// Options configure a Builder.
type Options struct {
	// GrafanaBase and Dashboard apply to panels that carry none.
	GrafanaBase string
	Dashboard   string
	Refresh     bool
	Kiosk       bool

	Logger common.Logger
}

// Builder composes panel URLs. It holds no per-object state; the meter
// registry is passed on every call.
type Builder struct {
	opts   Options
	logger common.Logger
}

func NewBuilder(opts Options) *Builder {
	if opts.GrafanaBase == "" {
		opts.GrafanaBase = DefaultGrafanaBase
	}
	if opts.Dashboard == "" {
		opts.Dashboard = DefaultDashboard
	}
	return &Builder{opts: opts, logger: common.OrNop(opts.Logger)}
}

// WithDefaults returns a builder whose fallback base/dashboard are
// replaced by the non-empty arguments.
func (b *Builder) WithDefaults(base, dashboard string) *Builder {
	opts := b.opts
	if base != "" {
		opts.GrafanaBase = base
	}
	if dashboard != "" {
		opts.Dashboard = dashboard
	}
	return &Builder{opts: opts, logger: b.logger}
}

func (b *Builder) target(p model.Panel) string {
	base, dashboard := p.GrafanaBase, p.Dashboard
	if base == "" {
		base = b.opts.GrafanaBase
	}
	if dashboard == "" {
		dashboard = b.opts.Dashboard
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(dashboard, "/")
}

// window picks the selected range, else the panel's own interval.
func window(p model.Panel, rng timerange.Range) timerange.Range {
	if !rng.Empty() {
		return rng
	}
	if r, ok := timerange.ParseInterval(p.Interval); ok {
		return r
	}
	return timerange.Range{}
}

// Build composes the URL of one sub-panel of p:
//
//	{base}/{dashboard}?orgId=1[&from=..&to=..]&panelId=N&var-id=ID&__feature.dashboardSceneSolo[&refresh=1m][&kiosk=1]
//
// An empty resolved counter omits var-id.
func (b *Builder) Build(p model.Panel, panelID, counterRef string, rng timerange.Range, reg *meter.Registry) string {
	q := NewQuery(b.target(p))
	q.Set(ParamOrgID, orgID)
	if w := window(p, rng); !w.Empty() {
		q.Set(ParamFrom, w.From)
		q.Set(ParamTo, w.To)
	}
	q.Set(ParamPanelID, panelID)
	if id := reg.Resolve(counterRef); id != "" {
		q.Set(ParamVarID, id)
	}
	q.SetFlag(FlagSolo)
	if b.opts.Refresh {
		q.Set(ParamRefresh, refreshEvery)
	}
	if b.opts.Kiosk {
		q.Set(ParamKiosk, "1")
	}
	return q.String()
}

// PanelURLs are all iframe sources of one panel.
type PanelURLs struct {
	Main      string   `json:"main"`
	Second    string   `json:"second,omitempty"`
	Third     string   `json:"third,omitempty"`
	Histogram []string `json:"histogram,omitempty"`
}

// Panel builds one URL per sub-panel id with the same counter and range.
// Histogram URLs are built only when asked for and the panel has exactly
// enough histogram ids; otherwise the histogram is treated as absent.
func (b *Builder) Panel(p model.Panel, counterRef string, rng timerange.Range, reg *meter.Registry, histogram bool) PanelURLs {
	out := PanelURLs{Main: b.Build(p, p.PanelID, counterRef, rng, reg)}
	if p.PanelID2 != "" {
		out.Second = b.Build(p, p.PanelID2, counterRef, rng, reg)
	}
	if p.PanelID3 != "" {
		out.Third = b.Build(p, p.PanelID3, counterRef, rng, reg)
	}
	if ids, ok := p.HistogramIDs(); ok && histogram {
		out.Histogram = make([]string, 0, len(ids))
		for _, id := range ids {
			out.Histogram = append(out.Histogram, b.Build(p, id, counterRef, rng, reg))
		}
	}
	return out
}
