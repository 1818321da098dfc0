// Package planner derives the tab/panel structure of an object, either from
// its explicit report configuration or from its meter keys.
package planner

import (
	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
)

// Kind tags where a plan came from.
type Kind string

const (
	KindExplicit Kind = "explicit"
	KindDerived  Kind = "derived"
)

// Source is the tagged planning result. Explicit and derived tabs share
// the same shape but are produced by different paths.
type Source struct {
	Kind Kind        `json:"kind"`
	Tabs []model.Tab `json:"tabs"`
}

// Options tune planning for one request.
type Options struct {
	// Waechter ignores explicit configuration and always derives from meters.
	Waechter bool
	// Diagramme selects the defaultGrafana settings row instead of
	// defaultAuswertung as settings fallback.
	Diagramme bool
	// Settings are the grafana settings rows consulted when the object has
	// no report.
	Settings []model.Setting
	// GrafanaBase and Dashboard are stamped onto derived panels.
	GrafanaBase string
	Dashboard   string

	Logger common.Logger
}

// Select makes the single planning decision: explicit report, then the
// settings default, then meter derivation.
func Select(reg *meter.Registry, cfg model.ExplicitConfig, opts Options) Source {
	logger := common.OrNop(opts.Logger)
	if !opts.Waechter {
		if cfg.Valid() {
			return Source{Kind: KindExplicit, Tabs: translate(cfg, originReport)}
		}
		key := model.DefaultAuswertungKey
		if opts.Diagramme {
			key = model.DefaultGrafanaKey
		}
		if def, ok := model.DefaultConfigFromSettings(opts.Settings, key); ok {
			return Source{Kind: KindExplicit, Tabs: translate(def, originSettings)}
		}
	}

	tabs := derive(reg, opts)
	if len(tabs) == 0 {
		logger.Infof("object %d has no meter keys, nothing to plan", reg.ObjectID())
	}
	return Source{Kind: KindDerived, Tabs: tabs}
}

// Plan returns the ordered tabs for the registry and optional explicit
// configuration. An empty result is a valid "no data" plan.
func Plan(reg *meter.Registry, cfg model.ExplicitConfig, opts Options) []model.Tab {
	return Select(reg, cfg, opts).Tabs
}

// PlanObject plans o with its own meter map and report.
func PlanObject(o model.Object, opts Options) Source {
	return Select(meter.FromObject(o, opts.Logger), o.Report, opts)
}
