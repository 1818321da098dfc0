package planner

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
)

const (
	derivedInterval   = "&from=now-4d&to=now"
	derivedPanelWidth = "180px"
	derivedPanelID2   = "3"
	dummyPanelID      = "3"
)

var derivedHistogram = []model.FlexString{"4", "5", "7"}

// family is one installation type recognised by its key prefix. The
// prefixes do not overlap, so a key belongs to at most one family.
type family struct {
	tabID      string
	label      string
	panelLabel string
	panelID    string
	pattern    *regexp.Regexp
}

// families in tab order.
var families = []family{
	{tabID: "netz", label: "Netz", panelLabel: "Wärmezähler Netz", panelID: "16", pattern: regexp.MustCompile(`(?i)^Z2054([1-3])$`)},
	{tabID: "kessel", label: "Kessel", panelLabel: "Wärmezähler Kessel", panelID: "19", pattern: regexp.MustCompile(`(?i)^Z2014([1-3])$`)},
	{tabID: "waermepumpe", label: "Wärmepumpe", panelLabel: "Wärmezähler Wärmepumpe", panelID: "19", pattern: regexp.MustCompile(`(?i)^Z2024([1-3])$`)},
}

type member struct {
	key    string
	number string
}

func (f family) match(keys []string) []member {
	var out []member
	for _, k := range keys {
		if sub := f.pattern.FindStringSubmatch(k); sub != nil {
			out = append(out, member{key: k, number: sub[1]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToUpper(out[i].key) < strings.ToUpper(out[j].key)
	})
	return out
}

// counters names a lone member after the family and numbers the rest.
func (f family) counters(members []member) []model.Counter {
	out := make([]model.Counter, 0, len(members))
	for _, m := range members {
		label := f.label
		if len(members) > 1 {
			label += m.number
		}
		out = append(out, model.Counter{ID: model.FlexString(m.key), IDLabel: label})
	}
	return out
}

func (f family) tab(members []member, opts Options) model.Tab {
	return model.Tab{
		ID:    f.tabID,
		Label: f.label,
		Panels: []model.Panel{{
			ID:           f.tabID + "-panel",
			Label:        f.panelLabel,
			PanelID:      f.panelID,
			PanelID2:     derivedPanelID2,
			Dashboard:    opts.Dashboard,
			GrafanaBase:  opts.GrafanaBase,
			Interval:     derivedInterval,
			PanelIDWidth: derivedPanelWidth,
			Auswahl:      f.counters(members),
			Histogram:    append([]model.FlexString(nil), derivedHistogram...),
			Expanded:     true,
		}},
	}
}

// derive groups the registry keys into family tabs. Without any match the
// first key becomes a single dummy tab; an empty registry yields no tabs.
func derive(reg *meter.Registry, opts Options) []model.Tab {
	keys := reg.Keys()
	tabs := make([]model.Tab, 0, len(families))
	for _, f := range families {
		if members := f.match(keys); len(members) > 0 {
			tabs = append(tabs, f.tab(members, opts))
		}
	}
	if len(tabs) > 0 || len(keys) == 0 {
		return tabs
	}

	first := keys[0]
	return append(tabs, model.Tab{
		ID:    "dummy",
		Label: "Dummy",
		Panels: []model.Panel{{
			ID:           "dummy-panel",
			OriginalID:   first,
			Label:        "Dummy-Zähler (" + first + ")",
			PanelID:      dummyPanelID,
			Dashboard:    opts.Dashboard,
			GrafanaBase:  opts.GrafanaBase,
			Interval:     derivedInterval,
			PanelIDWidth: derivedPanelWidth,
			Auswahl:      []model.Counter{{ID: model.FlexString(first), IDLabel: first}},
			Expanded:     true,
		}},
	})
}
