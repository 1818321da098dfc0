package planner

import (
	"fmt"

	"github.com/lodastack/meterboard/model"
)

const (
	defaultPanelID         = "16"
	defaultSingleHeight    = "550px"
	defaultHistogramHeight = "250px"
	defaultSettingsLabel   = "Standard Auswertung"
)

// origin names the tab/panel id prefix of an explicit config.
type origin string

const (
	originReport   origin = "report"
	originSettings origin = "default-auswertung"
)

// translate maps report items 1:1 onto tabs. Items without a site are
// skipped but keep their index.
func translate(cfg model.ExplicitConfig, o origin) []model.Tab {
	tabs := make([]model.Tab, 0, len(cfg))
	for i, item := range cfg {
		if !item.Site.Present() {
			continue
		}
		tab := model.Tab{
			ID:    fmt.Sprintf("%s-tab-%d", o, i),
			Label: item.SiteLabel,
		}
		if tab.Label == "" {
			if o == originSettings {
				tab.Label = defaultSettingsLabel
			} else {
				tab.Label = fmt.Sprintf("Tab %d", i+1)
			}
		}
		if item.Site.Single || o == originSettings {
			tab.Panels = []model.Panel{singlePanel(item, item.Site.List[0], i, o)}
		} else {
			for j, site := range item.Site.List {
				tab.Panels = append(tab.Panels, accordionPanel(item, site, i, j, o))
			}
		}
		tabs = append(tabs, tab)
	}
	return tabs
}

func basePanel(item model.ReportItem, site model.Site, i, j int, o origin) model.Panel {
	p := model.Panel{
		ID:              fmt.Sprintf("%s-panel-%d-%d", panelPrefix(o), i, j),
		OriginalID:      site.ID.String(),
		PanelID:         site.PanelID.String(),
		PanelID2:        site.PanelID2.String(),
		PanelID3:        site.PanelID3.String(),
		PanelID3Height:  site.PanelID3Height,
		Dashboard:       site.Dashboard,
		GrafanaBase:     site.Grafana,
		Interval:        site.Interval,
		Height:          site.Height,
		HistogramHeight: site.HistogramHeight,
		PanelIDWidth:    site.PanelIDWidth,
		Auswahl:         append([]model.Counter(nil), site.Auswahl...),
		Histogram:       append([]model.FlexString(nil), site.Histogram...),
		Expanded:        j == 0 || site.Panel == "show",
	}
	if p.PanelID == "" {
		p.PanelID = defaultPanelID
	}
	if p.HistogramHeight == "" {
		p.HistogramHeight = defaultHistogramHeight
	}
	if p.Interval == "" {
		p.Interval = item.Interval
	}
	return p
}

// singlePanel renders a site object: no accordion, no label, and the
// item's dashboard/grafana take precedence.
func singlePanel(item model.ReportItem, site model.Site, i int, o origin) model.Panel {
	p := basePanel(item, site, i, 0, o)
	p.NoAccordion = true
	if p.Height == "" {
		p.Height = defaultSingleHeight
	}
	if item.Dashboard != "" {
		p.Dashboard = item.Dashboard
	}
	if item.Grafana != "" {
		p.GrafanaBase = item.Grafana
	}
	return p
}

// accordionPanel renders one entry of a site array; the site's own
// dashboard/grafana take precedence over the item's.
func accordionPanel(item model.ReportItem, site model.Site, i, j int, o origin) model.Panel {
	p := basePanel(item, site, i, j, o)
	p.Label = site.Label
	if p.Label == "" {
		p.Label = fmt.Sprintf("Panel %d", j+1)
	}
	if p.Dashboard == "" {
		p.Dashboard = item.Dashboard
	}
	if p.GrafanaBase == "" {
		p.GrafanaBase = item.Grafana
	}
	return p
}

func panelPrefix(o origin) string {
	if o == originSettings {
		return "default"
	}
	return string(o)
}
