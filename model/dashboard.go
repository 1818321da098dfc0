package model

// HistogramSize is the number of sub-charts a histogram row needs.
const HistogramSize = 3

// Counter is one selectable meter of a panel.
type Counter struct {
	ID      FlexString `json:"id"`
	IDLabel string     `json:"idlabel"`
}

// Panel maps to one or more embedded dashboard panels.
type Panel struct {
	ID              string       `json:"id"`
	OriginalID      string       `json:"originalId,omitempty"`
	Label           string       `json:"label"`
	PanelID         string       `json:"panelId"`
	PanelID2        string       `json:"panelId2,omitempty"`
	PanelID3        string       `json:"panelId3,omitempty"`
	PanelID3Height  string       `json:"panelId3height,omitempty"`
	Dashboard       string       `json:"dashboard,omitempty"`
	GrafanaBase     string       `json:"grafana,omitempty"`
	Interval        string       `json:"interval,omitempty"`
	Height          string       `json:"height,omitempty"`
	HistogramHeight string       `json:"histogramHeight,omitempty"`
	PanelIDWidth    string       `json:"panelIdWidth,omitempty"`
	Auswahl         []Counter    `json:"auswahl,omitempty"`
	Histogram       []FlexString `json:"histogram,omitempty"`
	NoAccordion     bool         `json:"noAccordion,omitempty"`
	Expanded        bool         `json:"expanded,omitempty"`
}

// HasHistogram reports whether the histogram toggle is available. It
// needs exactly HistogramSize ids.
func (p Panel) HasHistogram() bool {
	return len(p.Histogram) == HistogramSize
}

// HistogramIDs returns the left, middle and right histogram panel ids.
func (p Panel) HistogramIDs() ([HistogramSize]string, bool) {
	var ids [HistogramSize]string
	if !p.HasHistogram() {
		return ids, false
	}
	for i := range ids {
		ids[i] = p.Histogram[i].String()
	}
	return ids, true
}

// HasSelector reports whether more than one counter can be chosen.
func (p Panel) HasSelector() bool {
	return len(p.Auswahl) > 1
}

// HasCounter reports whether id is one of the panel's counters.
func (p Panel) HasCounter(id string) bool {
	for _, c := range p.Auswahl {
		if c.ID.String() == id {
			return true
		}
	}
	return false
}

// DefaultCounter is the counter reference a panel starts with: its own id,
// then the first selectable counter, then the object sentinel.
func (p Panel) DefaultCounter() string {
	if p.OriginalID != "" {
		return p.OriginalID
	}
	if len(p.Auswahl) > 0 && p.Auswahl[0].ID != "" {
		return p.Auswahl[0].ID.String()
	}
	return ObjectSentinel
}

// SubPanelIDs returns panelId, panelId2 and panelId3, skipping empty ones.
func (p Panel) SubPanelIDs() []string {
	ids := make([]string, 0, 3)
	for _, id := range []string{p.PanelID, p.PanelID2, p.PanelID3} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Tab groups panels. The first tab is active by default and the first
// panel of a tab is expanded by default.
type Tab struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Panels []Panel `json:"panels"`
}

// FindPanel returns the panel with the given id.
func FindPanel(tabs []Tab, panelID string) (Panel, bool) {
	for _, t := range tabs {
		for _, p := range t.Panels {
			if p.ID == panelID {
				return p, true
			}
		}
	}
	return Panel{}, false
}
