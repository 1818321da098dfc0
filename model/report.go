package model

import (
	"bytes"
	"encoding/json"
)

// Site is one panel definition inside an explicit report item.
type Site struct {
	ID              FlexString   `json:"id,omitempty"`
	Label           string       `json:"label,omitempty"`
	PanelID         FlexString   `json:"panelId,omitempty"`
	PanelID2        FlexString   `json:"panelId2,omitempty"`
	PanelID3        FlexString   `json:"panelId3,omitempty"`
	PanelID3Height  string       `json:"panelId3height,omitempty"`
	Dashboard       string       `json:"dashboard,omitempty"`
	Grafana         string       `json:"grafana,omitempty"`
	Interval        string       `json:"interval,omitempty"`
	Height          string       `json:"height,omitempty"`
	HistogramHeight string       `json:"histogramHeight,omitempty"`
	PanelIDWidth    string       `json:"panelIdWidth,omitempty"`
	Auswahl         []Counter    `json:"auswahl,omitempty"`
	Histogram       []FlexString `json:"histogram,omitempty"`
	Panel           string       `json:"panel,omitempty"`
}

// Sites is the site field of a report item: either one object (Single)
// or an accordion list.
type Sites struct {
	Single bool
	List   []Site
}

func (s *Sites) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*s = Sites{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(b, &raws); err != nil {
			return err
		}
		for _, r := range raws {
			var site Site
			if err := json.Unmarshal(r, &site); err != nil {
				continue
			}
			s.List = append(s.List, site)
		}
	case '{':
		var site Site
		if err := json.Unmarshal(b, &site); err != nil {
			return err
		}
		s.Single = true
		s.List = []Site{site}
	}
	return nil
}

func (s Sites) MarshalJSON() ([]byte, error) {
	if s.Single && len(s.List) == 1 {
		return json.Marshal(s.List[0])
	}
	if s.List == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.List)
}

// Present reports whether the item carried a site at all.
func (s Sites) Present() bool {
	return len(s.List) > 0
}

// ReportItem is one pre-authored tab.
type ReportItem struct {
	SiteLabel string `json:"sitelabel,omitempty"`
	Dashboard string `json:"dashboard,omitempty"`
	Grafana   string `json:"grafana,omitempty"`
	Interval  string `json:"interval,omitempty"`
	Site      Sites  `json:"site"`

	empty bool
}

// MarshalJSON writes an item that decoded from {} back as {}, so it stays
// empty after a store round-trip.
func (i ReportItem) MarshalJSON() ([]byte, error) {
	if i.empty {
		return []byte("{}"), nil
	}
	type plain ReportItem
	return json.Marshal(plain(i))
}

// ExplicitConfig is the per-object report. It decodes from a single item
// or an array of items; anything else decodes as empty.
type ExplicitConfig []ReportItem

func (c *ExplicitConfig) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*c = nil
	if len(b) == 0 {
		return nil
	}
	var raws []json.RawMessage
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &raws); err != nil {
			return err
		}
	case '{':
		raws = []json.RawMessage{b}
	default:
		return nil
	}
	for _, r := range raws {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(r, &fields); err != nil {
			continue
		}
		var item ReportItem
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		item.empty = len(fields) == 0
		*c = append(*c, item)
	}
	return nil
}

// Valid reports whether at least one item is a non-empty object.
func (c ExplicitConfig) Valid() bool {
	for _, item := range c {
		if !item.empty {
			return true
		}
	}
	return false
}
