package model

import (
	"bytes"
	"encoding/json"
)

const (
	GrafanaCategory = "grafana"

	DefaultGrafanaKey    = "defaultGrafana"
	DefaultAuswertungKey = "defaultAuswertung"
)

// Setting is one row of the settings table.
type Setting struct {
	Category string          `json:"category"`
	KeyName  string          `json:"key_name"`
	Value    json.RawMessage `json:"value"`
}

func (s *Setting) UnmarshalJSON(b []byte) error {
	var aux struct {
		Category string          `json:"category"`
		KeyName  string          `json:"key_name"`
		KeyName2 string          `json:"keyName"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Category, s.KeyName, s.Value = aux.Category, aux.KeyName, aux.Value
	if s.KeyName == "" {
		s.KeyName = aux.KeyName2
	}
	return nil
}

// Key is the store key of the setting.
func (s Setting) Key() string {
	return s.Category + "/" + s.KeyName
}

// Decode unmarshals the value into v. Values stored as a JSON string
// holding JSON are unwrapped first.
func (s Setting) Decode(v interface{}) error {
	raw := bytes.TrimSpace(s.Value)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		raw = []byte(inner)
	}
	return json.Unmarshal(raw, v)
}

// FindSetting returns the first setting matching category and key.
func FindSetting(settings []Setting, category, key string) (Setting, bool) {
	for _, s := range settings {
		if s.Category == category && s.KeyName == key {
			return s, true
		}
	}
	return Setting{}, false
}

// GrafanaSetup is the setupGrafana block of the defaultGrafana setting.
type GrafanaSetup struct {
	BaseURL          string `json:"baseUrl"`
	DefaultDashboard string `json:"defaultDashboard"`
	DefaultTimeRange string `json:"defaultTimeRange"`
}

// SetupFromSettings extracts the Grafana base/dashboard override.
func SetupFromSettings(settings []Setting) (GrafanaSetup, bool) {
	s, ok := FindSetting(settings, GrafanaCategory, DefaultGrafanaKey)
	if !ok {
		return GrafanaSetup{}, false
	}
	var v struct {
		SetupGrafana *GrafanaSetup `json:"setupGrafana"`
	}
	if err := s.Decode(&v); err != nil || v.SetupGrafana == nil {
		return GrafanaSetup{}, false
	}
	return *v.SetupGrafana, true
}

// DefaultConfigFromSettings returns the report-shaped default stored under
// key, if the value is an array of report items.
func DefaultConfigFromSettings(settings []Setting, key string) (ExplicitConfig, bool) {
	s, ok := FindSetting(settings, GrafanaCategory, key)
	if !ok {
		return nil, false
	}
	raw := bytes.TrimSpace(s.Value)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var cfg ExplicitConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false
	}
	return cfg, true
}
