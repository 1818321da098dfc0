// Package timerange holds the selectable time windows and expands them to
// the from/to expressions of the dashboard URL.
package timerange

import (
	"strconv"
	"strings"
	"time"
)

const (
	Now = "now"

	// DefaultValue is selected when nothing else is.
	DefaultValue = "7d"
)

// Entry is one selectable window. Relative entries only carry Value;
// calendar-anchored entries carry both From and To.
type Entry struct {
	Value string `json:"value"`
	Label string `json:"label"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// Calendar reports whether the entry is calendar-anchored.
func (e Entry) Calendar() bool {
	return e.From != "" && e.To != ""
}

// Range is an expanded window.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Empty reports whether no window is set.
func (r Range) Empty() bool {
	return r.From == "" && r.To == ""
}

// Resolve expands the entry. Calendar entries are used verbatim; relative
// entries use Value as the now-X suffix and to=now.
func (e Entry) Resolve() Range {
	if e.Calendar() {
		return Range{From: e.From, To: e.To}
	}
	to := e.To
	if to == "" {
		to = Now
	}
	return Range{From: relative(e.Value), To: to}
}

func relative(v string) string {
	if strings.HasPrefix(v, Now) {
		return v
	}
	return Now + "-" + v
}

// Catalog is a static table of entries looked up by Value.
type Catalog []Entry

var relativeEntries = Catalog{
	{Value: "24h", Label: "letzte 24h"},
	{Value: "3d", Label: "letzte 3 Tage"},
	{Value: "7d", Label: "letzte 7 Tage"},
	{Value: "14d", Label: "letzte 14 Tage"},
	{Value: "30d", Label: "30 Tage"},
	{Value: "90d", Label: "3 Monate"},
	{Value: "1M", Label: "letzter Monat"},
	{Value: "6M", Label: "letzte 6 Monate"},
	{Value: "12M", Label: "letzte 365 Tage"},
	{Value: "1y", Label: "12 Monate"},
	{Value: "1y/y", Label: "letztes Jahr", From: "now-1y/y", To: "now-1y/y"},
	{Value: "2y/y", Label: "vorletztes Jahr", From: "now-2y/y", To: "now-2y/y"},
}

// Default returns the catalog anchored at now: the fixed entries plus the
// two most recently completed calendar years by number.
func Default(now time.Time) Catalog {
	c := make(Catalog, len(relativeEntries), len(relativeEntries)+2)
	copy(c, relativeEntries)
	for back := 1; back <= 2; back++ {
		year := strconv.Itoa(now.Year() - back)
		anchor := "now-" + strconv.Itoa(back) + "y/y"
		c = append(c, Entry{Value: year, Label: year, From: anchor, To: anchor})
	}
	return c
}

// Lookup finds the entry with the given value.
func (c Catalog) Lookup(value string) (Entry, bool) {
	for _, e := range c {
		if e.Value == value {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve expands value. An unknown value is used as the raw from
// expression with to=now; an empty value selects DefaultValue.
func (c Catalog) Resolve(value string) Range {
	if value == "" {
		value = DefaultValue
	}
	if e, ok := c.Lookup(value); ok {
		return e.Resolve()
	}
	return Range{From: value, To: Now}
}

// ParseInterval reads a panel interval such as "&from=now-4d&to=now".
// A missing to defaults to now.
func ParseInterval(interval string) (Range, bool) {
	var r Range
	for _, seg := range strings.Split(interval, "&") {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		switch k {
		case "from":
			r.From = v
		case "to":
			r.To = v
		}
	}
	if r.From == "" {
		return Range{}, false
	}
	if r.To == "" {
		r.To = Now
	}
	return r, true
}
