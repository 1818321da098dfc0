package embed

import (
	"errors"
	"net/url"
	"strings"
)

var (
	errEmptyURL  = errors.New("empty url")
	errNoQuery   = errors.New("url has no query part")
	errEmptyBase = errors.New("url has no base before the query")
)

// Param is one &-separated query segment. Flag segments have no '='.
// Keys and values are kept exactly as written; nothing is re-encoded.
type Param struct {
	Key   string
	Value string
	Flag  bool
}

func (p Param) String() string {
	if p.Flag {
		return p.Key
	}
	return p.Key + "=" + p.Value
}

// Query is an ordered view of a URL's query string that can update single
// parameters without touching the others.
type Query struct {
	base     string
	params   []Param
	fragment string
	hasFrag  bool
}

// NewQuery starts an empty query on base.
func NewQuery(base string) *Query {
	return &Query{base: base}
}

// ParseQuery splits raw into base, ordered parameters and fragment.
func ParseQuery(raw string) (*Query, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errEmptyURL
	}
	if _, err := url.Parse(raw); err != nil {
		return nil, err
	}
	base, rest, ok := strings.Cut(raw, "?")
	if !ok {
		return nil, errNoQuery
	}
	if base == "" || strings.Contains(base, "#") {
		return nil, errEmptyBase
	}
	q := &Query{base: base}
	rest, q.fragment, q.hasFrag = strings.Cut(rest, "#")
	if rest == "" {
		return q, nil
	}
	for _, seg := range strings.Split(rest, "&") {
		k, v, hasValue := strings.Cut(seg, "=")
		q.params = append(q.params, Param{Key: k, Value: v, Flag: !hasValue})
	}
	return q, nil
}

func (q *Query) index(key string) int {
	for i, p := range q.params {
		if p.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value of the first parameter named key.
func (q *Query) Get(key string) (string, bool) {
	if i := q.index(key); i >= 0 {
		return q.params[i].Value, true
	}
	return "", false
}

// Set replaces the first parameter named key in place, or appends it.
func (q *Query) Set(key, value string) {
	if i := q.index(key); i >= 0 {
		q.params[i] = Param{Key: key, Value: value}
		return
	}
	q.params = append(q.params, Param{Key: key, Value: value})
}

// SetFlag appends a value-less parameter unless it is already present.
func (q *Query) SetFlag(key string) {
	if q.index(key) >= 0 {
		return
	}
	q.params = append(q.params, Param{Key: key, Flag: true})
}

// Params returns a copy of the parameters in order.
func (q *Query) Params() []Param {
	return append([]Param(nil), q.params...)
}

func (q *Query) Base() string { return q.base }

func (q *Query) String() string {
	var sb strings.Builder
	sb.WriteString(q.base)
	sb.WriteByte('?')
	for i, p := range q.params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p.String())
	}
	if q.hasFrag {
		sb.WriteByte('#')
		sb.WriteString(q.fragment)
	}
	return sb.String()
}
