// Package meter is the read-only view over an object's counter map and the
// resolver that turns symbolic counter references into physical IDs.
package meter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/model"
)

var canonicalKey = regexp.MustCompile(`^[A-Za-z]\d+$`)

// IsCanonicalKey reports whether k looks like Z20541.
func IsCanonicalKey(k string) bool {
	return canonicalKey.MatchString(k)
}

// Registry is immutable once built; build a new one when the object changes.
type Registry struct {
	objectID int64
	meter    model.MeterMap
	upper    map[string]string

	logger common.Logger
}

// NewRegistry indexes m for case-insensitive lookup. When two stored keys
// differ only in case the first one wins.
func NewRegistry(objectID int64, m model.MeterMap, logger common.Logger) *Registry {
	r := &Registry{
		objectID: objectID,
		meter:    m,
		upper:    make(map[string]string, m.Len()),
		logger:   common.OrNop(logger),
	}
	for _, k := range m.Keys() {
		u := strings.ToUpper(k)
		if _, dup := r.upper[u]; dup {
			continue
		}
		v, _ := m.Get(k)
		r.upper[u] = v
	}
	return r
}

// FromObject builds the registry of o.
func FromObject(o model.Object, logger common.Logger) *Registry {
	return NewRegistry(o.ObjectID, o.Meter, logger)
}

func (r *Registry) ObjectID() int64 {
	if r == nil {
		return 0
	}
	return r.objectID
}

// Lookup is case-insensitive on the key.
func (r *Registry) Lookup(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.upper[strings.ToUpper(key)]
	return v, ok
}

// Keys returns the stored keys in their original order and case.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	return r.meter.Keys()
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.meter.Len()
}

// Meter returns the underlying map.
func (r *Registry) Meter() model.MeterMap {
	if r == nil {
		return model.MeterMap{}
	}
	return r.meter
}

func (r *Registry) objectKey() string {
	return strconv.FormatInt(r.objectID, 10)
}
