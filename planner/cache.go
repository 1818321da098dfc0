package planner

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/lodastack/meterboard/model"
)

// Cache keeps the plan of each object until its inputs change. Callers
// always receive a copy.
type Cache struct {
	mu    sync.RWMutex
	plans map[string]cachedPlan
}

type cachedPlan struct {
	fingerprint string
	source      Source
}

func NewCache() *Cache {
	return &Cache{plans: make(map[string]cachedPlan)}
}

func cacheKey(o model.Object, opts Options) string {
	return o.Key() + "|" + strconv.FormatBool(opts.Waechter) + "|" + strconv.FormatBool(opts.Diagramme)
}

// fingerprint covers every input the plan is a function of.
func fingerprint(o model.Object, opts Options) string {
	b, err := json.Marshal(struct {
		Object      model.Object    `json:"o"`
		Settings    []model.Setting `json:"s"`
		GrafanaBase string          `json:"g"`
		Dashboard   string          `json:"d"`
	}{o, opts.Settings, opts.GrafanaBase, opts.Dashboard})
	if err != nil {
		return ""
	}
	return string(b)
}

// Plan returns the cached plan of o, planning it on a miss or when the
// object's inputs changed.
func (c *Cache) Plan(o model.Object, opts Options) Source {
	key, fp := cacheKey(o, opts), fingerprint(o, opts)

	c.mu.RLock()
	cached, exist := c.plans[key]
	c.mu.RUnlock()
	if exist && fp != "" && cached.fingerprint == fp {
		return copySource(cached.source)
	}

	src := PlanObject(o, opts)
	if fp != "" {
		c.mu.Lock()
		c.plans[key] = cachedPlan{fingerprint: fp, source: copySource(src)}
		c.mu.Unlock()
	}
	return src
}

// Invalidate drops every plan of the object.
func (c *Cache) Invalidate(objectID int64) {
	prefix := strconv.FormatInt(objectID, 10) + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.plans {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.plans, k)
		}
	}
}

// Len is the number of cached plans.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}

func copySource(s Source) Source {
	return Source{Kind: s.Kind, Tabs: CopyTabs(s.Tabs)}
}

// CopyTabs deep-copies tabs so callers may modify the result.
func CopyTabs(tabs []model.Tab) []model.Tab {
	if tabs == nil {
		return nil
	}
	out := make([]model.Tab, len(tabs))
	for i, t := range tabs {
		out[i] = t
		out[i].Panels = make([]model.Panel, len(t.Panels))
		for j, p := range t.Panels {
			p.Auswahl = append([]model.Counter(nil), p.Auswahl...)
			p.Histogram = append([]model.FlexString(nil), p.Histogram...)
			out[i].Panels[j] = p
		}
	}
	return out
}
