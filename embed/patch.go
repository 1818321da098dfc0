package embed

import (
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/timerange"
)

// PatchParams replaces each named parameter of existing in place, or
// appends it. Parameters not named keep their value and position. A URL
// that cannot be parsed is returned unchanged.
func (b *Builder) PatchParams(existing string, params ...Param) string {
	q, err := ParseQuery(existing)
	if err != nil {
		b.logger.Infof("warning: leave url unchanged, cannot parse %q: %v", existing, err)
		return existing
	}
	for _, p := range params {
		if p.Flag {
			q.SetFlag(p.Key)
			continue
		}
		q.Set(p.Key, p.Value)
	}
	return q.String()
}

// Patch points existing at a new counter. A reference that resolves to no
// id leaves existing unchanged.
func (b *Builder) Patch(existing, counterRef string, reg *meter.Registry) string {
	id := reg.Resolve(counterRef)
	if id == "" {
		b.logger.Infof("warning: leave url unchanged, counter reference %q has no id", counterRef)
		return existing
	}
	return b.PatchParams(existing, Param{Key: ParamVarID, Value: id})
}

// PatchTimeRange moves existing to a new window.
func (b *Builder) PatchTimeRange(existing string, rng timerange.Range) string {
	if rng.Empty() {
		return existing
	}
	return b.PatchParams(existing, Param{Key: ParamFrom, Value: rng.From}, Param{Key: ParamTo, Value: rng.To})
}

// PatchPanelID moves existing to another sub-panel of the same dashboard.
func (b *Builder) PatchPanelID(existing, panelID string) string {
	return b.PatchParams(existing, Param{Key: ParamPanelID, Value: panelID})
}
