package meter

import (
	"github.com/lodastack/meterboard/model"
)

// Resolve turns a counter reference into a physical counter ID.
//
// The object sentinel resolves to the object id. References starting with
// Z or z are looked up in the meter map; a miss returns ref unchanged. Any
// other reference is already a literal ID. Resolve never fails.
func (r *Registry) Resolve(ref string) string {
	if ref == "" {
		return ref
	}
	if ref == model.ObjectSentinel {
		if r == nil || r.objectID == 0 {
			return ref
		}
		return r.objectKey()
	}
	if ref[0] != 'Z' && ref[0] != 'z' {
		return ref
	}
	if id, ok := r.Lookup(ref); ok && id != "" {
		return id
	}
	if r != nil {
		r.logger.Infof("warning: counter reference %s not found in meter of object %d", ref, r.objectID)
	}
	return ref
}

// Resolve is the function form of Registry.Resolve.
func Resolve(ref string, r *Registry) string {
	return r.Resolve(ref)
}
