package box

import (
	"fmt"
	"reflect"
	"sort"
)

// Object is the generic property bag backing every resource shape. Fields the
// schema knows about live in the known map; anything else a producer sent is
// preserved opaquely in the extras map so unknown fields survive a round-trip.
//
// A field is either present-with-null or absent. Contains reports presence in
// either map, even when the stored value is nil, so callers can tell "server
// returned null" apart from "field omitted".
type Object struct {
	known  map[string]any
	extras map[string]any
}

// NewObject returns an empty property container.
func NewObject() *Object {
	return &Object{
		known:  make(map[string]any),
		extras: make(map[string]any),
	}
}

// NewObjectFromMap builds a container from a field map. Values are deep
// copied; a value that cannot be copied (for example a resource whose type is
// not registered) is a construction error, never silently dropped.
func NewObjectFromMap(fields map[string]any) (*Object, error) {
	o := NewObject()
	for k, v := range fields {
		cv, err := cloneValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		o.known[k] = cv
	}
	return o, nil
}

// Put sets a known field. A nil value records the field as present-with-null.
func (o *Object) Put(key string, value any) {
	o.known[key] = value
}

// PutAll sets every entry of fields as a known field.
func (o *Object) PutAll(fields map[string]any) {
	for k, v := range fields {
		o.known[k] = v
	}
}

// Get returns the value of a known field, or nil when the field is absent.
// Use Contains to distinguish an absent field from a present null.
func (o *Object) Get(key string) any {
	return o.known[key]
}

// GetString returns the value of a known field as a string, or "" when the
// field is absent, null, or not a string.
func (o *Object) GetString(key string) string {
	s, _ := o.known[key].(string)
	return s
}

// Contains reports whether the field is present at all, in either the known
// or the extras map, even when its value is null.
func (o *Object) Contains(key string) bool {
	if _, ok := o.known[key]; ok {
		return true
	}
	_, ok := o.extras[key]
	return ok
}

// Keys returns the known field names in sorted order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.known))
	for k := range o.known {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extra returns the value of a preserved unknown field.
func (o *Object) Extra(key string) any {
	return o.extras[key]
}

// SetExtra preserves a field that no variant schema recognizes.
func (o *Object) SetExtra(key string, value any) {
	o.extras[key] = value
}

// ExtraKeys returns the preserved unknown field names in sorted order.
func (o *Object) ExtraKeys() []string {
	keys := make([]string, 0, len(o.extras))
	for k := range o.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports structural equality over both the known and extras maps.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	return reflect.DeepEqual(o.known, other.known) &&
		reflect.DeepEqual(o.extras, other.extras)
}

// Clone returns a deep copy of the container. Nested resources and lists of
// resources are reconstructed, never aliased, so mutating the copy cannot
// affect the original.
func (o *Object) Clone() (*Object, error) {
	out := NewObject()
	for k, v := range o.known {
		cv, err := cloneValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out.known[k] = cv
	}
	for k, v := range o.extras {
		cv, err := cloneValue(v)
		if err != nil {
			return nil, fmt.Errorf("extra field %q: %w", k, err)
		}
		out.extras[k] = cv
	}
	return out, nil
}

// cloneValue deep-copies a container value. Resources are cloned through the
// constructor registered for their type, keeping the copy the same concrete
// variant as the source.
func cloneValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Resource:
		return CloneResource(val)
	case []any:
		list := make([]any, len(val))
		for i, item := range val {
			cv, err := cloneValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = cv
		}
		return list, nil
	case []string:
		list := make([]string, len(val))
		copy(list, val)
		return list, nil
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			cv, err := cloneValue(item)
			if err != nil {
				return nil, err
			}
			m[k] = cv
		}
		return m, nil
	default:
		// Scalars (string, bool, numbers) are immutable.
		return v, nil
	}
}
