package dap

import orderedmap "github.com/wk8/go-ordered-map/v2"

// Object is the DAP "object" value: a mapping from string keys to Any
// values. It is backed by an order-preserving, delete-capable map so
// that the JSON codec's field-omission support (Serializer.Remove) and
// round-trip tests produce stable, reproducible output — plain Go maps
// randomize iteration order.
type Object struct {
	m *orderedmap.OrderedMap[string, Any]
}

// NewObject returns an empty Object.
func NewObject() Object {
	return Object{m: orderedmap.New[string, Any]()}
}

func (o Object) ensure() Object {
	if o.m == nil {
		return NewObject()
	}
	return o
}

// Set stores value under key, preserving insertion order for new keys.
func (o Object) Set(key string, value Any) Object {
	o = o.ensure()
	o.m.Set(key, value)
	return o
}

// Get returns the value stored under key, and whether it was present.
func (o Object) Get(key string) (Any, bool) {
	if o.m == nil {
		return Any{}, false
	}
	return o.m.Get(key)
}

// Delete removes key, if present.
func (o Object) Delete(key string) {
	if o.m == nil {
		return
	}
	o.m.Delete(key)
}

// Len returns the number of entries.
func (o Object) Len() int {
	if o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Keys returns the object's keys in insertion order.
func (o Object) Keys() []string {
	if o.m == nil {
		return nil
	}
	keys := make([]string, 0, o.m.Len())
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Equal reports whether o and other hold the same keys, in the same
// order, with equal values.
func (o Object) Equal(other Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	op, otherp := o.pairsOrNil(), other.pairsOrNil()
	for i := range op {
		if op[i] != otherp[i] {
			return false
		}
		va, _ := o.Get(op[i])
		vb, _ := other.Get(op[i])
		if !va.Equal(vb) {
			return false
		}
	}
	return true
}

func (o Object) pairsOrNil() []string { return o.Keys() }
