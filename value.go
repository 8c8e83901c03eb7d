package dap

import "reflect"

// Any is a tagged union over {null, boolean, integer, number, string,
// object, array<any>, plus any registered struct type}. The zero value
// of Any is null. Storage is heap-backed and polymorphic via the
// TypeInfo pointer — identity of that pointer, never a language-level
// type switch, is what distinguishes alternatives.
type Any struct {
	ti    *TypeInfo
	value any
}

// NewAny boxes v into an Any. v may be nil (-> null), one of the basic
// DAP scalar Go types (bool, int64, float64, string), an Object, a
// []Any, or a value of any type previously registered with
// RegisterStruct.
func NewAny(v any) Any {
	if v == nil {
		return Any{}
	}
	switch v.(type) {
	case bool:
		return Any{ti: boolType, value: v}
	case int64:
		return Any{ti: intType, value: v}
	case float64:
		return Any{ti: floatType, value: v}
	case string:
		return Any{ti: stringType, value: v}
	case Object:
		return Any{ti: objectType, value: v}
	case []Any:
		return Any{ti: arrayAnyType, value: v}
	}
	if ti, ok := typeInfoForValue(v); ok {
		return Any{ti: ti, value: v}
	}
	// Unregistered type: best effort, identified only by its own
	// reflected name for diagnostics; it cannot be serialized.
	return Any{ti: &TypeInfo{name: reflect.TypeOf(v).String()}, value: v}
}

// IsNull reports whether the Any holds no value.
func (a Any) IsNull() bool { return a.ti == nil }

// TypeInfo returns the descriptor identifying the value's concrete
// type, or nil if the Any is null.
func (a Any) TypeInfo() *TypeInfo { return a.ti }

// Is reports whether the Any currently holds a value of type T.
func Is[T any](a Any) bool {
	if a.ti == nil {
		return false
	}
	return a.ti == TypeOf[T]()
}

// Get extracts the Any's value as T. ok is false if the Any does not
// hold a T.
func Get[T any](a Any) (v T, ok bool) {
	if a.ti != TypeOf[T]() {
		return v, false
	}
	v, ok = a.value.(T)
	return v, ok
}

// Equal reports whether two Any values hold the same type and an
// equal value. Struct payloads compare with reflect.DeepEqual, since
// registered DAP structs are plain value types.
func (a Any) Equal(b Any) bool {
	if a.ti != b.ti {
		return false
	}
	if a.ti == nil {
		return true
	}
	return reflect.DeepEqual(a.value, b.value)
}

func nodeToAny(n *Node) Any {
	if n == nil {
		return Any{}
	}
	switch n.kind {
	case kindNull:
		return Any{}
	case kindBool:
		return NewAny(n.b)
	case kindInt:
		return NewAny(n.i)
	case kindFloat:
		return NewAny(n.f)
	case kindString:
		return NewAny(n.s)
	case kindArray:
		out := make([]Any, len(n.arr))
		for i, e := range n.arr {
			out[i] = nodeToAny(e)
		}
		return NewAny(out)
	case kindObject:
		obj := NewObject()
		for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
			obj = obj.Set(pair.Key, nodeToAny(pair.Value))
		}
		return NewAny(obj)
	}
	return Any{}
}

// anyToNode serializes a through its TypeInfo, the same dispatch
// anySerialize uses for a top-level Any: a boxed registered struct
// carries its fields through a.ti.Serialize rather than falling
// through to null, so an Any nested inside an Object or []Any keeps
// its struct shape on the wire.
func anyToNode(a Any) *Node {
	if a.ti == nil {
		return newNullNode()
	}
	ser := NewSerializer()
	if !a.ti.Serialize(ser, a.value) {
		return newNullNode()
	}
	return ser.Node()
}
