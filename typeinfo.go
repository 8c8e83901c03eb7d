package dap

import (
	"reflect"
	"sync"
)

// Field describes one member of a registered struct: its wire name,
// and accessor closures that read/write the field on a struct
// pointer. This is the Go analogue of the original implementation's
// {wire name, byte offset, field TypeInfo} triple — Go has no portable,
// reflection-free way to take a field's byte offset generically, so
// per-struct accessor closures stand in for raw offsets, exactly as
// permitted by the "implementations that cannot expose raw field
// offsets must instead emit per-struct serialize/deserialize thunks"
// escape hatch.
type Field struct {
	// Name is the field's key on the wire.
	Name string
	// Type is the field's descriptor.
	Type *TypeInfo
	// Get returns the field's current value (by value, not pointer)
	// given a pointer to the owning struct.
	Get func(structPtr any) any
	// Set stores a decoded value (a pointer produced by Type.New(),
	// already populated by Type.Deserialize) onto the owning struct.
	Set func(structPtr any, valuePtr any)
}

// TypeInfo is an immutable, process-lifetime descriptor for a DAP
// value type: scalar, struct, or generic container (optional, array,
// variant). Two TypeInfo values describe the same type if and only if
// their pointers are equal — the registry never compares by name.
type TypeInfo struct {
	name          string
	newValue      func() any
	serializeFn   func(s *Serializer, v any) bool
	deserializeFn func(d *Deserializer, v any) bool
	fields        []Field
}

// Name returns the descriptor's diagnostic name. Never used on the
// wire — only for error messages and logging.
func (t *TypeInfo) Name() string { return t.name }

// Fields returns the struct's field table, or nil for non-struct
// descriptors.
func (t *TypeInfo) Fields() []Field { return t.fields }

// New default-constructs a pointer to a zero value of the described
// type, suitable for passing to Deserialize.
func (t *TypeInfo) New() any { return t.newValue() }

// Serialize writes v (a value, not a pointer) through s.
func (t *TypeInfo) Serialize(s *Serializer, v any) bool { return t.serializeFn(s, v) }

// Deserialize reads from d into the pointer v (produced by New).
func (t *TypeInfo) Deserialize(d *Deserializer, v any) bool { return t.deserializeFn(d, v) }

var registry = struct {
	mu sync.RWMutex
	m  map[reflect.Type]*TypeInfo
}{m: make(map[reflect.Type]*TypeInfo)}

func registerType(rt reflect.Type, ti *TypeInfo) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.m[rt] = ti
}

func lookupType(rt reflect.Type) (*TypeInfo, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	ti, ok := registry.m[rt]
	return ti, ok
}

// TypeOf returns the process-lifetime TypeInfo singleton describing T.
// It panics if T itself has not been registered via RegisterStruct,
// ArrayOf, OptionalOf or one of the built-in scalar registrations; a
// pointer type *X is not resolved through X, and a slice type []X
// resolves only once ArrayOf[X]() has been called (or for []Any, which
// is built in) — this mirrors the original's compile-time
// TypeOf<T>::type() failing to link for an undeclared T, just deferred
// to first use.
func TypeOf[T any]() *TypeInfo {
	var zero T
	rt := reflect.TypeOf(zero)
	if ti, ok := lookupType(rt); ok {
		return ti
	}
	panic("dap: type not registered: " + rt.String())
}

func typeInfoForValue(v any) (*TypeInfo, bool) {
	return lookupType(reflect.TypeOf(v))
}

// RegisterStruct declares a struct descriptor: wireName is the DAP
// wire name for the type (e.g. "InitializeRequestArguments"), and
// fields is the ordered table of members to serialize/deserialize.
// It is the Go analogue of DAP_STRUCT_TYPEINFO: called once, typically
// from an init() function in a package that defines the concrete DAP
// message catalog, before any Session using T is bound.
func RegisterStruct[T any](wireName string, fields ...Field) *TypeInfo {
	var zero T
	rt := reflect.TypeOf(zero)
	ti := &TypeInfo{
		name:   wireName,
		fields: fields,
		newValue: func() any {
			return new(T)
		},
		serializeFn: func(s *Serializer, v any) bool {
			val := v.(T)
			return s.Fields(&val, fields)
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			ptr := v.(*T)
			return d.Fields(ptr, fields)
		},
	}
	registerType(rt, ti)
	return ti
}

// arrayTypeCache memoizes ArrayOf[T]() descriptors separately from the
// main registry, keyed by the slice's own reflect.Type, so that
// TypeOf[[]T]() also resolves once a caller has requested ArrayOf[T]().
var arrayTypeCache sync.Map // reflect.Type -> *TypeInfo

// ArrayOf returns (creating and memoizing on first use) the descriptor
// for a dynamically sized sequence of T — the Go analogue of the
// original's TypeOf<array<T>> template specialization, which Go's
// generics cannot express as an automatic specialization over TypeOf
// itself, hence the separate entry point.
func ArrayOf[T any]() *TypeInfo {
	var zero []T
	rt := reflect.TypeOf(zero)
	if v, ok := arrayTypeCache.Load(rt); ok {
		return v.(*TypeInfo)
	}
	elem := TypeOf[T]()
	ti := &TypeInfo{
		name: "array<" + elem.name + ">",
		newValue: func() any {
			return new([]T)
		},
		serializeFn: func(s *Serializer, v any) bool {
			arr := v.([]T)
			i := 0
			return s.Array(len(arr), func(cs *Serializer) bool {
				ok := elem.Serialize(cs, arr[i])
				i++
				return ok
			})
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			ptr := v.(*[]T)
			var out []T
			ok := d.Array(func(ed *Deserializer) bool {
				tmp := elem.New()
				if !elem.Deserialize(ed, tmp) {
					return false
				}
				out = append(out, *(tmp.(*T)))
				return true
			})
			if !ok {
				return false
			}
			*ptr = out
			return true
		},
	}
	registerType(rt, ti)
	arrayTypeCache.Store(rt, ti)
	return ti
}

// OptionalOf returns (creating and memoizing on first use) the
// descriptor for an Optional[T], the analogue of the original's
// TypeOf<optional<T>> specialization.
func OptionalOf[T any]() *TypeInfo {
	var zero Optional[T]
	rt := reflect.TypeOf(zero)
	if ti, ok := lookupType(rt); ok {
		return ti
	}
	inner := TypeOf[T]()
	ti := &TypeInfo{
		name: "optional<" + inner.name + ">",
		newValue: func() any {
			return new(Optional[T])
		},
		serializeFn: func(s *Serializer, v any) bool {
			opt := v.(Optional[T])
			if !opt.HasValue() {
				s.Remove()
				return true
			}
			return inner.Serialize(s, opt.Value())
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			ptr := v.(*Optional[T])
			if d.absent {
				*ptr = Optional[T]{}
				return true
			}
			innerPtr := inner.New()
			if !inner.Deserialize(d, innerPtr) {
				return false
			}
			*ptr = Some(*(innerPtr.(*T)))
			return true
		},
	}
	registerType(rt, ti)
	return ti
}

func init() {
	registerBuiltinScalars()
}
