package dap

import "reflect"

// These are the process-lifetime singletons for the scalar DAP types
// (§3: boolean, integer, number, string, null) plus the three generic
// container shapes that do not need a per-instantiation descriptor:
// object, any, and array<any>. They are registered once from init()
// so that TypeOf[bool](), TypeOf[int64](), etc. resolve immediately,
// the same way the original's TypeOf<boolean>::type() et al. are
// defined out-of-line in typeof.cpp rather than generated per call
// site.
var (
	boolType     *TypeInfo
	intType      *TypeInfo
	floatType    *TypeInfo
	stringType   *TypeInfo
	nullType     *TypeInfo
	objectType   *TypeInfo
	anyType      *TypeInfo
	arrayAnyType *TypeInfo
)

func registerBuiltinScalars() {
	boolType = &TypeInfo{
		name:     "boolean",
		newValue: func() any { return new(bool) },
		serializeFn: func(s *Serializer, v any) bool {
			return s.SetBool(v.(bool))
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			b, ok := d.Bool()
			if !ok {
				return false
			}
			*(v.(*bool)) = b
			return true
		},
	}
	registerType(reflect.TypeOf(false), boolType)

	intType = &TypeInfo{
		name:     "integer",
		newValue: func() any { return new(int64) },
		serializeFn: func(s *Serializer, v any) bool {
			return s.SetInt(v.(int64))
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			i, ok := d.Int()
			if !ok {
				return false
			}
			*(v.(*int64)) = i
			return true
		},
	}
	registerType(reflect.TypeOf(int64(0)), intType)

	floatType = &TypeInfo{
		name:     "number",
		newValue: func() any { return new(float64) },
		serializeFn: func(s *Serializer, v any) bool {
			return s.SetFloat(v.(float64))
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			f, ok := d.Number()
			if !ok {
				return false
			}
			*(v.(*float64)) = f
			return true
		},
	}
	registerType(reflect.TypeOf(float64(0)), floatType)

	stringType = &TypeInfo{
		name:     "string",
		newValue: func() any { return new(string) },
		serializeFn: func(s *Serializer, v any) bool {
			return s.SetString(v.(string))
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			str, ok := d.String()
			if !ok {
				return false
			}
			*(v.(*string)) = str
			return true
		},
	}
	registerType(reflect.TypeOf(""), stringType)

	nullType = &TypeInfo{
		name:          "null",
		newValue:      func() any { return new(Null) },
		serializeFn:   func(s *Serializer, v any) bool { return s.SetNull() },
		deserializeFn: func(d *Deserializer, v any) bool { return true },
	}
	registerType(reflect.TypeOf(Null{}), nullType)

	objectType = &TypeInfo{
		name:     "object",
		newValue: func() any { return new(Object) },
		serializeFn: func(s *Serializer, v any) bool {
			obj := v.(Object).ensure()
			node := newObjectNode()
			for pair := obj.m.Oldest(); pair != nil; pair = pair.Next() {
				node.obj.Set(pair.Key, anyToNode(pair.Value))
			}
			*s.node = *node
			return true
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			if d.absent || d.node == nil || d.node.kind != kindObject {
				return false
			}
			obj := NewObject()
			for pair := d.node.obj.Oldest(); pair != nil; pair = pair.Next() {
				obj = obj.Set(pair.Key, nodeToAny(pair.Value))
			}
			*(v.(*Object)) = obj
			return true
		},
	}
	registerType(reflect.TypeOf(Object{}), objectType)

	arrayAnyType = &TypeInfo{
		name:     "array<any>",
		newValue: func() any { return new([]Any) },
		serializeFn: func(s *Serializer, v any) bool {
			arr := v.([]Any)
			i := 0
			return s.Array(len(arr), func(cs *Serializer) bool {
				*cs.node = *anyToNode(arr[i])
				i++
				return true
			})
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			out := []Any{}
			ok := d.Array(func(ed *Deserializer) bool {
				out = append(out, nodeToAny(ed.node))
				return true
			})
			if !ok {
				return false
			}
			*(v.(*[]Any)) = out
			return true
		},
	}
	registerType(reflect.TypeOf([]Any{}), arrayAnyType)

	anyType = &TypeInfo{
		name:     "any",
		newValue: func() any { return new(Any) },
		serializeFn: func(s *Serializer, v any) bool {
			return anySerialize(s, v.(Any))
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			if d.absent {
				return false
			}
			*(v.(*Any)) = nodeToAny(d.node)
			return true
		},
	}
	registerType(reflect.TypeOf(Any{}), anyType)
}

func anySerialize(s *Serializer, a Any) bool {
	if a.ti == nil {
		return s.SetNull()
	}
	return a.ti.Serialize(s, a.value)
}

// Null is the DAP "null" scalar, used as an explicit field type where
// the wire value must always be JSON null. A zero Any is null by
// carrying no TypeInfo at all; it does not hold a Null.
type Null struct{}
