package dap

import "reflect"

// Variant holds exactly one of an ordered list of alternative types.
// On deserialization the codec attempts each alternative in listed
// order against the same JSON node; the first successful deserialize
// wins — it is the caller's responsibility to order alternatives so
// earlier ones are strict refinements of later ones (for example, a
// specific struct before a catch-all object).
type Variant struct {
	alternatives []*TypeInfo
	ti           *TypeInfo
	value        any
}

// NewVariant constructs a Variant currently holding value, whose
// dynamic type must be one of the registered types backing alts.
func NewVariant(value any, alts ...*TypeInfo) Variant {
	v := Variant{alternatives: alts}
	if ti, ok := typeInfoForValue(value); ok {
		v.ti = ti
		v.value = value
	}
	return v
}

// VariantOf returns the (unpopulated) set of alternatives that
// deserialize should attempt, in order. Pair with Deserializer.Field
// or Deserializer directly when decoding a Variant field.
func VariantOf(alts ...*TypeInfo) []*TypeInfo { return alts }

// TypeInfo returns the descriptor of the alternative currently held,
// or nil if the Variant holds nothing.
func (v Variant) TypeInfo() *TypeInfo { return v.ti }

// VariantIs reports whether v currently holds a T.
func VariantIs[T any](v Variant) bool {
	return v.ti != nil && v.ti == TypeOf[T]()
}

// VariantGet extracts v's value as T, if that is the alternative
// currently held.
func VariantGet[T any](v Variant) (out T, ok bool) {
	if v.ti != TypeOf[T]() {
		return out, false
	}
	out, ok = v.value.(T)
	return out, ok
}

func variantTypeInfo(name string, alts []*TypeInfo) *TypeInfo {
	return &TypeInfo{
		name: name,
		newValue: func() any {
			return new(Variant)
		},
		serializeFn: func(s *Serializer, v any) bool {
			vv := v.(Variant)
			if vv.ti == nil {
				return s.SetNull()
			}
			return vv.ti.Serialize(s, vv.value)
		},
		deserializeFn: func(d *Deserializer, v any) bool {
			ptr := v.(*Variant)
			for _, alt := range alts {
				tmp := alt.New()
				if alt.Deserialize(d, tmp) {
					*ptr = Variant{
						alternatives: alts,
						ti:           alt,
						value:        reflect.ValueOf(tmp).Elem().Interface(),
					}
					return true
				}
			}
			return false
		},
	}
}
