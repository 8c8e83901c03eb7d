package dap

// Serializer accumulates a single JSON value into node as a TypeInfo's
// serializeFn runs. Each struct field and each array element gets its
// own child Serializer wrapping a fresh Node, mirroring the original's
// Serializer::array()/Serializer::object() callback shape.
type Serializer struct {
	node    *Node
	removed bool
}

// NewSerializer returns a Serializer ready to populate a fresh Node,
// for callers building a wire message from a TypeInfo-described value
// without going through Session.
func NewSerializer() *Serializer {
	return &Serializer{node: &Node{}}
}

// Node returns the node accumulated so far. Valid after the top-level
// TypeInfo.Serialize call returns true.
func (s *Serializer) Node() *Node { return s.node }

// SetBool writes a boolean leaf.
func (s *Serializer) SetBool(b bool) bool {
	*s.node = *newBoolNode(b)
	return true
}

// SetInt writes an integer leaf.
func (s *Serializer) SetInt(i int64) bool {
	*s.node = *newIntNode(i)
	return true
}

// SetFloat writes a floating-point leaf.
func (s *Serializer) SetFloat(f float64) bool {
	*s.node = *newFloatNode(f)
	return true
}

// SetString writes a string leaf.
func (s *Serializer) SetString(str string) bool {
	*s.node = *newStringNode(str)
	return true
}

// SetNull writes an explicit JSON null.
func (s *Serializer) SetNull() bool {
	*s.node = *newNullNode()
	return true
}

// Remove marks the value currently being serialized as absent: when
// called from inside a struct field's serializeFn, the field is
// omitted from the enclosing object entirely, the same way the
// original's Serializer::remove() drops a field rather than writing
// null for it. Calling Remove outside a field context has no visible
// effect beyond leaving the current node as a null.
func (s *Serializer) Remove() {
	s.removed = true
}

// Array serializes a sequence of n elements. cb is invoked once per
// element with a child Serializer; it must write exactly one value
// and report whether it succeeded.
func (s *Serializer) Array(n int, cb func(cs *Serializer) bool) bool {
	arr := make([]*Node, n)
	for i := 0; i < n; i++ {
		child := &Node{}
		cs := &Serializer{node: child}
		if !cb(cs) {
			return false
		}
		arr[i] = child
	}
	*s.node = Node{kind: kindArray, arr: arr}
	return true
}

// Fields serializes ptr's fields into an object node, honoring any
// field whose TypeInfo calls Remove by omitting it from the output.
func (s *Serializer) Fields(ptr any, fields []Field) bool {
	obj := newObjectNode()
	for _, f := range fields {
		val := f.Get(ptr)
		child := &Node{}
		cs := &Serializer{node: child}
		if !f.Type.Serialize(cs, val) {
			return false
		}
		if cs.removed {
			continue
		}
		obj.obj.Set(f.Name, child)
	}
	*s.node = *obj
	return true
}
