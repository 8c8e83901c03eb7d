package dap

// Deserializer reads a single JSON value out of node as a TypeInfo's
// deserializeFn runs. absent is true when the value being read simply
// was not present on the wire (a missing object key, not a JSON
// null) — TypeInfo implementations for Optional and for struct fields
// consult it directly; scalar TypeInfo implementations treat an
// absent value the same as a type mismatch and fail.
type Deserializer struct {
	node   *Node
	absent bool
}

// NewDeserializer returns a Deserializer over a parsed Node tree, for
// callers decoding a wire message into a TypeInfo-described value
// without going through Session.
func NewDeserializer(n *Node) *Deserializer {
	return &Deserializer{node: n}
}

// nullDeserializer is a shared absent Deserializer, returned by Field
// for a member that is missing. Every read on it fails and Absent
// reports true.
var nullDeserializer = &Deserializer{absent: true}

// Node returns the node currently being read, or nil if absent.
func (d *Deserializer) Node() *Node { return d.node }

// Absent reports whether the value being read was missing entirely.
func (d *Deserializer) Absent() bool { return d.absent }

// Bool reads a boolean leaf.
func (d *Deserializer) Bool() (bool, bool) {
	if d.absent || d.node == nil || d.node.kind != kindBool {
		return false, false
	}
	return d.node.b, true
}

// Int reads an integer leaf.
func (d *Deserializer) Int() (int64, bool) {
	if d.absent || d.node == nil || d.node.kind != kindInt {
		return 0, false
	}
	return d.node.i, true
}

// Number reads a floating-point leaf, accepting an integer literal as
// well since DAP's "number" and "integer" share the same JSON syntax.
func (d *Deserializer) Number() (float64, bool) {
	if d.absent || d.node == nil {
		return 0, false
	}
	switch d.node.kind {
	case kindFloat:
		return d.node.f, true
	case kindInt:
		return float64(d.node.i), true
	default:
		return 0, false
	}
}

// String reads a string leaf.
func (d *Deserializer) String() (string, bool) {
	if d.absent || d.node == nil || d.node.kind != kindString {
		return "", false
	}
	return d.node.s, true
}

// IsNull reports whether the value being read is an explicit JSON
// null (as opposed to absent, i.e. simply missing).
func (d *Deserializer) IsNull() bool {
	return !d.absent && d.node != nil && d.node.kind == kindNull
}

// Array reads a JSON array, invoking cb once per element with a child
// Deserializer.
func (d *Deserializer) Array(cb func(ed *Deserializer) bool) bool {
	if d.absent || d.node == nil || d.node.kind != kindArray {
		return false
	}
	for _, elem := range d.node.arr {
		ed := &Deserializer{node: elem}
		if !cb(ed) {
			return false
		}
	}
	return true
}

// Fields reads a JSON object's members into ptr according to fields.
// A field whose key is missing from the object is presented to its
// TypeInfo as an absent Deserializer; required (non-Optional) fields
// fail the overall decode in that case, exactly as a mandatory
// DAP_FIELD with no matching key fails the original's deserializer.
func (d *Deserializer) Fields(ptr any, fields []Field) bool {
	if len(fields) == 0 {
		return true // a struct with no fields needs nothing from the wire
	}
	if d.absent || d.node == nil || d.node.kind != kindObject {
		return false
	}
	for _, f := range fields {
		child, present := d.node.obj.Get(f.Name)
		fd := &Deserializer{node: child, absent: !present}
		tmp := f.Type.New()
		if !f.Type.Deserialize(fd, tmp) {
			return false
		}
		f.Set(ptr, tmp)
	}
	return true
}

// Field reads a single named member of the current object node,
// independent of any registered struct's field table. Returns an
// absent Deserializer if the object node has no such key, or if the
// receiver does not hold an object at all.
func (d *Deserializer) Field(name string) *Deserializer {
	if d.absent || d.node == nil || d.node.kind != kindObject {
		return nullDeserializer
	}
	child, present := d.node.obj.Get(name)
	if !present {
		return nullDeserializer
	}
	return &Deserializer{node: child}
}
