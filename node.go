package dap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// nodeKind discriminates the alternatives of a Node, playing the role
// the original's nlohmann::json::value_t enum plays for its tree.
type nodeKind int

const (
	kindNull nodeKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
	kindArray
	kindObject
)

// Node is a mutable JSON value tree. Unlike decoding into interface{},
// Node keeps integers and floating-point numbers distinct on the wire
// (DAP's "integer" and "number" are different TypeInfo alternatives)
// and preserves the insertion order of object keys, both of which a
// field-removable Serializer needs to round-trip faithfully.
type Node struct {
	kind nodeKind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []*Node
	obj  *orderedmap.OrderedMap[string, *Node]
}

func newNullNode() *Node                { return &Node{kind: kindNull} }
func newBoolNode(b bool) *Node          { return &Node{kind: kindBool, b: b} }
func newIntNode(i int64) *Node          { return &Node{kind: kindInt, i: i} }
func newFloatNode(f float64) *Node      { return &Node{kind: kindFloat, f: f} }
func newStringNode(s string) *Node      { return &Node{kind: kindString, s: s} }
func newObjectNode() *Node {
	return &Node{kind: kindObject, obj: orderedmap.New[string, *Node]()}
}

// parseNode decodes a single JSON value from data into a Node tree,
// using json.Decoder's token stream (rather than decoding into
// interface{}) specifically to keep integral literals as kindInt
// instead of collapsing them into float64 the way interface{}
// decoding would.
func parseNode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func decodeNode(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return nodeFromToken(dec, tok)
}

func nodeFromToken(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			n := &Node{kind: kindArray}
			for dec.More() {
				child, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				n.arr = append(n.arr, child)
			}
			if _, err := dec.Token(); err != nil { // ']'
				return nil, err
			}
			return n, nil
		case '{':
			n := newObjectNode()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("dap: non-string object key %v", keyTok)
				}
				val, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				n.obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // '}'
				return nil, err
			}
			return n, nil
		default:
			return nil, fmt.Errorf("dap: unexpected delimiter %v", t)
		}
	case nil:
		return newNullNode(), nil
	case bool:
		return newBoolNode(t), nil
	case string:
		return newStringNode(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return newIntNode(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return newFloatNode(f), nil
	default:
		return nil, fmt.Errorf("dap: unhandled token %T", t)
	}
}

// encode writes the canonical JSON text of the node to w.
func (n *Node) encode(w io.Writer) error {
	buf, ok := w.(*bytes.Buffer)
	if !ok {
		buf = &bytes.Buffer{}
		defer func() { _, _ = w.Write(buf.Bytes()) }()
	}
	return n.encodeTo(buf)
}

func (n *Node) encodeTo(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.kind {
	case kindNull:
		buf.WriteString("null")
	case kindBool:
		if n.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case kindInt:
		buf.WriteString(strconv.FormatInt(n.i, 10))
	case kindFloat:
		buf.WriteString(formatFloat(n.f))
	case kindString:
		esc, err := json.Marshal(n.s)
		if err != nil {
			return err
		}
		buf.Write(esc)
	case kindArray:
		buf.WriteByte('[')
		for i, e := range n.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encodeTo(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case kindObject:
		buf.WriteByte('{')
		first := true
		if n.obj != nil {
			for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
				if !first {
					buf.WriteByte(',')
				}
				first = false
				key, err := json.Marshal(pair.Key)
				if err != nil {
					return err
				}
				buf.Write(key)
				buf.WriteByte(':')
				if err := pair.Value.encodeTo(buf); err != nil {
					return err
				}
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// formatFloat renders f so the result always carries a decimal point,
// distinguishing it on the wire from an integer JSON number: 'g'
// formatting (and bare FormatFloat in general) drops the point for
// whole-number values like 5.0, which would round-trip back through
// parseNode as an int and silently reclassify the value.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Bytes renders the node to its canonical JSON encoding.
func (n *Node) Bytes() []byte {
	var buf bytes.Buffer
	_ = n.encodeTo(&buf)
	return buf.Bytes()
}
