package dap

import "testing"

func TestParseNodeKeepsIntsAndFloatsDistinct(t *testing.T) {
	n, err := parseNode([]byte(`{"i": 3, "f": 3.5}`))
	if err != nil {
		t.Fatalf("parseNode: %v", err)
	}
	iNode, _ := n.obj.Get("i")
	fNode, _ := n.obj.Get("f")
	if iNode.kind != kindInt || iNode.i != 3 {
		t.Errorf("expected i to decode as an int node holding 3, got %+v", iNode)
	}
	if fNode.kind != kindFloat || fNode.f != 3.5 {
		t.Errorf("expected f to decode as a float node holding 3.5, got %+v", fNode)
	}
}

func TestParseNodePreservesObjectKeyOrder(t *testing.T) {
	n, err := parseNode([]byte(`{"z": 1, "a": 2, "m": 3}`))
	if err != nil {
		t.Fatalf("parseNode: %v", err)
	}
	var keys []string
	for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key order mismatch at %d: got %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := `{"a":1,"b":[1,2,3],"c":"x","d":true,"e":null,"f":1.5}`
	n, err := parseNode([]byte(orig))
	if err != nil {
		t.Fatalf("parseNode: %v", err)
	}
	n2, err := parseNode(n.Bytes())
	if err != nil {
		t.Fatalf("re-parse of encoded output: %v", err)
	}
	if string(n.Bytes()) != string(n2.Bytes()) {
		t.Errorf("encoding is not stable across a round trip: %s != %s", n.Bytes(), n2.Bytes())
	}
}

// TestWholeNumberFloatKeepsDecimalPoint guards the kindFloat branch of
// encodeTo: a whole-number float must still encode with a literal
// decimal point, or it re-parses as kindInt and loses its float
// classification on the next trip through parseNode.
func TestWholeNumberFloatKeepsDecimalPoint(t *testing.T) {
	n := newFloatNode(5.0)
	encoded := string(n.Bytes())
	if encoded != "5.0" {
		t.Errorf("got %q, want %q", encoded, "5.0")
	}

	n2, err := parseNode(n.Bytes())
	if err != nil {
		t.Fatalf("re-parse of encoded output: %v", err)
	}
	if n2.kind != kindFloat || n2.f != 5.0 {
		t.Errorf("whole-number float did not survive a round trip as a float: got %+v", n2)
	}
}

func TestParseNodeArray(t *testing.T) {
	n, err := parseNode([]byte(`[1, "a", true, null]`))
	if err != nil {
		t.Fatalf("parseNode: %v", err)
	}
	if n.kind != kindArray || len(n.arr) != 4 {
		t.Fatalf("expected a 4-element array, got %+v", n)
	}
	if n.arr[0].kind != kindInt || n.arr[0].i != 1 {
		t.Errorf("element 0: %+v", n.arr[0])
	}
	if n.arr[1].kind != kindString || n.arr[1].s != "a" {
		t.Errorf("element 1: %+v", n.arr[1])
	}
	if n.arr[2].kind != kindBool || !n.arr[2].b {
		t.Errorf("element 2: %+v", n.arr[2])
	}
	if n.arr[3].kind != kindNull {
		t.Errorf("element 3: %+v", n.arr[3])
	}
}
