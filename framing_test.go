package dap

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteFrameFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	want := "Content-Length: 7\r\n\r\n{\"a\":1}"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFrameReaderReadsMultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	_ = writeFrame(&buf, []byte(`{"a":1}`))
	_ = writeFrame(&buf, []byte(`{"b":2}`))

	fr := newFrameReader(&buf)
	first, err := fr.readFrame()
	if err != nil {
		t.Fatalf("readFrame (1): %v", err)
	}
	if string(first) != `{"a":1}` {
		t.Errorf("got %q, want %q", first, `{"a":1}`)
	}
	second, err := fr.readFrame()
	if err != nil {
		t.Fatalf("readFrame (2): %v", err)
	}
	if string(second) != `{"b":2}` {
		t.Errorf("got %q, want %q", second, `{"b":2}`)
	}
}

// TestFrameReaderResyncsPastGarbage covers the scenario where a peer
// writes non-protocol bytes onto the stream (a stray log line, a
// truncated prior frame) before a well-formed frame: the reader must
// skip the garbage and recover the next real frame rather than
// failing the whole stream.
func TestFrameReaderResyncsPastGarbage(t *testing.T) {
	stream := "this is not a header\r\nnor is this\r\n" +
		"Content-Length: 7\r\n\r\n{\"a\":1}"
	fr := newFrameReader(strings.NewReader(stream))
	content, err := fr.readFrame()
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if string(content) != `{"a":1}` {
		t.Errorf("got %q, want %q", content, `{"a":1}`)
	}
}

func TestFrameReaderIgnoresUnrelatedHeaders(t *testing.T) {
	stream := "Content-Type: application/json\r\nContent-Length: 7\r\n\r\n{\"a\":1}"
	fr := newFrameReader(strings.NewReader(stream))
	content, err := fr.readFrame()
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if string(content) != `{"a":1}` {
		t.Errorf("got %q, want %q", content, `{"a":1}`)
	}
}

// TestFrameReaderResyncsPastGlueGarbage covers garbage bytes with no
// preceding CRLF at all: the garbage runs directly into the next
// header with no line break between them. A line-oriented scan would
// merge the garbage and the header into a single unparsable line and
// lose the frame; this is the exact fixture dap::ContentReader is
// tested against.
func TestFrameReaderResyncsPastGlueGarbage(t *testing.T) {
	stream := "Content-Length: 26\r\n\r\nContent payload number one" +
		"some unrecognised garbage" +
		"Content-Length: 26\r\n\r\nContent payload number two" +
		"some more unrecognised garbage" +
		"Content-Length: 28\r\n\r\nContent payload number three"
	fr := newFrameReader(strings.NewReader(stream))

	want := []string{
		"Content payload number one",
		"Content payload number two",
		"Content payload number three",
	}
	for i, w := range want {
		content, err := fr.readFrame()
		if err != nil {
			t.Fatalf("readFrame (%d): %v", i, err)
		}
		if string(content) != w {
			t.Errorf("frame %d: got %q, want %q", i, content, w)
		}
	}
	if _, err := fr.readFrame(); err == nil {
		t.Errorf("expected an error once the stream is exhausted")
	}
}

// TestFrameReaderResyncsTwoFramesAcrossGlueGarbage is the literal
// two-frame scenario: leading junk on its own line before the first
// header, then garbage glued directly (no line break) onto the second
// header, then the end of the stream.
func TestFrameReaderResyncsTwoFramesAcrossGlueGarbage(t *testing.T) {
	stream := "junk\r\nContent-Length: 3\r\n\r\nabc" +
		"trash" +
		"Content-Length: 2\r\n\r\nok"
	fr := newFrameReader(strings.NewReader(stream))

	first, err := fr.readFrame()
	if err != nil {
		t.Fatalf("readFrame (1): %v", err)
	}
	if string(first) != "abc" {
		t.Errorf("got %q, want %q", first, "abc")
	}

	second, err := fr.readFrame()
	if err != nil {
		t.Fatalf("readFrame (2): %v", err)
	}
	if string(second) != "ok" {
		t.Errorf("got %q, want %q", second, "ok")
	}

	if _, err := fr.readFrame(); err == nil {
		t.Errorf("expected an error once the stream is exhausted")
	}
}
