package dap

import "io"

// Reader is the read half of a DAP transport: something a Session can
// pull framed messages from. It is satisfied by any io.Reader via
// NewIOReaderWriter.
type Reader interface {
	// ReadMessage blocks until a complete message is available,
	// returning its decoded envelope node.
	ReadMessage() (*Node, error)
}

// Writer is the write half of a DAP transport.
type Writer interface {
	// WriteMessage frames and writes a single message.
	WriteMessage(n *Node) error
}

// ReaderWriter is a full-duplex DAP transport, the interface a
// Session binds to.
type ReaderWriter interface {
	Reader
	Writer
}

// ioReaderWriter adapts a plain io.Reader/io.Writer pair (a socket, a
// pair of pipes, stdin/stdout) to ReaderWriter using Content-Length
// framing, the way every concrete DAP transport — TCP, stdio, a
// spawned subprocess's pipes — ultimately bottoms out on.
type ioReaderWriter struct {
	r  io.Reader
	fr *frameReader
	w  io.Writer
}

// NewIOReaderWriter wraps r and w as a ReaderWriter using
// Content-Length framing.
func NewIOReaderWriter(r io.Reader, w io.Writer) ReaderWriter {
	return &ioReaderWriter{r: r, fr: newFrameReader(r), w: w}
}

func (rw *ioReaderWriter) ReadMessage() (*Node, error) {
	content, err := rw.fr.readFrame()
	if err != nil {
		return nil, err
	}
	return parseNode(content)
}

func (rw *ioReaderWriter) WriteMessage(n *Node) error {
	return writeFrame(rw.w, n.Bytes())
}

// Close closes the underlying reader and writer, if they support it,
// so that a Session.Close unblocks a read pump parked in ReadMessage.
func (rw *ioReaderWriter) Close() error {
	var err error
	if c, ok := rw.r.(io.Closer); ok {
		if e := c.Close(); e != nil {
			err = e
		}
	}
	if c, ok := rw.w.(io.Closer); ok {
		if e := c.Close(); e != nil {
			err = e
		}
	}
	return err
}

// Pipe returns two connected ReaderWriters, each of which sees the
// other's writes as its reads — useful for wiring a client Session
// directly to a server Session in a single process, e.g. in tests.
func Pipe() (a, b ReaderWriter) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return NewIOReaderWriter(ar, aw), NewIOReaderWriter(br, bw)
}
