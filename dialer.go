package dap

import (
	"fmt"
	"io"
	"net"
	"sync/atomic"
)

// socketReaderWriter is a TCP-backed ReaderWriter. Close is safe to
// call concurrently with Read/WriteMessage and idempotent: the
// underlying connection lives behind an atomic swap, the same
// discipline the original implementation's Socket::Shared::close()
// uses to guard against a read or write racing a close on another
// goroutine — whichever side calls Close first claims the only
// non-nil value and actually closes the socket.
type socketReaderWriter struct {
	conn atomic.Pointer[net.Conn]
	rw   ReaderWriter
}

// Dial connects to a DAP server listening on the given TCP address
// (host:port) and returns a ReaderWriter framed over the connection.
func Dial(address string) (ReaderWriter, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dap: dial %s: %w", address, err)
	}
	return newSocketReaderWriter(conn), nil
}

// Listen starts a TCP listener on address and calls handle once per
// accepted connection, in its own goroutine, with a ReaderWriter
// framed over that connection. Listen blocks until the listener's
// Accept loop returns an error (typically because the listener was
// closed).
func Listen(address string, handle func(ReaderWriter)) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("dap: listen %s: %w", address, err)
	}
	defer ln.Close()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go handle(newSocketReaderWriter(conn))
	}
}

func newSocketReaderWriter(conn net.Conn) *socketReaderWriter {
	if tc, ok := conn.(*net.TCPConn); ok {
		// DAP's request/response traffic is many small packets; leaving
		// Nagle's algorithm enabled measurably hurts round-trip latency.
		_ = tc.SetNoDelay(true)
	}
	s := &socketReaderWriter{}
	var c net.Conn = conn
	s.conn.Store(&c)
	s.rw = NewIOReaderWriter(&socketReader{s: s}, &socketWriter{s: s})
	return s
}

func (s *socketReaderWriter) current() net.Conn {
	p := s.conn.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (s *socketReaderWriter) ReadMessage() (*Node, error) {
	return s.rw.ReadMessage()
}

func (s *socketReaderWriter) WriteMessage(n *Node) error {
	return s.rw.WriteMessage(n)
}

// Close closes the underlying socket. Only the first call among any
// number of concurrent callers actually closes it.
func (s *socketReaderWriter) Close() error {
	p := s.conn.Swap(nil)
	if p == nil {
		return nil
	}
	return (*p).Close()
}

// socketWriter routes writes through the atomically-swapped conn
// pointer rather than capturing it once, so a write that loses the
// race with a concurrent Close fails instead of writing to a closed
// fd.
type socketWriter struct {
	s *socketReaderWriter
}

func (w *socketWriter) Write(p []byte) (int, error) {
	conn := w.s.current()
	if conn == nil {
		return 0, ErrSessionClosed
	}
	return conn.Write(p)
}

// socketReader reads through the same swapped pointer, so that a read
// made after Close, or one in flight when Close runs, ends with io.EOF
// rather than the connection's closed-socket error.
type socketReader struct {
	s *socketReaderWriter
}

func (r *socketReader) Read(p []byte) (int, error) {
	conn := r.s.current()
	if conn == nil {
		return 0, io.EOF
	}
	n, err := conn.Read(p)
	if err != nil && r.s.current() == nil {
		return n, io.EOF
	}
	return n, err
}
