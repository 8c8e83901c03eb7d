// Package dap implements the core runtime of a Debug Adapter Protocol (DAP)
// endpoint: a bidirectional, typed request/response/event session that sits
// over a byte-oriented transport and connects application code to a peer —
// either a debugger client or a debug adapter.
//
// The package is endpoint-role-symmetric: the same [Session] type serves
// both the client and server sides of a DAP conversation. A Session does not
// know about TCP, pipes, or the concrete catalog of DAP messages
// (InitializeRequest, StoppedEvent, and the hundreds of other structs the
// protocol defines) — those are supplied by callers through [RegisterStruct]
// and the transport through the [Reader], [Writer], and [ReaderWriter]
// interfaces. The package also ships TCP helpers ([Dial], [Listen]) and an
// in-memory [Pipe] that satisfy those interfaces.
//
// Four subsystems make up the runtime:
//
//   - A type descriptor registry ([TypeInfo], [TypeOf], [RegisterStruct]) that
//     encodes and decodes DAP messages without reflection at the hot path.
//   - A JSON codec ([Serializer], [Deserializer]) that bridges descriptors to
//     and from a JSON document tree.
//   - Content-Length wire framing ([NewIOReaderWriter], [Dial], [Listen]).
//   - The session engine ([Session]) that multiplexes requests, responses,
//     and events over a bound transport.
package dap
