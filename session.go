package dap

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sendGuardKey tags a context with the Session currently dispatching
// through it, so that Send can detect and refuse a blocking call made
// from inside that same session's read pump — the read pump is the
// only goroutine that can ever deliver the response, so such a call
// can never return on its own.
type sendGuardKey struct{}

type commandHandler func(ctx context.Context, args *Node) (*Node, error)
type eventHandler func(ctx context.Context, body *Node) error

// Session correlates a stream of DAP requests, responses, and events
// flowing over a single ReaderWriter. It is endpoint-symmetric: the
// same type plays the client role (registering event handlers,
// issuing requests) and the server role (registering command
// handlers, issuing events) depending only on which RegisterHandler/
// RegisterEventHandler/Send/SendEvent calls are made against it.
type Session struct {
	id  string
	log *zap.Logger

	mu  sync.Mutex
	rw  ReaderWriter
	seq int64

	commands map[string]commandHandler
	events   map[string]eventHandler

	sentMu   sync.Mutex
	sentObservers map[*TypeInfo][]func(any)

	onError func(string)

	pendingMu sync.Mutex
	pending   map[int64]Promise[*envelope]

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    chan struct{}
	doneCh    chan struct{}
}

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithLogger attaches a structured logger; the default is zap.NewNop,
// so a Session is silent unless a caller opts in.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) { s.log = logger }
}

// WithErrorHandler registers a callback invoked for protocol-level
// failures that have no other natural caller to report to: an
// unhandled incoming command, a malformed frame, an orphan response,
// a read error on the transport. A panic in a handler is not
// recovered and is not reported here.
func WithErrorHandler(fn func(string)) SessionOption {
	return func(s *Session) { s.onError = fn }
}

// NewSession constructs an unbound Session. Call Bind to attach a
// transport and start processing messages.
func NewSession(opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:            uuid.NewString(),
		log:           zap.NewNop(),
		commands:      make(map[string]commandHandler),
		events:        make(map[string]eventHandler),
		sentObservers: make(map[*TypeInfo][]func(any)),
		pending:       make(map[int64]Promise[*envelope]),
		ctx:           ctx,
		cancel:        cancel,
		closed:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's diagnostic identifier, stable for the
// Session's lifetime and never sent on the wire.
func (s *Session) ID() string { return s.id }

// Bind attaches rw and starts the single read-pump goroutine that
// drives the session for the rest of its life. Bind may be called
// exactly once per Session.
func (s *Session) Bind(rw ReaderWriter) error {
	s.mu.Lock()
	if s.rw != nil {
		s.mu.Unlock()
		err := newSessionError("E_ALREADY_BOUND", "bind called more than once on the same session", ErrAlreadyBound)
		s.reportError(err.Error())
		return err
	}
	s.rw = rw
	s.mu.Unlock()

	go s.readPump()
	return nil
}

// Close unblocks any pending requests with ErrSessionClosed and stops
// the read pump. It is safe to call more than once. A Session that
// was never bound has no read pump to wait for, so Close returns as
// soon as its own teardown runs instead of blocking on a doneCh that
// readPump would otherwise never close.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.cancel()
		s.pendingMu.Lock()
		for seq, p := range s.pending {
			p.Reject(newSessionError("E_CLOSED", "session closed", ErrSessionClosed))
			delete(s.pending, seq)
		}
		s.pendingMu.Unlock()

		s.mu.Lock()
		rw := s.rw
		s.mu.Unlock()
		if closer, ok := rw.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				s.reportError(newSessionError("E_IO", "closing transport", err).Error())
			}
		}
	})
	s.mu.Lock()
	bound := s.rw != nil
	s.mu.Unlock()
	if bound {
		<-s.doneCh
	}
	return nil
}

func (s *Session) reportError(msg string) {
	s.log.Error(msg, zap.String("session", s.id))
	if s.onError != nil {
		s.onError(msg)
	}
}

func (s *Session) nextSeq() int64 {
	return atomic.AddInt64(&s.seq, 1)
}

// readPump is the session's single reader: it owns the transport's
// read side for the Session's whole lifetime, dispatching each
// incoming envelope to a handler, a pending-response promise, or the
// error handler if nothing claims it.
func (s *Session) readPump() {
	defer close(s.doneCh)
	ctx := context.WithValue(s.ctx, sendGuardKey{}, s)
	for {
		select {
		case <-s.closed:
			return
		default:
		}
		node, err := s.rw.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
			default:
				s.reportError(fmt.Sprintf("dap: read error: %v", err))
				// The transport is gone: tear the session down so that
				// pending Sends are rejected with ErrSessionClosed.
				// Close waits on doneCh, so it must not run on this
				// goroutine.
				go s.Close()
			}
			return
		}
		env, err := decodeEnvelope(node)
		if err != nil {
			s.reportError(fmt.Sprintf("dap: malformed envelope: %v", err))
			continue // resync: a single bad frame shouldn't kill the pump
		}
		s.dispatch(ctx, env)
	}
}

func (s *Session) dispatch(ctx context.Context, env *envelope) {
	switch env.Type {
	case msgResponse:
		s.pendingMu.Lock()
		p, ok := s.pending[env.RequestSeq]
		if ok {
			delete(s.pending, env.RequestSeq)
		}
		s.pendingMu.Unlock()
		if ok {
			p.Resolve(env)
		} else {
			s.reportError(fmt.Sprintf("dap: response for unknown request seq %d", env.RequestSeq))
		}
	case msgEvent:
		s.mu.Lock()
		h, ok := s.events[env.Event]
		s.mu.Unlock()
		if !ok {
			return // unrecognized events are silently ignored, per protocol convention
		}
		bodyNode, err := payloadNode(env.Body)
		if err != nil {
			s.reportError(fmt.Sprintf("dap: malformed event body for %q: %v", env.Event, err))
			return
		}
		if err := h(ctx, bodyNode); err != nil {
			s.reportError(fmt.Sprintf("dap: event handler for %q: %v", env.Event, err))
		}
	case msgRequest:
		s.handleRequest(ctx, env)
	default:
		s.reportError(fmt.Sprintf("dap: unknown message type %q", env.Type))
	}
}

func (s *Session) handleRequest(ctx context.Context, env *envelope) {
	s.mu.Lock()
	h, ok := s.commands[env.Command]
	s.mu.Unlock()

	if !ok {
		s.reportError(fmt.Sprintf("dap: %v: %s", ErrNoHandler, env.Command))
		_ = s.sendResponse(env.Seq, env.Command, nil, NewError("%v", ErrNoHandler))
		return
	}

	argsNode, err := payloadNode(env.Arguments)
	if err != nil {
		s.reportError(fmt.Sprintf("dap: malformed arguments for %q: %v", env.Command, err))
		_ = s.sendResponse(env.Seq, env.Command, nil, NewError("malformed arguments: %v", err))
		return
	}

	bodyNode, herr := h(ctx, argsNode)
	if herr != nil {
		if err := s.sendResponse(env.Seq, env.Command, nil, NewError("%v", herr)); err != nil {
			s.reportError(fmt.Sprintf("dap: sending failure response for %q: %v", env.Command, err))
		}
		return
	}
	if err := s.sendResponse(env.Seq, env.Command, bodyNode, Error{}); err != nil {
		s.reportError(fmt.Sprintf("dap: sending response for %q: %v", env.Command, err))
	}
}

func (s *Session) sendResponse(requestSeq int64, command string, body *Node, failure Error) error {
	env := &envelope{
		Seq:        s.nextSeq(),
		Type:       msgResponse,
		Command:    command,
		RequestSeq: requestSeq,
		Success:    !failure.IsSet(),
		Message:    failure.Message,
		Body:       nodeToPayload(body),
	}
	return s.writeEnvelope(env)
}

func (s *Session) writeEnvelope(env *envelope) error {
	node, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	select {
	case <-s.closed:
		return newSessionError("E_CLOSED", "write to an unbound or closed session", ErrSessionClosed)
	default:
	}
	s.mu.Lock()
	rw := s.rw
	s.mu.Unlock()
	if rw == nil {
		return newSessionError("E_CLOSED", "write to an unbound or closed session", ErrSessionClosed)
	}
	if err := rw.WriteMessage(node); err != nil {
		return newSessionError("E_IO", "writing envelope", err)
	}
	return nil
}

// RegisterHandler binds a command handler: fn is invoked for every
// incoming request named command, with its arguments decoded into
// Req via Req's registered TypeInfo; fn's returned *Resp is encoded
// back as the response body. Registering the same command twice
// replaces the earlier handler.
//
// Every outcome of fn — a successful response or an error that
// becomes a failure response — is reported to every
// RegisterSentHandler[Resp] observer, whichever command it was
// registered alongside. The report is made as soon as fn's outcome is
// known, before the reply is written to the transport.
func RegisterHandler[Req, Resp any](s *Session, command string, fn func(ctx context.Context, req *Req) (*Resp, error)) {
	reqTI := TypeOf[Req]()
	respTI := TypeOf[Resp]()
	s.mu.Lock()
	s.commands[command] = func(ctx context.Context, args *Node) (*Node, error) {
		reqPtr := reqTI.New()
		if !reqTI.Deserialize(NewDeserializer(args), reqPtr) {
			return nil, fmt.Errorf("dap: could not decode %s arguments", command)
		}
		resp, err := fn(ctx, reqPtr.(*Req))
		if err != nil {
			s.notifySent(respTI, NewResponseError[Resp](NewError("%v", err)))
			return nil, err
		}
		ser := NewSerializer()
		if !respTI.Serialize(ser, *resp) {
			encErr := fmt.Errorf("dap: could not encode %s response", command)
			s.notifySent(respTI, NewResponseError[Resp](NewError("%v", encErr)))
			return nil, encErr
		}
		s.notifySent(respTI, NewResponse(resp))
		return ser.Node(), nil
	}
	s.mu.Unlock()
}

// RegisterEventHandler binds an event handler: fn is invoked for
// every incoming event named event, with its body decoded into Evt.
func RegisterEventHandler[Evt any](s *Session, event string, fn func(ctx context.Context, evt *Evt) error) {
	evtTI := TypeOf[Evt]()
	s.mu.Lock()
	s.events[event] = func(ctx context.Context, body *Node) error {
		evtPtr := evtTI.New()
		if !evtTI.Deserialize(NewDeserializer(body), evtPtr) {
			return fmt.Errorf("dap: could not decode %s event body", event)
		}
		return fn(ctx, evtPtr.(*Evt))
	}
	s.mu.Unlock()
}

// RegisterSentHandler registers fn to be called whenever a command
// handler registered for Resp finishes handling an incoming request —
// on success fn sees the response the Session is about to send, on
// failure it sees the Error it is about to send instead. fn runs
// before the reply is written to the transport, and a failure to
// write that reply is not reported to fn. This reports what this
// Session replies to a peer's request, not what it received back for
// its own outgoing Send.
func RegisterSentHandler[Resp any](s *Session, fn func(ResponseOrError[Resp])) {
	ti := TypeOf[Resp]()
	s.sentMu.Lock()
	s.sentObservers[ti] = append(s.sentObservers[ti], func(v any) {
		fn(v.(ResponseOrError[Resp]))
	})
	s.sentMu.Unlock()
}

func (s *Session) notifySent(ti *TypeInfo, v any) {
	s.sentMu.Lock()
	observers := append([]func(any){}, s.sentObservers[ti]...)
	s.sentMu.Unlock()
	for _, obs := range observers {
		obs(v)
	}
}

// Send issues a request named command with payload req and blocks
// until the peer's response arrives, ctx is done, or the session
// closes. It returns ErrReentrantSend if called from within this same
// session's read pump, where waiting for the response would deadlock
// the only goroutine that could ever deliver it.
func Send[Req, Resp any](ctx context.Context, s *Session, command string, req *Req) (*Resp, error) {
	if v, ok := ctx.Value(sendGuardKey{}).(*Session); ok && v == s {
		return nil, ErrReentrantSend
	}

	reqTI := TypeOf[Req]()
	respTI := TypeOf[Resp]()

	ser := NewSerializer()
	if !reqTI.Serialize(ser, *req) {
		return nil, fmt.Errorf("dap: could not encode %s arguments", command)
	}

	seq := s.nextSeq()
	promise, future := NewPromise[*envelope]()
	s.pendingMu.Lock()
	s.pending[seq] = promise
	s.pendingMu.Unlock()

	env := &envelope{
		Seq:       seq,
		Type:      msgRequest,
		Command:   command,
		Arguments: nodeToPayload(ser.Node()),
	}
	if err := s.writeEnvelope(env); err != nil {
		s.pendingMu.Lock()
		delete(s.pending, seq)
		s.pendingMu.Unlock()
		return nil, err
	}

	respEnv, err := future.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if !respEnv.Success {
		return nil, NewError("%s", respEnv.Message)
	}

	bodyNode, err := payloadNode(respEnv.Body)
	if err != nil {
		return nil, fmt.Errorf("dap: malformed %s response body: %w", command, err)
	}
	respPtr := respTI.New()
	if !respTI.Deserialize(NewDeserializer(bodyNode), respPtr) {
		return nil, fmt.Errorf("dap: could not decode %s response", command)
	}
	return respPtr.(*Resp), nil
}

// SendEvent emits an event named event with payload evt. It does not
// block waiting for any acknowledgement — DAP events are fire and
// forget by design.
func SendEvent[Evt any](s *Session, event string, evt *Evt) error {
	ti := TypeOf[Evt]()
	ser := NewSerializer()
	if !ti.Serialize(ser, *evt) {
		return fmt.Errorf("dap: could not encode %s event", event)
	}
	env := &envelope{
		Seq:   s.nextSeq(),
		Type:  msgEvent,
		Event: event,
		Body:  nodeToPayload(ser.Node()),
	}
	return s.writeEnvelope(env)
}
