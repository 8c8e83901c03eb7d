package dap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type greetRequest struct {
	Name string
}

type greetResponse struct {
	Text string
}

type progressBody struct {
	Percent int64
}

var registerSessionTestTypesOnce sync.Once

func registerSessionTestTypes() {
	registerSessionTestTypesOnce.Do(func() {
		RegisterStruct[greetRequest]("greetRequest",
			Field{Name: "name", Type: TypeOf[string](), Get: func(p any) any { return p.(*greetRequest).Name }, Set: func(p any, v any) { p.(*greetRequest).Name = *(v.(*string)) }},
		)
		RegisterStruct[greetResponse]("greetResponse",
			Field{Name: "text", Type: TypeOf[string](), Get: func(p any) any { return p.(*greetResponse).Text }, Set: func(p any, v any) { p.(*greetResponse).Text = *(v.(*string)) }},
		)
		RegisterStruct[progressBody]("progressBody",
			Field{Name: "percent", Type: TypeOf[int64](), Get: func(p any) any { return p.(*progressBody).Percent }, Set: func(p any, v any) { p.(*progressBody).Percent = *(v.(*int64)) }},
		)
	})
}

func newConnectedSessions(t *testing.T, clientOpts, serverOpts []SessionOption) (client, server *Session) {
	t.Helper()
	a, b := Pipe()
	client = NewSession(clientOpts...)
	server = NewSession(serverOpts...)
	if err := client.Bind(a); err != nil {
		t.Fatalf("client.Bind: %v", err)
	}
	if err := server.Bind(b); err != nil {
		t.Fatalf("server.Bind: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestSessionRequestResponse(t *testing.T) {
	registerSessionTestTypes()

	client, server := newConnectedSessions(t, nil, nil)
	RegisterHandler(server, "greet", func(ctx context.Context, req *greetRequest) (*greetResponse, error) {
		return &greetResponse{Text: "Hello, " + req.Name}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := Send[greetRequest, greetResponse](ctx, client, "greet", &greetRequest{Name: "Ada"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Text != "Hello, Ada" {
		t.Errorf("got %q, want %q", resp.Text, "Hello, Ada")
	}
}

func TestSessionEvent(t *testing.T) {
	registerSessionTestTypes()

	client, server := newConnectedSessions(t, nil, nil)

	received := make(chan int64, 1)
	RegisterEventHandler(client, "progress", func(ctx context.Context, body *progressBody) error {
		received <- body.Percent
		return nil
	})

	if err := SendEvent(server, "progress", &progressBody{Percent: 50}); err != nil {
		t.Fatalf("SendEvent: %v", err)
	}

	select {
	case pct := <-received:
		if pct != 50 {
			t.Errorf("got %d, want 50", pct)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSessionUnknownCommandFailsAndReportsError(t *testing.T) {
	registerSessionTestTypes()

	var reported []string
	var mu sync.Mutex
	client, server := newConnectedSessions(t, nil, []SessionOption{
		WithErrorHandler(func(msg string) {
			mu.Lock()
			reported = append(reported, msg)
			mu.Unlock()
		}),
	})
	_ = server

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Send[greetRequest, greetResponse](ctx, client, "nonexistent", &greetRequest{Name: "Ada"})
	if err == nil {
		t.Fatalf("expected an error for an unregistered command")
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(reported)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("server never reported the unhandled command")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSessionReentrantSendFailsFast(t *testing.T) {
	registerSessionTestTypes()

	client, server := newConnectedSessions(t, nil, nil)

	reentrantErr := make(chan error, 1)
	RegisterHandler(server, "greet", func(ctx context.Context, req *greetRequest) (*greetResponse, error) {
		_, err := Send[greetRequest, greetResponse](ctx, server, "greet", req)
		reentrantErr <- err
		return &greetResponse{Text: "ok"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Send[greetRequest, greetResponse](ctx, client, "greet", &greetRequest{Name: "Ada"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case err := <-reentrantErr:
		if !errors.Is(err, ErrReentrantSend) {
			t.Errorf("got %v, want %v", err, ErrReentrantSend)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never attempted the reentrant send")
	}
}

// TestRegisterSentHandlerSeesBothOutcomes checks that a sent-handler
// observer registered for greetResponse is notified both when a
// command handler succeeds and when it fails — the observer watches
// what the session actually put on the wire in reply to a peer's
// request, not what it later receives for its own outgoing Send.
func TestRegisterSentHandlerSeesBothOutcomes(t *testing.T) {
	registerSessionTestTypes()

	client, server := newConnectedSessions(t, nil, nil)

	var failNext atomic.Bool
	RegisterHandler(server, "greet", func(ctx context.Context, req *greetRequest) (*greetResponse, error) {
		if failNext.Load() {
			return nil, errors.New("boom")
		}
		return &greetResponse{Text: "Hello, " + req.Name}, nil
	})

	seen := make(chan ResponseOrError[greetResponse], 2)
	RegisterSentHandler(server, func(r ResponseOrError[greetResponse]) {
		seen <- r
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Send[greetRequest, greetResponse](ctx, client, "greet", &greetRequest{Name: "Ada"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case r := <-seen:
		resp, ok := r.Response()
		if !ok || resp.Text != "Hello, Ada" {
			t.Errorf("got %+v, ok=%v, want a successful greetResponse", r, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sent-handler was never notified of the successful response")
	}

	failNext.Store(true)
	if _, err := Send[greetRequest, greetResponse](ctx, client, "greet", &greetRequest{Name: "Ada"}); err == nil {
		t.Fatalf("expected the second greet to fail")
	}
	select {
	case r := <-seen:
		if !r.Failed() {
			t.Errorf("got %+v, want a failed result", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sent-handler was never notified of the failed response")
	}
}

// TestCloseBeforeBindReturnsImmediately guards against Close blocking
// forever on a Session that was constructed but never Bind-ed: with
// no readPump running, doneCh never closes, so Close must not wait on
// it for an unbound session.
func TestCloseBeforeBindReturnsImmediately(t *testing.T) {
	s := NewSession()

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close never returned for an unbound session")
	}
}

// TestBindTwiceReportsSessionError checks that the second Bind call
// on an already-bound Session surfaces a *SessionError that still
// unwraps to ErrAlreadyBound, per the errors.Is contract used
// elsewhere in this package.
func TestBindTwiceReportsSessionError(t *testing.T) {
	a, _ := Pipe()
	s := NewSession()
	if err := s.Bind(a); err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	defer s.Close()

	err := s.Bind(a)
	if err == nil {
		t.Fatalf("expected an error from a second Bind call")
	}
	if !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("got %v, want an error wrapping %v", err, ErrAlreadyBound)
	}
	var sessErr *SessionError
	if !errors.As(err, &sessErr) {
		t.Errorf("got %v (%T), want a *SessionError", err, err)
	}
}

func TestSessionCloseUnblocksPendingSend(t *testing.T) {
	registerSessionTestTypes()

	client, server := newConnectedSessions(t, nil, nil)
	// No handler registered for "greet" on the server's peer in this
	// test; instead we close the client out from under its own
	// in-flight Send to exercise ErrSessionClosed delivery.
	RegisterHandler(server, "slow", func(ctx context.Context, req *greetRequest) (*greetResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	done := make(chan error, 1)
	go func() {
		_, err := Send[greetRequest, greetResponse](context.Background(), client, "slow", &greetRequest{Name: "Ada"})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	client.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("got %v, want %v", err, ErrSessionClosed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send never returned after Close")
	}
}
