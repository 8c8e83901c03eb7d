package dap

import (
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// messageType discriminates the three DAP envelope shapes: requests
// flow peer-to-peer and expect a response; responses correlate back
// to a request by sequence number; events carry no correlation and
// expect no response.
type messageType string

const (
	msgRequest  messageType = "request"
	msgResponse messageType = "response"
	msgEvent    messageType = "event"
)

// envelope is the outer shape every DAP message shares on the wire.
// Arguments and Body are captured as raw, still-encoded JSON
// (jsontext.Value is just a []byte alias) rather than decoded
// eagerly: the envelope doesn't know the registered TypeInfo for a
// command's payload until Session looks up the handler by name, so
// decoding is deferred to that point.
type envelope struct {
	Seq        int64          `json:"seq"`
	Type       messageType    `json:"type"`
	Command    string         `json:"command,omitempty"`
	Event      string         `json:"event,omitempty"`
	RequestSeq int64          `json:"request_seq,omitempty"`
	Success    bool           `json:"success,omitempty"`
	Message    string         `json:"message,omitempty"`
	Arguments  jsontext.Value `json:"arguments,omitempty"`
	Body       jsontext.Value `json:"body,omitempty"`
}

func encodeEnvelope(e *envelope) (*Node, error) {
	raw, err := jsonv2.Marshal(e)
	if err != nil {
		return nil, err
	}
	return parseNode(raw)
}

func decodeEnvelope(n *Node) (*envelope, error) {
	var e envelope
	if err := jsonv2.Unmarshal(n.Bytes(), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// payloadNode parses a captured jsontext.Value payload (Arguments or
// Body) into our mutable Node tree, returning a null Node if the
// payload was omitted entirely (the common case for a command with
// no arguments, or a response with no body).
func payloadNode(raw jsontext.Value) (*Node, error) {
	if len(raw) == 0 {
		return newNullNode(), nil
	}
	return parseNode(raw)
}

func nodeToPayload(n *Node) jsontext.Value {
	if n == nil || n.kind == kindNull {
		return nil
	}
	return jsontext.Value(n.Bytes())
}
