// Package envelope resolves the shape a thumbnail request arrives in.
//
// The same function sits behind API Gateway (payload is a JSON string in
// "body"), Step Functions (payload in "Input") and direct invocation (payload
// is the event). Resolve inspects which fields are present and returns one
// Envelope with its Kind set; callers never probe fields themselves.
package envelope

import (
	"bytes"
	"encoding/json"
)

// Kind identifies how the request object was found.
type Kind int

const (
	// KindDirect means the event itself is the request object.
	KindDirect Kind = iota
	// KindHTTP means the request object was parsed from a string "body".
	KindHTTP
	// KindOrchestrator means the request object is the value of "Input".
	KindOrchestrator
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindOrchestrator:
		return "orchestrator"
	default:
		return "direct"
	}
}

// Envelope is a resolved invocation payload.
type Envelope struct {
	Kind    Kind
	raw     json.RawMessage
	payload json.RawMessage
}

// Request is a validated thumbnail request.
type Request struct {
	Bucket string
	Key    string
}

// ParseError reports a "body" string that is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "Invalid JSON body: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Resolve determines the envelope kind of raw and extracts the request object.
// Only a string-valued "body" selects KindHTTP; a body holding an object, a
// number or null falls through to the Input/direct checks.
func Resolve(raw json.RawMessage) (Envelope, error) {
	raw = bytes.TrimSpace(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Envelope{Kind: KindDirect, raw: raw, payload: raw}, nil
	}

	if body, ok := fields["body"]; ok && isJSONString(body) {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return Envelope{Kind: KindHTTP, raw: raw}, &ParseError{Err: err}
		}
		var payload json.RawMessage
		if err := json.Unmarshal([]byte(s), &payload); err != nil {
			return Envelope{Kind: KindHTTP, raw: raw}, &ParseError{Err: err}
		}
		return Envelope{Kind: KindHTTP, raw: raw, payload: payload}, nil
	}

	if input, ok := fields["Input"]; ok {
		return Envelope{Kind: KindOrchestrator, raw: raw, payload: input}, nil
	}

	return Envelope{Kind: KindDirect, raw: raw, payload: raw}, nil
}

func isJSONString(v json.RawMessage) bool {
	return len(v) > 0 && v[0] == '"'
}

// Raw returns the envelope exactly as received.
func (e Envelope) Raw() json.RawMessage {
	return e.raw
}

// Payload returns the resolved request object.
func (e Envelope) Payload() json.RawMessage {
	return e.payload
}

// Request extracts bucket and key from the request object. Both must be
// non-empty JSON strings; anything else reports ok == false.
func (e Envelope) Request() (Request, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.payload, &fields); err != nil || fields == nil {
		return Request{}, false
	}

	bucket, okBucket := stringField(fields, "bucket")
	key, okKey := stringField(fields, "key")
	if !okBucket || !okKey {
		return Request{}, false
	}
	return Request{Bucket: bucket, Key: key}, true
}

func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	v, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
