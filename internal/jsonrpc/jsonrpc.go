// Package jsonrpc holds the minimal JSON-RPC 2.0 wire model the filter
// needs: decode a line into a Message, inspect its shape, and build the
// synthetic responses the filter answers with.
//
// The decoder deliberately does not validate the "jsonrpc" version
// field. Classification keys on method and params only, so a client
// that sends a downlevel or absent version still gets policy applied
// instead of slipping past the filter.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC protocol version stamped on synthetic responses.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

var (
	// ErrInvalidJSON indicates the line is not valid JSON.
	ErrInvalidJSON = errors.New("jsonrpc: invalid JSON")

	// ErrNotObject indicates the line is valid JSON but not an object.
	// The original filter crashed on such lines; we report them as
	// undecodable so the relay forwards them verbatim instead.
	ErrNotObject = errors.New("jsonrpc: message is not an object")
)

// Message is one JSON-RPC 2.0 message: a request (method and id), a
// notification (method, no id), or a response (result or error).
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// MessageType classifies a message by which fields it carries.
type MessageType int

const (
	TypeUnknown MessageType = iota
	TypeRequest
	TypeNotification
	TypeResponse
)

// String returns the lowercase name of the message type.
func (t MessageType) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeNotification:
		return "notification"
	case TypeResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Type reports whether the message is a request, notification, or
// response based on which fields are present.
func (m *Message) Type() MessageType {
	hasMethod := m.Method != ""

	switch {
	case len(m.Result) > 0 || m.Error != nil:
		return TypeResponse
	case hasMethod && m.HasID():
		return TypeRequest
	case hasMethod:
		return TypeNotification
	default:
		return TypeUnknown
	}
}

// HasID reports whether the message carries a usable id: present and
// not the explicit null that marks id-less traffic. Only such ids can
// pair a request with its response.
func (m *Message) HasID() bool {
	return len(m.ID) > 0 && !bytes.Equal(m.ID, []byte("null"))
}

// Decode parses one line into a Message. It accepts any JSON object and
// ignores unknown fields; non-object JSON (null, arrays, bare values)
// returns ErrNotObject so callers can fall back to verbatim forwarding.
func Decode(data []byte) (*Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var msg Message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	return &msg, nil
}

// Encode serializes a message to a single JSON line without a trailing
// newline. Writers own the framing.
func Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

// NewResult builds a success response echoing id. An absent id encodes
// as an explicit null, matching how JSON-RPC error responses handle
// unidentifiable requests.
func NewResult(id json.RawMessage, result any) (*Message, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return &Message{
		JSONRPC: Version,
		ID:      IDOrNull(id),
		Result:  encoded,
	}, nil
}

// NewError builds an error response echoing id, with an explicit null
// when the request had none.
func NewError(id json.RawMessage, code int, message string) *Message {
	return &Message{
		JSONRPC: Version,
		ID:      IDOrNull(id),
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
}

// IDOrNull substitutes an explicit null for an absent id so response
// messages always carry the id field.
func IDOrNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}

	return id
}
