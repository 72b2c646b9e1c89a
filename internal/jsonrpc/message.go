package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// MessageType represents the type of JSON-RPC message
type MessageType string

const (
	MessageTypeRequest      MessageType = "request"
	MessageTypeResponse     MessageType = "response"
	MessageTypeNotification MessageType = "notification"
	MessageTypeError        MessageType = "error"
)

// Direction represents the direction of message flow
type Direction string

const (
	DirectionInbound  Direction = "inbound"  // From editor to server
	DirectionOutbound Direction = "outbound" // From server to editor
)

// Message is a classified JSON-RPC 2.0 message body
type Message struct {
	msgType   MessageType
	method    string
	size      int
	requestID *json.RawMessage
	errorInfo *ErrorInfo
}

// ErrorInfo contains details about JSON-RPC errors
type ErrorInfo struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewJSONRPCMessageFromRaw classifies a raw message body
func NewJSONRPCMessageFromRaw(rawData []byte) (*Message, error) {
	var baseMsg struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method,omitempty"`
		ID      json.RawMessage `json:"id,omitempty"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   *ErrorInfo      `json:"error,omitempty"`
	}

	if err := json.Unmarshal(rawData, &baseMsg); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC message: %w", err)
	}

	if baseMsg.JSONRPC != "2.0" {
		return nil, fmt.Errorf("unsupported JSON-RPC version: %q", baseMsg.JSONRPC)
	}

	msg := &Message{size: len(rawData)}
	if len(baseMsg.ID) > 0 && string(baseMsg.ID) != "null" {
		id := baseMsg.ID
		msg.requestID = &id
	}

	switch {
	case baseMsg.Error != nil:
		msg.msgType = MessageTypeError
		msg.errorInfo = baseMsg.Error
	case baseMsg.Method != "":
		msg.method = baseMsg.Method
		if msg.requestID != nil {
			msg.msgType = MessageTypeRequest
		} else {
			msg.msgType = MessageTypeNotification
		}
	case baseMsg.Result != nil || msg.requestID != nil:
		msg.msgType = MessageTypeResponse
	default:
		return nil, fmt.Errorf("cannot determine JSON-RPC message type")
	}

	return msg, nil
}

// Type returns the message type
func (m *Message) Type() MessageType {
	return m.msgType
}

// Method returns the JSON-RPC method name
func (m *Message) Method() string {
	return m.method
}

// RequestID returns the JSON-RPC id, or nil for notifications
func (m *Message) RequestID() *json.RawMessage {
	if m.requestID == nil {
		return nil
	}
	id := append(json.RawMessage(nil), *m.requestID...)
	return &id
}

// ErrorInfo returns error details for error messages
func (m *Message) ErrorInfo() *ErrorInfo {
	return m.errorInfo
}

// IsExit reports whether this is the LSP exit notification, after which
// the server is expected to terminate
func (m *Message) IsExit() bool {
	return m.msgType == MessageTypeNotification && m.method == "exit"
}

// Size returns the size of the message body in bytes
func (m *Message) Size() int {
	return m.size
}
