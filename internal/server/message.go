package server

import (
	"encoding/json"
	"time"
)

// MessageType names a websocket message.
type MessageType string

// Client → Server
const (
	MessageTypeStart    MessageType = "start"
	MessageTypeCall     MessageType = "call"
	MessageTypeFold     MessageType = "fold"
	MessageTypeSnapshot MessageType = "snapshot"
)

// Server → Client
const (
	MessageTypeState MessageType = "state"
	MessageTypeError MessageType = "error"
)

// ClientMessage is a request from a websocket client.
type ClientMessage struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage creates a new message stamped with now.
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
