// Package envelope is the frame carried on the event bus and the WebSocket.
package envelope

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope addresses a single user when UserID is set; otherwise it is
// meant for every connection.
type Envelope struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Service   string          `json:"service"`
	UserID    string          `json:"user_id,omitempty"`
	ReplyTo   string          `json:"reply_to,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *ErrorPayload   `json:"error,omitempty"`
	Timestamp int64           `json:"ts"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func New(action, service string) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Action:    action,
		Service:   service,
		Timestamp: time.Now().UnixMilli(),
	}
}

func NewReply(original Envelope, data any) (Envelope, error) {
	e := New(original.Action+".result", original.Service)
	e.ReplyTo = original.ID
	e.UserID = original.UserID
	return e.withData(data)
}

// NewUserEvent is an event delivered only to userID's connections.
func NewUserEvent(action, service, userID string, data any) (Envelope, error) {
	e := New(action, service)
	e.UserID = userID
	return e.withData(data)
}

func NewError(original Envelope, code, message string) Envelope {
	e := New(original.Action+".error", original.Service)
	e.ReplyTo = original.ID
	e.UserID = original.UserID
	e.Error = &ErrorPayload{Code: code, Message: message}
	return e
}

func (e Envelope) withData(data any) (Envelope, error) {
	if data == nil {
		return e, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return e, err
	}
	e.Data = raw
	return e, nil
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(data, &e)
	return e, err
}

func ParseData[T any](e Envelope) (T, error) {
	var v T
	err := json.Unmarshal(e.Data, &v)
	return v, err
}
