// Package server defines the chat event model, its JSON wire format, and the
// frame type delivered by connection transports.
package server

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventKind identifies which of the three chat events an Event carries.
type EventKind int

const (
	EventJoined EventKind = iota + 1
	EventMessage
	EventLeft
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "joined"
	case EventMessage:
		return "message"
	case EventLeft:
		return "left"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a chat event pushed to the Broadcaster. Text is only meaningful
// for EventMessage.
type Event struct {
	Kind     EventKind
	Username string
	Text     string
}

// Joined builds the event announcing that username completed its handshake.
func Joined(username string) Event {
	return Event{Kind: EventJoined, Username: username}
}

// Message builds the event carrying one chat line from username.
func Message(username, text string) Event {
	return Event{Kind: EventMessage, Username: username, Text: text}
}

// Left builds the event announcing that username's session ended.
func Left(username string) Event {
	return Event{Kind: EventLeft, Username: username}
}

type messagePayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type presencePayload struct {
	Username string `json:"username"`
	Left     bool   `json:"left"`
}

// wirePayload is the union of both payload shapes, used for decoding.
type wirePayload struct {
	Username *string `json:"username"`
	Message  *string `json:"message"`
	Left     *bool   `json:"left"`
}

// MarshalJSON encodes the event in its wire shape:
//
//	{"username": "<name>", "message": "<text>"}
//	{"username": "<name>", "left": false}
//	{"username": "<name>", "left": true}
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventMessage:
		return json.Marshal(messagePayload{Username: e.Username, Message: e.Text})
	case EventJoined:
		return json.Marshal(presencePayload{Username: e.Username, Left: false})
	case EventLeft:
		return json.Marshal(presencePayload{Username: e.Username, Left: true})
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrMalformedEvent, e.Kind)
	}
}

// UnmarshalJSON decodes any of the three wire shapes.
func (e *Event) UnmarshalJSON(data []byte) error {
	var p wirePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if p.Username == nil {
		return fmt.Errorf("%w: missing username", ErrMalformedEvent)
	}

	switch {
	case p.Message != nil && p.Left == nil:
		*e = Message(*p.Username, *p.Message)
	case p.Left != nil && p.Message == nil:
		if *p.Left {
			*e = Left(*p.Username)
		} else {
			*e = Joined(*p.Username)
		}
	default:
		return fmt.Errorf("%w: expected exactly one of message or left", ErrMalformedEvent)
	}
	return nil
}

// Encode serializes the event once for fan-out.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses a payload produced by Encode.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := e.UnmarshalJSON(data)
	return e, err
}

// FrameType distinguishes text frames from everything else a transport may
// deliver.
type FrameType int

const (
	TextFrame FrameType = iota + 1
	BinaryFrame
)

// Frame is one discrete inbound message.
type Frame struct {
	Type FrameType
	Data []byte
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
