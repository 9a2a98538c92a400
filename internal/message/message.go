// internal/message/message.go
// Received protocol frames: room envelope handling and classification into typed kinds.
package message

import "strings"

// RoomID names the room a frame is scoped to.
type RoomID string

// Lobby is the room used for frames that carry no envelope.
const Lobby RoomID = "lobby"

// Message owns a single received frame.
//
// Every string returned by Room, Body and the Kind values is a substring of
// the frame, so classification does not copy frame text. Only decoded JSON
// payloads (room lists) own their strings.
type Message struct {
	raw string
}

// New wraps one received text frame.
func New(raw string) *Message {
	return &Message{raw: raw}
}

// Raw returns the frame exactly as received.
func (m *Message) Raw() string {
	return m.raw
}

func (m *Message) parts() (RoomID, string) {
	rest, ok := strings.CutPrefix(m.raw, ">")
	if !ok {
		return Lobby, m.raw
	}
	room, body, _ := strings.Cut(rest, "\n")
	return RoomID(room), body
}

// Room returns the envelope room, or Lobby when the frame has none.
func (m *Message) Room() RoomID {
	room, _ := m.parts()
	return room
}

// Body returns the frame with the envelope line removed.
func (m *Message) Body() string {
	_, body := m.parts()
	return body
}

// Kind classifies the frame body. It never fails: bodies that are not
// command lines, unknown commands and malformed arguments all come back as
// Unrecognized. The result is recomputed on every call.
func (m *Message) Kind() Kind {
	return Classify(m.Body())
}

// Classify turns a frame body (no envelope) into a Kind.
func Classify(body string) Kind {
	line, ok := strings.CutPrefix(body, "|")
	if !ok {
		return Unrecognized{Raw: body}
	}
	command, args := split2(line)
	if kind, ok := parseKind(command, args); ok {
		return kind
	}
	return Unrecognized{Command: command, Args: args, Raw: body}
}

// split2 splits at the first '|'. A missing separator gives an empty tail.
func split2(s string) (string, string) {
	head, tail, _ := strings.Cut(s, "|")
	return head, tail
}
