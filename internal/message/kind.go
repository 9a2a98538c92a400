// internal/message/kind.go
package message

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the closed set of classified events. Switch on the concrete type:
//
//	switch k := msg.Kind().(type) {
//	case message.Chat:
//	case message.Challenge:
//	}
type Kind interface {
	isKind()
}

// Chat is a timestamped room chat line (c:).
type Chat struct {
	UnixTime string
	User     string
	Message  string
}

// Time decodes the Unix-seconds timestamp into UTC.
func (c Chat) Time() (time.Time, error) {
	secs, err := strconv.ParseInt(c.UnixTime, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("chat timestamp %q: %w", c.UnixTime, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Private is a private message (pm).
type Private struct {
	From    string
	To      string
	Message string
}

// Join is a user entering the room (J).
type Join struct {
	User string
}

// Leave is a user leaving the room (L).
type Leave struct {
	User string
}

// NicknameChange is a user renaming (N).
type NicknameChange struct {
	Old string
	New string
}

// Challenge is the login challenge string (challstr). Presenting it to the
// login server is what yields an assertion for this connection.
type Challenge string

func (c Challenge) String() string { return string(c) }

// HTML is a raw HTML box (html).
type HTML struct {
	Content string
}

// Unrecognized carries anything the classifier could not type. Command and
// Args are empty when the body was not a command line at all.
type Unrecognized struct {
	Command string
	Args    string
	Raw     string
}

func (Chat) isKind()           {}
func (Private) isKind()        {}
func (Join) isKind()           {}
func (Leave) isKind()          {}
func (NicknameChange) isKind() {}
func (Challenge) isKind()      {}
func (HTML) isKind()           {}
func (NoInit) isKind()         {}
func (RoomInit) isKind()       {}
func (QueryResponse) isKind()  {}
func (UpdateUser) isKind()     {}
func (Unrecognized) isKind()   {}

// parseKind dispatches on the command code. ok is false for unknown codes
// and for arguments that fail the command's sub-format.
func parseKind(command, args string) (Kind, bool) {
	switch command {
	case "c:":
		return parseChat(args)
	case "pm":
		return parsePrivate(args)
	case "J":
		return Join{User: args}, true
	case "N":
		old, renamed, ok := strings.Cut(args, "|")
		if !ok {
			return nil, false
		}
		return NicknameChange{Old: old, New: renamed}, true
	case "L":
		return Leave{User: args}, true
	case "challstr":
		return Challenge(args), true
	case "html":
		return HTML{Content: args}, true
	case "init":
		return parseRoomInit(args)
	case "noinit":
		return parseNoInit(args)
	case "queryresponse":
		return parseQueryResponse(args)
	case "updateuser":
		return parseUpdateUser(args)
	}
	return nil, false
}

// cut3 splits into two leading fields and a remainder that keeps any
// further '|' verbatim.
func cut3(args string) (string, string, string, bool) {
	first, rest, ok := strings.Cut(args, "|")
	if !ok {
		return "", "", "", false
	}
	second, text, ok := strings.Cut(rest, "|")
	if !ok {
		return "", "", "", false
	}
	text, _ = strings.CutSuffix(text, "\n")
	return first, second, text, true
}

func parseChat(args string) (Kind, bool) {
	stamp, user, text, ok := cut3(args)
	if !ok {
		return nil, false
	}
	return Chat{UnixTime: stamp, User: user, Message: text}, true
}

func parsePrivate(args string) (Kind, bool) {
	from, to, text, ok := cut3(args)
	if !ok {
		return nil, false
	}
	return Private{From: from, To: to, Message: text}, true
}
