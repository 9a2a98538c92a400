// internal/message/roominit.go
package message

import "strings"

// RoomType is the first line of an init block.
type RoomType int

const (
	RoomTypeChat RoomType = iota
	RoomTypeBattle
)

func (t RoomType) String() string {
	switch t {
	case RoomTypeChat:
		return "chat"
	case RoomTypeBattle:
		return "battle"
	}
	return "unknown"
}

// RoomInit is sent once after joining a room (init).
type RoomInit struct {
	Type  RoomType
	Title string
	Users string
}

func parseRoomInit(args string) (Kind, bool) {
	lines := strings.Split(args, "\n")
	var init RoomInit
	switch lines[0] {
	case "chat":
		init.Type = RoomTypeChat
	case "battle":
		init.Type = RoomTypeBattle
	default:
		return nil, false
	}

	var hasTitle, hasUsers bool
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		field, ok := strings.CutPrefix(line, "|")
		if !ok {
			return nil, false
		}
		key, value := split2(field)
		switch key {
		case "title":
			init.Title, hasTitle = value, true
		case "users":
			init.Users, hasUsers = value, true
		}
	}
	if !hasTitle || !hasUsers {
		return nil, false
	}
	return init, true
}

// NoInitKind says why a room could not be joined.
type NoInitKind int

const (
	NoInitNonexistent NoInitKind = iota
	NoInitJoinFailed
	NoInitNameRequired
)

var noInitKinds = map[string]NoInitKind{
	"nonexistent":  NoInitNonexistent,
	"joinfailed":   NoInitJoinFailed,
	"namerequired": NoInitNameRequired,
}

func (k NoInitKind) String() string {
	for name, kind := range noInitKinds {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// NoInit reports a failed room join (noinit).
type NoInit struct {
	Kind   NoInitKind
	Reason string
}

func parseNoInit(args string) (Kind, bool) {
	name, reason := split2(args)
	kind, ok := noInitKinds[name]
	if !ok {
		return nil, false
	}
	return NoInit{Kind: kind, Reason: reason}, true
}
