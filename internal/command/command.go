// internal/command/command.go
// Formatting of outbound protocol lines.
package command

import (
	"fmt"

	"github.com/erilali/showdown/internal/message"
)

// Command is one fully formatted outbound line.
//
// Text is used verbatim: a '\n' or '|' inside it is not escaped and will
// change how the server splits the line.
type Command struct {
	line string
}

// String returns the line as it goes on the wire.
func (c Command) String() string {
	return c.line
}

// Global builds a command that is not scoped to a room, e.g. "join lobby".
func Global(cmd string) Command {
	return Command{line: "|/" + cmd}
}

// Globalf is Global with fmt formatting.
func Globalf(format string, args ...interface{}) Command {
	return Global(fmt.Sprintf(format, args...))
}

// Chat builds a chat message to a room.
func Chat(room message.RoomID, text string) Command {
	return prefixed(room, ' ', text)
}

// RoomCommand builds a command executed in a room.
func RoomCommand(room message.RoomID, cmd string) Command {
	return prefixed(room, '/', cmd)
}

// Broadcast builds a command whose output is shown to the whole room.
func Broadcast(room message.RoomID, cmd string) Command {
	return prefixed(room, '!', cmd)
}

func prefixed(room message.RoomID, prefix byte, text string) Command {
	return Command{line: string(room) + "|" + string(prefix) + text}
}
