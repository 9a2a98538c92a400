// internal/bot/handlers.go
package bot

import (
	"context"
	"slices"
	"strings"

	"github.com/erilali/showdown/internal/command"
	"github.com/erilali/showdown/internal/message"
)

const yayTrigger = ".yay"

// Handle processes one received frame: it is counted, relayed, and routed
// to the handler for its kind. Only send and login failures are returned.
func (b *Bot) Handle(ctx context.Context, msg *message.Message) error {
	kind := msg.Kind()
	b.metrics.FrameReceived(kind)
	b.relayMessage(msg)

	room := msg.Room()
	switch k := kind.(type) {
	case message.Challenge:
		return b.handleChallenge(ctx, k)
	case message.UpdateUser:
		return b.handleUpdateUser(k)
	case message.Chat:
		return b.handleChat(room, k)
	case message.Private:
		b.logger.LogEvent("debug", "private", string(room), k.From, k.Message)
	case message.RoomInit:
		b.handleRoomInit(room, k)
	case message.NoInit:
		b.logger.LogEvent("warn", "join_failed", string(room), "", k.Kind.String()+" "+k.Reason)
	case message.Unrecognized:
		b.logger.Debugf("Unhandled frame %q", k.Command)
	}
	return nil
}

func (b *Bot) relayMessage(msg *message.Message) {
	if b.relay == nil {
		return
	}
	published, err := b.relay.Publish(msg)
	if published || err != nil {
		b.metrics.Relayed(err)
	}
}

func (b *Bot) handleChallenge(ctx context.Context, challenge message.Challenge) error {
	err := b.auth.LoginWithPassword(ctx, sendFunc(b.send), challenge, b.settings.Username, b.settings.Password)
	if err != nil {
		b.metrics.Login("error")
		b.logger.WithError(err).Error("Login failed")
		return err
	}
	b.metrics.Login("ok")
	return nil
}

// handleUpdateUser joins the configured rooms the first time the server
// confirms a registered name.
func (b *Bot) handleUpdateUser(u message.UpdateUser) error {
	b.mu.Lock()
	wasNamed := b.named
	b.named = u.Named
	b.username = strings.TrimSpace(u.Username)
	b.mu.Unlock()

	if !u.Named || wasNamed {
		return nil
	}
	for _, room := range b.settings.Rooms {
		if err := b.send(command.Global("join " + room)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleChat(room message.RoomID, chat message.Chat) error {
	b.logger.LogEvent("debug", "chat", string(room), chat.User, chat.Message)
	if chat.Message != yayTrigger {
		return nil
	}
	reply := "YAY " + strings.ToUpper(strings.TrimSpace(chat.User)) + "!"
	return b.send(command.Chat(room, reply))
}

func (b *Bot) handleRoomInit(room message.RoomID, init message.RoomInit) {
	b.mu.Lock()
	if !slices.Contains(b.rooms, string(room)) {
		b.rooms = append(b.rooms, string(room))
	}
	b.mu.Unlock()
	b.logger.LogEvent("info", "room_joined", string(room), "", init.Title)
}
