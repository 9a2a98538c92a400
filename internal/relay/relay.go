// internal/relay/relay.go
// Publishes room and private chat traffic to NATS JetStream.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/erilali/showdown/internal/logger"
	"github.com/erilali/showdown/internal/message"
)

const (
	streamName      = "SHOWDOWN"
	streamRetention = 24 * time.Hour
)

// Publisher is the part of nats.JetStreamContext the relay uses.
type Publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Event is the JSON document published for each relayed frame.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Room       string    `json:"room"`
	User       string    `json:"user,omitempty"`
	To         string    `json:"to,omitempty"`
	Text       string    `json:"text,omitempty"`
	SentAt     int64     `json:"sent_at,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Relay turns classified messages into JetStream publications under
// <prefix>.<kind>.<room>.
type Relay struct {
	js     Publisher
	prefix string
	logger *logger.Logger
	close  func()
}

// New wraps an existing publisher.
func New(js Publisher, prefix string, log *logger.Logger) *Relay {
	if prefix == "" {
		prefix = "showdown"
	}
	return &Relay{js: js, prefix: prefix, logger: logger.OrNop(log), close: func() {}}
}

// Connect dials NATS, makes sure the stream exists and returns a relay
// publishing to it.
func Connect(natsURL, prefix string, log *logger.Logger) (*Relay, error) {
	log = logger.OrNop(log)
	log.Infof("Connecting to NATS at %s", natsURL)
	nc, err := nats.Connect(natsURL, nats.Name("showdown-relay"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("JetStream context: %w", err)
	}
	r := New(js, prefix, log)
	if err := EnsureStream(js, r.prefix, log); err != nil {
		nc.Close()
		return nil, err
	}
	r.close = nc.Close
	log.Info("Successfully connected to JetStream")
	return r, nil
}

// EnsureStream creates the relay stream or updates its configuration.
func EnsureStream(js nats.JetStreamManager, prefix string, log *logger.Logger) error {
	cfg := &nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{prefix + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   streamRetention,
	}
	if _, err := js.StreamInfo(cfg.Name); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("stream %s info: %w", cfg.Name, err)
		}
		if _, err := js.AddStream(cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		logger.OrNop(log).Infof("Created stream: %s", cfg.Name)
		return nil
	}
	if _, err := js.UpdateStream(cfg); err != nil {
		return fmt.Errorf("update stream %s: %w", cfg.Name, err)
	}
	logger.OrNop(log).Infof("Updated stream: %s", cfg.Name)
	return nil
}

// Close drops the NATS connection if the relay owns one.
func (r *Relay) Close() {
	r.close()
}

// Publish relays msg if it is a chat, private message, join, leave or
// rename. It reports whether anything was published.
func (r *Relay) Publish(msg *message.Message) (bool, error) {
	ev, ok := toEvent(msg)
	if !ok {
		return false, nil
	}
	ev.ID = uuid.NewString()
	ev.ReceivedAt = time.Now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("marshal relay event: %w", err)
	}
	subject := r.Subject(ev.Kind, ev.Room)
	if _, err := r.js.Publish(subject, data, nats.MsgId(ev.ID)); err != nil {
		r.logger.Errorf("Failed to publish to %s: %v", subject, err)
		return false, fmt.Errorf("publish %s: %w", subject, err)
	}
	return true, nil
}

// Subject builds <prefix>.<kind>.<room>, replacing characters NATS treats
// as separators or wildcards.
func (r *Relay) Subject(kind, room string) string {
	if room == "" {
		room = "_"
	}
	return r.prefix + "." + kind + "." + subjectToken.Replace(room)
}

var subjectToken = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

func toEvent(msg *message.Message) (Event, bool) {
	room := string(msg.Room())
	switch k := msg.Kind().(type) {
	case message.Chat:
		ev := Event{Kind: "chat", Room: room, User: k.User, Text: k.Message}
		if ts, err := k.Time(); err == nil {
			ev.SentAt = ts.Unix()
		}
		return ev, true
	case message.Private:
		return Event{Kind: "pm", Room: room, User: k.From, To: k.To, Text: k.Message}, true
	case message.Join:
		return Event{Kind: "join", Room: room, User: k.User}, true
	case message.Leave:
		return Event{Kind: "leave", Room: room, User: k.User}, true
	case message.NicknameChange:
		return Event{Kind: "rename", Room: room, User: k.New, Text: k.Old}, true
	}
	return Event{}, false
}
