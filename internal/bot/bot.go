// internal/bot/bot.go
// Provides the Bot: reads classified frames from one connection and routes them to handlers.
package bot

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/erilali/showdown/internal/auth"
	"github.com/erilali/showdown/internal/command"
	"github.com/erilali/showdown/internal/logger"
	"github.com/erilali/showdown/internal/message"
	"github.com/erilali/showdown/internal/metrics"
)

// Conn is the connection the bot drives. *stream.Conn satisfies it.
type Conn interface {
	Send(cmd command.Command) error
	Receive() (*message.Message, error)
	// Interrupt unblocks a pending Receive from another goroutine.
	Interrupt() error
	Close() error
}

// Authenticator completes the login handshake. *auth.Client satisfies it.
type Authenticator interface {
	LoginWithPassword(ctx context.Context, sender auth.Sender, challenge message.Challenge, login, password string) error
}

// Relay forwards traffic elsewhere. *relay.Relay satisfies it.
type Relay interface {
	Publish(msg *message.Message) (bool, error)
}

// Settings is what the bot logs in as and where it goes afterwards.
type Settings struct {
	Username string
	Password string
	Rooms    []string
}

// Status is a snapshot of the bot for health reporting.
type Status struct {
	Connected bool     `json:"connected"`
	Named     bool     `json:"named"`
	Username  string   `json:"username,omitempty"`
	Rooms     []string `json:"rooms"`
	Relay     bool     `json:"relay"`
}

// Bot owns one connection for the duration of Run.
type Bot struct {
	conn     Conn
	auth     Authenticator
	relay    Relay
	metrics  *metrics.Metrics
	logger   *logger.Logger
	settings Settings

	mu        sync.Mutex
	connected bool
	named     bool
	username  string
	rooms     []string
}

// Option configures a Bot.
type Option func(*Bot)

// WithRelay publishes every received frame through r.
func WithRelay(r Relay) Option {
	return func(b *Bot) { b.relay = r }
}

// WithMetrics records into m instead of a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// WithLogger sets the bot logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// New creates a bot around an open connection.
func New(conn Conn, authenticator Authenticator, settings Settings, opts ...Option) *Bot {
	b := &Bot{
		conn:      conn,
		auth:      authenticator,
		settings:  settings,
		connected: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	b.logger = logger.OrNop(b.logger)
	b.metrics.SetConnected(true)
	return b
}

// Run reads frames until the server ends the stream, a handler fails or
// ctx is cancelled. A clean end of stream returns nil. The connection is
// closed when Run returns.
func (b *Bot) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = b.conn.Interrupt()
		case <-stop:
		}
	}()
	defer b.disconnect()

	for {
		msg, err := b.conn.Receive()
		if errors.Is(err, io.EOF) {
			b.logger.Info("Server ended the stream")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.LogEvent("error", "read_error", "", "", err.Error())
			return err
		}
		if err := b.Handle(ctx, msg); err != nil {
			return err
		}
	}
}

func (b *Bot) disconnect() {
	if err := b.conn.Close(); err != nil {
		b.logger.Debugf("Close: %v", err)
	}
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	b.metrics.SetConnected(false)
}

// Status returns a snapshot safe to read from other goroutines.
func (b *Bot) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Connected: b.connected,
		Named:     b.named,
		Username:  b.username,
		Rooms:     append([]string{}, b.rooms...),
		Relay:     b.relay != nil,
	}
}

// Metrics returns the collectors the bot records into.
func (b *Bot) Metrics() *metrics.Metrics {
	return b.metrics
}

type sendFunc func(cmd command.Command) error

func (f sendFunc) Send(cmd command.Command) error { return f(cmd) }

func (b *Bot) send(cmd command.Command) error {
	err := b.conn.Send(cmd)
	b.metrics.CommandSent(err)
	return err
}
