// internal/stream/stream.go
// Websocket transport for the protocol: whole text frames in, formatted commands out.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/erilali/showdown/internal/command"
	"github.com/erilali/showdown/internal/directory"
	"github.com/erilali/showdown/internal/logger"
	"github.com/erilali/showdown/internal/message"
)

const closeWriteDeadline = 5 * time.Second

// ErrUnexpectedFrame is wrapped when the server sends a data frame that is not text.
var ErrUnexpectedFrame = errors.New("unexpected websocket frame")

// TransportError is a failure of the websocket itself.
type TransportError struct {
	Op  string // dial, send, flush, read, close
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("websocket %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type options struct {
	dialer   *websocket.Dialer
	header   http.Header
	resolver *directory.Resolver
	logger   *logger.Logger
}

// Option configures Connect and ConnectURL.
type Option func(*options)

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithResolver sets the directory used by Connect.
func WithResolver(r *directory.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithLogger sets the connection logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Conn is one protocol connection. It is owned by a single caller: Send
// and Receive must not be called concurrently with themselves.
type Conn struct {
	ws     *websocket.Conn
	logger *logger.Logger
	done   bool
}

// Connect resolves a named server through the directory and connects to it.
func Connect(ctx context.Context, name string, opts ...Option) (*Conn, error) {
	o := buildOptions(opts)
	resolver := o.resolver
	if resolver == nil {
		resolver = &directory.Resolver{Logger: o.logger}
	}
	u, err := resolver.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return dial(ctx, u, o)
}

// ConnectURL connects to a websocket URL directly.
func ConnectURL(ctx context.Context, u *url.URL, opts ...Option) (*Conn, error) {
	return dial(ctx, u, buildOptions(opts))
}

func buildOptions(opts []Option) options {
	o := options{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logger.OrNop(o.logger)
	return o
}

func dial(ctx context.Context, u *url.URL, o options) (*Conn, error) {
	ws, resp, err := o.dialer.DialContext(ctx, u.String(), o.header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %s)", err, resp.Status)
		}
		return nil, &TransportError{Op: "dial", Err: err}
	}
	log := o.logger.WithField("url", u.String())
	log.Debug("Connected")
	return &Conn{ws: ws, logger: log}, nil
}

// Send writes one command as a single text frame and flushes it.
func (c *Conn) Send(cmd command.Command) error {
	w, err := c.ws.NextWriter(websocket.TextMessage)
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	if _, err := io.WriteString(w, cmd.String()); err != nil {
		w.Close()
		return &TransportError{Op: "send", Err: err}
	}
	if err := w.Close(); err != nil {
		return &TransportError{Op: "flush", Err: err}
	}
	c.logger.Debugf("Sent %q", cmd.String())
	return nil
}

// Receive returns the next text frame. It returns io.EOF once the stream
// has ended. A normal-closure close frame is not an error; any other
// non-text frame is reported once as a *TransportError, after which
// Receive keeps returning io.EOF.
func (c *Conn) Receive() (*message.Message, error) {
	for !c.done {
		frameType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.done = true
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				// Nothing follows a close frame; the next poll sees end of stream.
				c.logger.Debugf("Server closed connection: %q", closeErr.Text)
				continue
			}
			return nil, &TransportError{Op: "read", Err: err}
		}
		if frameType != websocket.TextMessage {
			c.done = true
			return nil, &TransportError{Op: "read", Err: fmt.Errorf("%w: type %d", ErrUnexpectedFrame, frameType)}
		}
		return message.New(string(data)), nil
	}
	return nil, io.EOF
}

// Messages returns a single-use sequence over Receive. It stops at end of
// stream and after yielding the first error.
func (c *Conn) Messages() iter.Seq2[*message.Message, error] {
	return func(yield func(*message.Message, error) bool) {
		for {
			msg, err := c.Receive()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(msg, err) || err != nil {
				return
			}
		}
	}
}

// SetReadDeadline bounds the next Receive.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// SetWriteDeadline bounds the next Send.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

// Interrupt closes the socket without a close handshake. It may be called
// while another goroutine is blocked in Receive, which then fails with a
// *TransportError. Close must still be called afterwards.
func (c *Conn) Interrupt() error {
	return c.ws.Close()
}

// Close sends a normal-closure frame and closes the socket.
func (c *Conn) Close() error {
	c.done = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	writeErr := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteDeadline))
	if err := c.ws.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	if writeErr != nil && !errors.Is(writeErr, websocket.ErrCloseSent) {
		return &TransportError{Op: "close", Err: writeErr}
	}
	return nil
}
