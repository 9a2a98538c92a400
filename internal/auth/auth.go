// internal/auth/auth.go
// Login handshake: exchanges a server challenge for an assertion and sends it back as /trn.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/erilali/showdown/internal/command"
	"github.com/erilali/showdown/internal/logger"
	"github.com/erilali/showdown/internal/message"
)

// DefaultLoginURL is the login server's action endpoint.
const DefaultLoginURL = "https://play.pokemonshowdown.com/action.php"

// passwordRequired is the whole getassertion body for registered names.
const passwordRequired = ";"

// ErrLoginRejected is wrapped when the login server answers with an error
// string instead of an assertion.
var ErrLoginRejected = errors.New("login rejected")

// Error is a failed exchange with the login server.
type Error struct {
	Op  string // getassertion or login
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("login server %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Sender delivers the final /trn command. *stream.Conn satisfies it.
type Sender interface {
	Send(cmd command.Command) error
}

// Client talks to the login server. The zero value uses http.DefaultClient
// and DefaultLoginURL.
type Client struct {
	HTTPClient *http.Client
	LoginURL   string
	Logger     *logger.Logger
}

// PasswordRequired is returned by Login when the name is registered. It
// keeps the challenge, name and sender so the handshake can be resumed
// with a password. Dropping it abandons the login.
type PasswordRequired struct {
	client    *Client
	challenge message.Challenge
	login     string
	sender    Sender
}

// Name is the login name awaiting a password.
func (p *PasswordRequired) Name() string { return p.login }

// LoginWithPassword finishes the handshake started by Login.
func (p *PasswordRequired) LoginWithPassword(ctx context.Context, password string) error {
	return p.client.LoginWithPassword(ctx, p.sender, p.challenge, p.login, password)
}

// Login asks for an assertion without a password. Unregistered names are
// logged in immediately and Login returns nil, nil; registered names return
// a *PasswordRequired.
func (c *Client) Login(ctx context.Context, sender Sender, challenge message.Challenge, login string) (*PasswordRequired, error) {
	body, err := c.post(ctx, "getassertion", url.Values{
		"act":      {"getassertion"},
		"userid":   {login},
		"challstr": {challenge.String()},
	})
	if err != nil {
		return nil, err
	}
	assertion := string(body)
	if assertion == passwordRequired {
		c.log().WithField("user", login).Debug("Password required")
		return &PasswordRequired{client: c, challenge: challenge, login: login, sender: sender}, nil
	}
	if err := checkAssertion("getassertion", assertion); err != nil {
		return nil, err
	}
	return nil, c.rename(sender, login, assertion)
}

type loginResponse struct {
	Assertion string `json:"assertion"`
}

// LoginWithPassword logs in a registered name. An empty password falls
// back to Login; if the name then turns out to need a password the
// pending state is discarded.
func (c *Client) LoginWithPassword(ctx context.Context, sender Sender, challenge message.Challenge, login, password string) error {
	if password == "" {
		_, err := c.Login(ctx, sender, challenge, login)
		return err
	}
	body, err := c.post(ctx, "login", url.Values{
		"act":      {"login"},
		"name":     {login},
		"pass":     {password},
		"challstr": {challenge.String()},
	})
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return &Error{Op: "login", Err: errors.New("empty response")}
	}
	// The body starts with a one byte marker before the JSON document.
	var resp loginResponse
	if err := json.Unmarshal(body[1:], &resp); err != nil {
		return &Error{Op: "login", Err: fmt.Errorf("decode assertion: %w", err)}
	}
	if err := checkAssertion("login", resp.Assertion); err != nil {
		return err
	}
	return c.rename(sender, login, resp.Assertion)
}

func checkAssertion(op, assertion string) error {
	if assertion == "" {
		return &Error{Op: op, Err: fmt.Errorf("%w: empty assertion", ErrLoginRejected)}
	}
	if reason, ok := strings.CutPrefix(assertion, ";;"); ok {
		return &Error{Op: op, Err: fmt.Errorf("%w: %s", ErrLoginRejected, reason)}
	}
	return nil
}

func (c *Client) rename(sender Sender, login, assertion string) error {
	if err := sender.Send(command.Globalf("trn %s,0,%s", login, assertion)); err != nil {
		return err
	}
	c.log().LogEvent("info", "logged_in", "", login, "")
	return nil
}

func (c *Client) post(ctx context.Context, op string, form url.Values) ([]byte, error) {
	endpoint := c.LoginURL
	if endpoint == "" {
		endpoint = DefaultLoginURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	return body, nil
}

func (c *Client) log() *logger.Logger {
	return logger.OrNop(c.Logger)
}
