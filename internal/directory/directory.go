// internal/directory/directory.go
// Resolves logical server names to websocket URLs through the server directory.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/erilali/showdown/internal/logger"
)

const (
	// DefaultBaseURL hosts /servers/<name>.json.
	DefaultBaseURL = "https://pokemonshowdown.com"
	// MainServer resolves without a directory request.
	MainServer    = "showdown"
	mainServerURL = "wss://sim3.psim.us/showdown/websocket"
	websocketPath = "/showdown/websocket"
)

// ErrStatus is wrapped when the directory answers with a non-2xx status.
var ErrStatus = errors.New("unexpected directory status")

// ErrIncomplete is wrapped when the directory entry lacks a host or port.
var ErrIncomplete = errors.New("directory entry missing host or port")

// Error reports a failed lookup for Server.
type Error struct {
	Server string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolve server %q: %v", e.Server, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Resolver looks up server names. The zero value uses http.DefaultClient
// and DefaultBaseURL.
type Resolver struct {
	HTTPClient *http.Client
	BaseURL    string
	Logger     *logger.Logger
}

type serverInfo struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// Resolve returns the websocket URL for the named server.
func (r *Resolver) Resolve(ctx context.Context, name string) (*url.URL, error) {
	if name == MainServer {
		return url.Parse(mainServerURL)
	}
	log := logger.OrNop(r.Logger).WithField("server", name)

	info, err := r.fetch(ctx, name)
	if err != nil {
		log.WithError(err).Warn("Server lookup failed")
		return nil, &Error{Server: name, Err: err}
	}
	scheme := "ws"
	if info.Port == 443 {
		scheme = "wss"
	}
	u, err := url.Parse(fmt.Sprintf("%s://%s:%d%s", scheme, info.Host, info.Port, websocketPath))
	if err != nil {
		return nil, &Error{Server: name, Err: err}
	}
	log.Debugf("Resolved to %s", u)
	return u, nil
}

func (r *Resolver) fetch(ctx context.Context, name string) (serverInfo, error) {
	var info serverInfo
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint := strings.TrimSuffix(base, "/") + "/servers/" + url.PathEscape(name) + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return info, err
	}
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return info, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decode server info: %w", err)
	}
	if info.Host == "" || info.Port == 0 {
		return info, ErrIncomplete
	}
	return info, nil
}
