// internal/metrics/metrics.go
// Prometheus counters for the protocol client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erilali/showdown/internal/message"
)

const namespace = "showdown"

// Metrics holds the client's collectors on their own registry so several
// bots (or tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	framesReceived *prometheus.CounterVec
	commandsSent   prometheus.Counter
	sendErrors     prometheus.Counter
	logins         *prometheus.CounterVec
	relayed        *prometheus.CounterVec
	connected      prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		framesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Frames received, by classified kind",
		}, []string{"kind"}),
		commandsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_sent_total",
			Help:      "Commands written to the connection",
		}),
		sendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Commands that failed to send",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts, by result",
		}, []string{"result"}),
		relayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_published_total",
			Help:      "Events published to NATS, by result",
		}, []string{"result"}),
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the websocket is open",
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FrameReceived counts one classified frame.
func (m *Metrics) FrameReceived(kind message.Kind) {
	m.framesReceived.WithLabelValues(KindName(kind)).Inc()
}

// CommandSent counts one send attempt.
func (m *Metrics) CommandSent(err error) {
	if err != nil {
		m.sendErrors.Inc()
		return
	}
	m.commandsSent.Inc()
}

// Login counts a login attempt; result is "ok" or "error".
func (m *Metrics) Login(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// Relayed counts one NATS publication.
func (m *Metrics) Relayed(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.relayed.WithLabelValues(result).Inc()
}

// SetConnected flips the connection gauge.
func (m *Metrics) SetConnected(up bool) {
	if up {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// KindName is a stable label for a Kind.
func KindName(kind message.Kind) string {
	switch kind.(type) {
	case message.Chat:
		return "chat"
	case message.Private:
		return "private"
	case message.Join:
		return "join"
	case message.Leave:
		return "leave"
	case message.NicknameChange:
		return "nickname_change"
	case message.Challenge:
		return "challenge"
	case message.HTML:
		return "html"
	case message.NoInit:
		return "noinit"
	case message.RoomInit:
		return "room_init"
	case message.QueryResponse:
		return "query_response"
	case message.UpdateUser:
		return "update_user"
	}
	return "unrecognized"
}
