package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rings"

type Metrics struct {
	MessagesReceived *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	Moves            *prometheus.CounterVec
	ConnectAttempts  *prometheus.CounterVec
	ConnectedPeers   prometheus.Gauge
}

// NewMetrics registers the peer metrics on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages received from peers by type",
		}, []string{"type"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages sent to peers by type",
		}, []string{"type"}),
		Moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Ring placements handled by this peer by result",
		}, []string{"result"}),
		ConnectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Attempts to link to the host by outcome",
		}, []string{"outcome"}),
		ConnectedPeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_peers",
			Help:      "Number of open peer links",
		}),
	}

	registerer.MustRegister(
		m.MessagesReceived,
		m.MessagesSent,
		m.Moves,
		m.ConnectAttempts,
		m.ConnectedPeers,
	)

	return m
}

func (that *Metrics) MessageReceived(msgType string) {
	that.MessagesReceived.WithLabelValues(msgType).Inc()
}

func (that *Metrics) MessageSent(msgType string) {
	that.MessagesSent.WithLabelValues(msgType).Inc()
}

func (that *Metrics) MoveHandled(result string) {
	that.Moves.WithLabelValues(result).Inc()
}

func (that *Metrics) ConnectAttempt(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}

	that.ConnectAttempts.WithLabelValues(outcome).Inc()
}

func (that *Metrics) SetConnectedPeers(count int) {
	that.ConnectedPeers.Set(float64(count))
}
