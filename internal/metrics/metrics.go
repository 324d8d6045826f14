// Package metrics exposes Prometheus collectors for the live quiz engine.
// Every method is safe on a nil *Metrics so components can run without it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quiz_live"

// Session outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeAbandoned = "abandoned"
	OutcomeExpired   = "expired"
)

// Challenge outcomes.
const (
	ChallengeSent     = "sent"
	ChallengeAccepted = "accepted"
	ChallengeRejected = "rejected"
	ChallengeExpired  = "expired"
)

type Metrics struct {
	activeSessions     prometheus.Gauge
	sessionsEnded      *prometheus.CounterVec
	answers            *prometheus.CounterVec
	completionFailures prometheus.Counter
	openRooms          prometheus.Gauge
	challenges         *prometheus.CounterVec
	connections        prometheus.Gauge
	events             *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Game sessions currently accepting answers.",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Game sessions that left the active state, by outcome.",
		}, []string{"outcome"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Graded answers, by correctness.",
		}, []string{"correct"}),
		completionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_failures_total",
			Help:      "Result writes that failed after all retries.",
		}),
		openRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_rooms",
			Help:      "Multiplayer rooms currently held in memory.",
		}),
		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_total",
			Help:      "Duel challenges, by outcome.",
		}, []string{"outcome"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections",
			Help:      "Registered realtime connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound realtime events, by type and result.",
		}, []string{"type", "result"}),
	}

	reg.MustRegister(
		m.activeSessions,
		m.sessionsEnded,
		m.answers,
		m.completionFailures,
		m.openRooms,
		m.challenges,
		m.connections,
		m.events,
	)
	return m
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionEnded(outcome string) {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	m.sessionsEnded.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AnswerGraded(correct bool) {
	if m == nil {
		return
	}
	label := "false"
	if correct {
		label = "true"
	}
	m.answers.WithLabelValues(label).Inc()
}

func (m *Metrics) CompletionFailed() {
	if m == nil {
		return
	}
	m.completionFailures.Inc()
}

func (m *Metrics) RoomOpened() {
	if m == nil {
		return
	}
	m.openRooms.Inc()
}

func (m *Metrics) RoomClosed() {
	if m == nil {
		return
	}
	m.openRooms.Dec()
}

func (m *Metrics) Challenge(outcome string) {
	if m == nil {
		return
	}
	m.challenges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

// Event counts one inbound realtime event. result is "ok" or an error code.
func (m *Metrics) Event(eventType, result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, result).Inc()
}
