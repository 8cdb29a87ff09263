package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	ActionInvalid = "invalid"

	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

var (
	domainMetricsOnce sync.Once

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_actions_total",
			Help: "Total number of friend request accept/decline attempts",
		},
		[]string{"action", "status"},
	)

	rsvpTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsvp_transitions_total",
			Help: "Total number of RSVP state machine outcomes",
		},
		[]string{"transition"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Per-recipient notification outcomes by workflow",
		},
		[]string{"workflow", "result"},
	)
)

func RegisterDomainMetrics() {
	domainMetricsOnce.Do(func() {
		prometheus.MustRegister(friendRequestsTotal, friendActionsTotal, rsvpTransitionsTotal, notificationsTotal)
	})
}

func IncFriendRequest(status string) {
	RegisterDomainMetrics()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendAction(action, status string) {
	RegisterDomainMetrics()
	friendActionsTotal.WithLabelValues(action, status).Inc()
}

// IncRSVPTransition counts one of: noop, created, updated, removed, invited, denied.
func IncRSVPTransition(transition string) {
	RegisterDomainMetrics()
	rsvpTransitionsTotal.WithLabelValues(transition).Inc()
}

func AddNotifications(workflow, result string, n int) {
	if n <= 0 {
		return
	}
	RegisterDomainMetrics()
	notificationsTotal.WithLabelValues(workflow, result).Add(float64(n))
}
