package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login outcomes, labelled success or failure.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_login_attempts_total",
		Help: "Total number of login attempts by outcome.",
	}, []string{"result"})

	// Lockouts counts lock transitions by kind: login, withdrawal or fraud.
	Lockouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_lockouts_total",
		Help: "Total number of account lockouts by kind.",
	}, []string{"kind"})

	// Transactions counts completed money movements by type.
	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_transactions_total",
		Help: "Total number of completed transactions by type.",
	}, []string{"type"})

	// NotificationFailures counts emails that could not be delivered.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bank_notification_failures_total",
		Help: "Total number of notification deliveries that failed.",
	})
)
