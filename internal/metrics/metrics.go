// Package metrics holds Prometheus instruments that are used across
// Gatehouse.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GuardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_decisions_total",
			Help: "Route guard decisions by path and outcome (allow, redirect).",
		}, []string{"path", "decision"})

	AuthActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_actions_total",
			Help: "Dispatcher calls to the authentication service by action and outcome.",
		}, []string{"action", "outcome"})

	FormSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Form submissions by form and result (accepted, ignored, invalid).",
		}, []string{"form", "result"})

	DBOpens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_open_total",
			Help: "Lazy database pool open attempts by result.",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		GuardDecisions,
		AuthActions,
		FormSubmissions,
		DBOpens,
	)
}
