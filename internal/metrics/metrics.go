// Package metrics exposes the service's prometheus collectors. All collectors
// are registered on the default registry and served by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_logins_total",
		Help: "Login attempts by result (ok, invalid_credentials, error).",
	}, []string{"result"})

	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_signups_total",
		Help: "Signup attempts by result (ok, conflict, error).",
	}, []string{"result"})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_refreshes_total",
		Help: "Refresh-token exchanges by result (ok, revoked, invalid, expired, error).",
	}, []string{"result"})

	AuthorizeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_authorize_failures_total",
		Help: "Access-token authorization failures by reason (missing, invalid, expired, revoked).",
	}, []string{"reason"})

	Revocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_revocations_total",
		Help: "Tokens written to the revocation ledger.",
	})

	SweptRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_revoked_tokens_swept_total",
		Help: "Expired revocation records removed by the background sweeper.",
	})
)
