// Package metrics holds the Prometheus collectors for session lifecycle events.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "auth_client"

// Logout origins.
const (
	OriginUser   = "user"
	OriginForced = "forced"
)

// Restore outcomes.
const (
	RestoreAuthenticated = "authenticated"
	RestoreGuest         = "guest"
	RestoreStale         = "stale"
)

type Metrics struct {
	Logins        prometheus.Counter
	Logouts       *prometheus.CounterVec
	Restores      *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	SignOutErrors prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Number of successful logins.",
		}),
		Logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Number of logout cleanups by origin.",
		}, []string{"origin"}),
		Restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "restores_total",
			Help:      "Number of session restore attempts by outcome.",
		}, []string{"outcome"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "datastore",
			Name:      "fetch_failures_total",
			Help:      "Number of failed domain store fetches.",
		}, []string{"store"}),
		SignOutErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "sign_out_errors_total",
			Help:      "Number of remote sign-out calls that failed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Logins, m.Logouts, m.Restores, m.FetchFailures, m.SignOutErrors)
	}
	return m
}
