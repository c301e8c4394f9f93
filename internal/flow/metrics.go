package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authrelay_logins_total",
			Help: "Number of completed login attempts, by provider and result.",
		},
		[]string{"provider", "result"},
	)

	logoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authrelay_logouts_total",
			Help: "Number of logouts, by provider.",
		},
		[]string{"provider"},
	)
)
