package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoattend_submissions_total",
		Help: "Self-service attendance submissions by outcome.",
	}, []string{"outcome"})

	BulkChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoattend_bulk_changes_total",
		Help: "Attendance rows created or deleted by the bulk toggler.",
	}, []string{"action"})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoattend_sessions_created_total",
		Help: "Sessions opened.",
	})

	Exports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoattend_exports_total",
		Help: "CSV exports generated.",
	})
)
