package httpapi

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"geoattend/internal/attendance"
)

// admissionDecisions counts engine outcomes by flow. Rejections are labeled
// with their code so the dashboard can tell a geofence miss from a double
// scan.
var admissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "geoattend",
	Name:      "admission_decisions_total",
	Help:      "Attendance admission outcomes by flow and result.",
}, []string{"flow", "outcome"})

func observeDecision(flow string, err error) {
	outcome := "admitted"
	var rej *attendance.Rejection
	switch {
	case err == nil:
	case errors.As(err, &rej):
		outcome = rej.Code
	default:
		outcome = "error"
	}
	admissionDecisions.WithLabelValues(flow, outcome).Inc()
}
