// Package metrics exposes Prometheus counters for the geolocation rewriter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geospoof/geospoof/geo"
)

var (
	// RequestsTotal counts intercepted requests by rewrite outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geospoof_requests_total",
		Help: "Total number of intercepted requests, by rewrite outcome.",
	}, []string{"outcome"})

	// PanicsTotal counts rewrites aborted by a recovered panic.
	PanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geospoof_rewrite_panics_total",
		Help: "Total number of request rewrites aborted by a recovered panic.",
	})
)

func init() {
	// Pre-create every series so dashboards see zeroes.
	for _, o := range geo.Outcomes() {
		RequestsTotal.WithLabelValues(o.String())
	}
}

func ObserveOutcome(o geo.Outcome) {
	RequestsTotal.WithLabelValues(o.String()).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
