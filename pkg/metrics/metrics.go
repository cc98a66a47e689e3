// pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/abcdlsj/nss-docker/pkg/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Resolutions by outcome and failure reason
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nss_docker_resolutions_total",
			Help: "Total number of host name resolutions",
		},
		[]string{"outcome", "reason"},
	)

	resolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nss_docker_resolution_duration_seconds",
			Help:    "Time spent resolving names that carry the container suffix",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"outcome"},
	)

	// DNS front end
	dnsQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nss_docker_dns_queries_total",
			Help: "Total number of DNS questions answered",
		},
		[]string{"qtype", "rcode"},
	)
)

// Collector records resolver and DNS activity
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// Observe implements resolver.Observer
func (c *Collector) Observe(res resolver.Result, elapsed time.Duration) {
	reason := "none"
	if kind := resolver.KindOf(res.Err); kind != 0 {
		reason = kind.String()
	}

	resolutionsTotal.WithLabelValues(res.Outcome.String(), reason).Inc()
	if res.Outcome != resolver.NotOurDomain {
		resolutionDuration.WithLabelValues(res.Outcome.String()).Observe(elapsed.Seconds())
	}
}

// RecordDNSQuery records one answered DNS question
func (c *Collector) RecordDNSQuery(qtype, rcode string) {
	dnsQueriesTotal.WithLabelValues(qtype, rcode).Inc()
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
