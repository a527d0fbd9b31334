// Package metrics holds Prometheus instruments used across the portal.  All
// collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DonationRequestSubmissions counts Submit calls by result
	// (succeeded, invalid, failed, busy, closed).
	DonationRequestSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_request_submissions_total",
			Help: "Donation request submit attempts by result.",
		}, []string{"result"})

	ActiveDrafts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "donation_request_drafts",
			Help: "Form sessions currently held in memory.",
		})

	CachedDonors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "donor_cache_entries",
			Help: "Donor records currently held in the read cache.",
		})

	DonorLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "donor_cache_load_total",
			Help: "Cumulative number of donor records fetched from the backend.",
		})

	DonorLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "donor_cache_load_errors_total",
			Help: "Cumulative number of failed donor fetches.",
		})

	DonorEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "donor_cache_evict_total",
			Help: "Cumulative number of donor records evicted from the cache.",
		})

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of calls to the external donor API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "outcome"})
)

func init() {
	prometheus.MustRegister(
		DonationRequestSubmissions,
		ActiveDrafts,
		CachedDonors,
		DonorLoadTotal,
		DonorLoadErrorsTotal,
		DonorEvictTotal,
		BackendRequestDuration,
	)
}
