// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for chain building.
type Metrics struct {
	// Builds by outcome: trusted, untrusted, partial, cyclic, error
	Builds *prometheus.CounterVec

	// Alternate chains explored
	Alternates prometheus.Counter

	// Full build latency including alternate search
	BuildLatency prometheus.Histogram

	// End certificate cache lookups by result: hit, miss
	CacheLookups *prometheus.CounterVec

	// End certificate cache evictions
	CacheEvictions prometheus.Counter

	// Issuer downloads by result: ok, error
	IssuerFetches *prometheus.CounterVec
}

// NewMetrics registers the chain metrics with reg. A nil reg gets a private
// registry so several engines can live in one process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Builds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "x509_chain_builds_total",
			Help: "Total chain builds by outcome",
		}, []string{"outcome"}),

		Alternates: factory.NewCounter(prometheus.CounterOpts{
			Name: "x509_chain_alternates_total",
			Help: "Total alternate chains explored during builds",
		}),

		BuildLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "x509_chain_build_duration_seconds",
			Help:    "Duration of chain builds including alternate search",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "x509_chain_cache_lookups_total",
			Help: "End certificate cache lookups by result",
		}, []string{"result"}),

		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "x509_chain_cache_evictions_total",
			Help: "End certificate cache entries evicted",
		}),

		IssuerFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "x509_chain_issuer_fetches_total",
			Help: "Issuer certificate downloads by result",
		}, []string{"result"}),
	}
}

// outcome classifies a built chain context for the builds counter.
func outcome(cc *ChainContext) string {
	errs := cc.Status.Errors
	switch {
	case errs&IsCyclic != 0:
		return "cyclic"
	case errs&IsPartialChain != 0:
		return "partial"
	case errs&IsUntrustedRoot != 0:
		return "untrusted"
	case cc.Status.Info&IsTrustedRoot != 0:
		return "trusted"
	}
	return "untrusted"
}

// ObserveBuild records a finished build.
func (m *Metrics) ObserveBuild(cc *ChainContext, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.BuildLatency.Observe(d.Seconds())
	if err != nil {
		m.Builds.WithLabelValues("error").Inc()
		return
	}
	m.Builds.WithLabelValues(outcome(cc)).Inc()
}

// IncrementAlternates records n explored alternates.
func (m *Metrics) IncrementAlternates(n int) {
	if m != nil && n > 0 {
		m.Alternates.Add(float64(n))
	}
}

// IncrementCacheLookup records a cache hit or miss.
func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// IncrementCacheEvictions records n evicted cache entries.
func (m *Metrics) IncrementCacheEvictions(n int) {
	if m != nil && n > 0 {
		m.CacheEvictions.Add(float64(n))
	}
}

// IncrementFetch records an issuer download.
func (m *Metrics) IncrementFetch(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.IssuerFetches.WithLabelValues(result).Inc()
}
