// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the catalog and booking layers report to.
type Recorder interface {
	RecordCatalogFetch(duration time.Duration, err error)
	RecordCacheLookup(hit bool)
	RecordBookedItems(booked, failed int)
	RecordCancellation()
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	catalogFetches *prometheus.CounterVec
	catalogLatency prometheus.Histogram
	cacheLookups   *prometheus.CounterVec
	tripItems      *prometheus.CounterVec
	cancellations  prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		catalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetrips_catalog_fetch_total",
			Help: "Remote launch catalog requests by result.",
		}, []string{"result"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spacetrips_catalog_fetch_seconds",
			Help:    "Latency of remote launch catalog requests.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetrips_launch_cache_lookups_total",
			Help: "Launch cache lookups by result.",
		}, []string{"result"}),
		tripItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetrips_booking_items_total",
			Help: "Launch ids processed by booking requests, by outcome.",
		}, []string{"outcome"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spacetrips_trip_cancellations_total",
			Help: "Trip cancellations processed.",
		}),
	}

	reg.MustRegister(
		c.catalogFetches,
		c.catalogLatency,
		c.cacheLookups,
		c.tripItems,
		c.cancellations,
	)
	return c
}

func (c *Collector) RecordCatalogFetch(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.catalogFetches.WithLabelValues(result).Inc()
	c.catalogLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

func (c *Collector) RecordBookedItems(booked, failed int) {
	c.tripItems.WithLabelValues("booked").Add(float64(booked))
	c.tripItems.WithLabelValues("failed").Add(float64(failed))
}

func (c *Collector) RecordCancellation() {
	c.cancellations.Inc()
}

// Nop discards everything. Used where no registry is wired.
type Nop struct{}

func (Nop) RecordCatalogFetch(time.Duration, error) {}
func (Nop) RecordCacheLookup(bool)                  {}
func (Nop) RecordBookedItems(int, int)              {}
func (Nop) RecordCancellation()                     {}

// Handler serves the gatherer in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
