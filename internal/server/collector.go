package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"car-park/internal/carpark"
)

type StatsSource interface {
	Stats() carpark.Stats
}

// RegistryCollector exports the live registry counts on every scrape.
type RegistryCollector struct {
	source    StatsSource
	spots     *prometheus.Desc
	occupied  *prometheus.Desc
	available *prometheus.Desc
}

func NewRegistryCollector(source StatsSource) *RegistryCollector {
	return &RegistryCollector{
		source: source,
		spots: prometheus.NewDesc("carpark_registry_spots",
			"Number of parking spots in the registry.", nil, nil),
		occupied: prometheus.NewDesc("carpark_registry_occupied_spots",
			"Number of occupied parking spots.", nil, nil),
		available: prometheus.NewDesc("carpark_registry_available_spots",
			"Number of unoccupied parking spots.", nil, nil),
	}
}

func (c *RegistryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.spots
	ch <- c.occupied
	ch <- c.available
}

func (c *RegistryCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.spots, prometheus.GaugeValue, float64(stats.Total))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(stats.Occupied))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(stats.Available))
}
