/*
Copyright (c) mixrelay Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package peer

import "github.com/prometheus/client_golang/prometheus"

// Gauge is the minimal single-value metric handle a Network needs.
type Gauge interface {
	Set(v float64)
}

// QualityGauge is a metric handle labelled over (type in {public,
// nonPublic}, quality in {high, low}), mirroring
// core_mgauge_peers_by_quality.
type QualityGauge interface {
	Set(peerType, quality string, count float64)
}

// Metrics groups the three optional metric handles a Network may report
// through. Any of the three handles on Network may be left nil; Network
// never requires all three to be present.
type Metrics struct {
	// NetworkHealth backs core_gauge_network_health: set to the numeric
	// Health value.
	NetworkHealth Gauge

	// PeersByQuality backs core_mgauge_peers_by_quality.
	PeersByQuality QualityGauge

	// NumPeers backs core_gauge_num_peers: the total entries count.
	NumPeers Gauge
}

// PrometheusMetrics is a production Metrics implementation, grounded on
// _examples/facebook-time's ptp/sptp/stats/prom_exporter.go registry +
// gauge pattern.
type PrometheusMetrics struct {
	registry       *prometheus.Registry
	networkHealth  prometheus.Gauge
	peersByQuality *prometheus.GaugeVec
	numPeers       prometheus.Gauge
}

// NewPrometheusMetrics registers the three mix-network gauges against
// registry. Its AsMetrics result is ready to pass to WithMetrics.
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: registry,
		networkHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "core_gauge_network_health",
			Help: "Aggregate peer network health, numeric Health enum value.",
		}),
		peersByQuality: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "core_mgauge_peers_by_quality",
			Help: "Number of known peers by (type, quality) bucket.",
		}, []string{"type", "quality"}),
		numPeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "core_gauge_num_peers",
			Help: "Total number of tracked peers.",
		}),
	}
	registry.MustRegister(m.networkHealth, m.peersByQuality, m.numPeers)
	return m
}

// AsMetrics wraps the receiver's three collectors into the Metrics struct
// Network consumes.
func (m *PrometheusMetrics) AsMetrics() Metrics {
	return Metrics{
		NetworkHealth:  gaugeAdapter{m.networkHealth},
		PeersByQuality: qualityGaugeAdapter{m.peersByQuality},
		NumPeers:       gaugeAdapter{m.numPeers},
	}
}

type gaugeAdapter struct{ g prometheus.Gauge }

func (a gaugeAdapter) Set(v float64) { a.g.Set(v) }

type qualityGaugeAdapter struct{ v *prometheus.GaugeVec }

func (a qualityGaugeAdapter) Set(peerType, quality string, count float64) {
	a.v.WithLabelValues(peerType, quality).Set(count)
}
