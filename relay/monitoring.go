// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package relay

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/neo4reo/USBProxy/usbpacket"
)

var (
	queueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "usbproxy",
		Subsystem: "relay",
		Name:      "queue_depth",
		Help:      "Number of packets currently buffered in a Relayer's injection queue.",
	}, []string{"endpoint"})

	packetsForwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "usbproxy",
		Subsystem: "relay",
		Name:      "packets_forwarded_total",
		Help:      "Packets a Relayer forwarded between device and host.",
	}, []string{"endpoint"})

	packetsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "usbproxy",
		Subsystem: "relay",
		Name:      "packets_dropped_total",
		Help:      "Packets a Relayer's filter chain dropped.",
	}, []string{"endpoint"})
)

// RegisterMonitoring registers this package's collectors with reg, in the
// same package-level-registration style as the teacher's
// proxy/monitoring.go.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(queueDepth, packetsForwarded, packetsDropped)
}

// Monitor wires a DataRelayer's onForward/onDrop hooks to the package's
// collectors; the queue depth gauge is sampled each time a packet is
// forwarded or dropped, not on a timer. Called by the Manager for every data
// relayer it builds in startDataRelaying, labelled by endpoint.
func Monitor(label string, r *DataRelayer) {
	forwarded := packetsForwarded.WithLabelValues(label)
	dropped := packetsDropped.WithLabelValues(label)
	depth := queueDepth.WithLabelValues(label)
	r.onForward = func(*usbpacket.Packet) {
		forwarded.Inc()
		depth.Set(float64(r.queue.Len()))
	}
	r.onDrop = func(*usbpacket.Packet) {
		dropped.Inc()
		depth.Set(float64(r.queue.Len()))
	}
}
