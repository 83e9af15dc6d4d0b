// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	statusGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "usbproxy",
		Subsystem: "manager",
		Name:      "status",
		Help:      "Current Manager status: 0=idle, 1=setup, 2=relaying, 3=stopping.",
	})

	dataRelayGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "usbproxy",
		Subsystem: "manager",
		Name:      "data_relays",
		Help:      "Number of currently active data relayers.",
	})
)

// RegisterMonitoring registers this package's collectors with reg, in the
// same package-level-registration style as the teacher's
// proxy/monitoring.go.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(statusGauge, dataRelayGauge)
}

// reportStatus is called at each status transition to keep statusGauge
// current.
func (m *Manager) reportStatus(s Status) {
	statusGauge.Set(float64(s))
	dataRelayGauge.Set(float64(m.DataRelayCount()))
}
