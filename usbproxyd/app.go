// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbproxyd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/neo4reo/USBProxy/manager"
	"github.com/neo4reo/USBProxy/proxy"
	"github.com/neo4reo/USBProxy/relay"
	"github.com/neo4reo/USBProxy/usbdevice"
)

// NewDeviceProxy and NewHostProxy construct the transport-facing shims
// spec.md §1 scopes out of this core: a libusb-style device proxy and a
// gadget/UDC-style host proxy. usbproxyd owns no such implementation
// itself; a build that links one overrides these variables from an
// init() in its own package (e.g. behind a Linux-only build tag), the
// same seam the teacher's discovery.Listener/Registry wiring in
// demo/colorphase.Main leaves for callers to plug transports into.
var (
	NewDeviceProxy = func(cfg Config) (proxy.DeviceProxy, error) {
		return nil, errTransportNotLinked
	}
	NewHostProxy = func(cfg Config) (proxy.HostProxy, error) {
		return nil, errTransportNotLinked
	}
)

var errTransportNotLinked = errNotLinked{}

type errNotLinked struct{}

func (errNotLinked) Error() string {
	return "usbproxyd: no DeviceProxy/HostProxy implementation linked into this build"
}

// Main is the usbproxyd entry point: parse flags, wire logging and
// metrics, build a manager.Manager over the configured transports, and
// run until interrupted. Grounded on the teacher's demo/colorphase.Main
// shape: flag parsing, a blocking run loop, and signal-driven shutdown in
// place of colorphase's "ctrl-C kills the process" posture.
func Main() {
	var cfg Config
	RegisterFlags(pflag.CommandLine, &cfg)
	pflag.Parse()

	logger := newStderrLogger(cfg.LogLevel)

	reg := prometheus.NewRegistry()
	manager.RegisterMonitoring(reg)
	relay.RegisterMonitoring(reg)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	dp, err := NewDeviceProxy(cfg)
	if err != nil {
		logger.Errorf("building device proxy: %s", err)
		os.Exit(1)
	}
	hp, err := NewHostProxy(cfg)
	if err != nil {
		logger.Errorf("building host proxy: %s", err)
		os.Exit(1)
	}

	mgr := manager.New(dp, hp, func(ctx context.Context, dp proxy.DeviceProxy) (usbdevice.Model, error) {
		return usbdevice.Enumerate(ctx, dp)
	})
	mgr.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.StartControlRelaying(ctx); err != nil {
		logger.Errorf("starting control relaying: %s", err)
		os.Exit(1)
	}

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	<-sigC

	logger.Infof("shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.RelayTimeout)
	defer stopCancel()
	if err := mgr.StopRelaying(stopCtx); err != nil {
		logger.Errorf("stop_relaying: %s", err)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *stderrLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("metrics server: %s", err)
	}
}
