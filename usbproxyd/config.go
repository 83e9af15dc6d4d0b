// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package usbproxyd wires a manager.Manager up to flags, logging, and
// metrics for the usbproxyd command-line daemon. It owns no USB transport
// itself: DeviceProxy and HostProxy (spec.md §1's external collaborators)
// must be supplied by a build that links a concrete libusb-style and
// gadget/UDC-style implementation; this package only owns the ambient
// plumbing around the Manager core.
package usbproxyd

import (
	"time"

	"github.com/spf13/pflag"
)

// Config holds the flags usbproxyd parses, grounded on the
// pflag.FlagSet-registration pattern of the teacher's
// replay/streamfile/flag.go.
type Config struct {
	// DeviceBus and DeviceAddress select the physical device to proxy, in
	// the libusb bus/address addressing scheme.
	DeviceBus     uint8
	DeviceAddress uint8

	// HostUDC names the USB Device Controller the host-facing gadget proxy
	// binds to (e.g. "fe980000.usb" on many ARM SoCs).
	HostUDC string

	// LogLevel selects the verbosity of the stderr logger: one of
	// "debug", "info", "warn", "error".
	LogLevel string

	// MetricsAddr, if non-empty, is the listen address for a Prometheus
	// /metrics endpoint.
	MetricsAddr string

	// RelayTimeout bounds how long stop_relaying is allowed to block before
	// usbproxyd gives up waiting and exits anyway.
	RelayTimeout time.Duration
}

// RegisterFlags binds cfg's fields to fs, filling in defaults.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Uint8Var(&cfg.DeviceBus, "device-bus", 0, "libusb bus number of the device to proxy")
	fs.Uint8Var(&cfg.DeviceAddress, "device-address", 0, "libusb device address of the device to proxy")
	fs.StringVar(&cfg.HostUDC, "host-udc", "", "name of the USB Device Controller to present the host-facing gadget on")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log verbosity: debug, info, warn, error")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "if set, listen address for a Prometheus /metrics endpoint")
	fs.DurationVar(&cfg.RelayTimeout, "relay-timeout", 2*time.Second, "maximum time to wait for stop_relaying to complete")
}
