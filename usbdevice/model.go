// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

// Model is the Device Model's interface, as consumed by the Manager
// (spec.md §6). Enumerate, in this package, builds one concrete Model by
// reading descriptors through a ReadDescriptor primitive; the package never
// talks to USB hardware itself.
type Model interface {
	// Descriptor returns the device's top-level descriptor.
	Descriptor() *DeviceDescriptor

	// ActiveConfiguration returns the currently active configuration, or nil
	// if none has been selected yet.
	ActiveConfiguration() *Configuration

	// Configuration returns the configuration registered under the given
	// SET_CONFIGURATION value, or nil if none matches.
	Configuration(value uint8) *Configuration

	// DeviceQualifier returns the device's device_qualifier pairing, or nil
	// if the device does not report one (i.e. it does not distinguish
	// full-speed/high-speed behavior).
	DeviceQualifier() *Qualifier

	// IsHighSpeed reports whether the device is currently operating at high
	// speed.
	IsHighSpeed() bool

	// SetActiveConfiguration updates the Model's notion of which
	// configuration is active, by SET_CONFIGURATION value.
	SetActiveConfiguration(value uint8) error
}
