// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package usbdevice defines the read-only descriptor-level view of a USB
// device: its device, configuration, interface, and endpoint descriptors,
// and the Model interface a Device Model implementation exposes to the
// Manager.
//
// Model itself is an external collaborator (spec.md §1): this package pins
// its interface and the value objects that cross it, and provides Enumerate,
// which builds a Model from descriptor buffers read through a caller-supplied
// ReadDescriptor primitive. It does not access hardware itself.
package usbdevice
