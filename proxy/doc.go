// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package proxy pins the interfaces of the two transport-facing shims the
// Manager orchestrates: DeviceProxy, which speaks to the physical USB
// device, and HostProxy, which presents a device to the upstream host.
//
// Both are external collaborators (spec.md §1): concrete libusb-style and
// gadget/UDC-style implementations are out of scope here. This package pins
// only the contracts the Manager and Relayer depend on.
package proxy
