// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package proxy

import (
	"context"
	"time"

	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usbpacket"
)

// DeviceProxy speaks to the physical USB device (spec.md §6). It is an
// external collaborator; this interface is pinned so the Manager and
// Relayer can be built and tested against a fake without a real libusb
// binding.
type DeviceProxy interface {
	// Connect establishes the downstream connection to the physical device.
	Connect(ctx context.Context) error
	// Disconnect tears down the downstream connection.
	Disconnect() error

	// Send writes a data packet to ep.
	Send(ctx context.Context, ep *usbdevice.EndpointRef, pkt *usbpacket.Packet) error
	// Receive reads a data packet from ep, waiting up to timeout. A nil
	// packet with a nil error means nothing arrived within timeout.
	Receive(ctx context.Context, ep *usbdevice.EndpointRef, timeout time.Duration) (*usbpacket.Packet, error)

	// SendSetup issues a control transfer described by sp and fills in its
	// response (data stage and TransferResult).
	SendSetup(ctx context.Context, sp *usbpacket.SetupPacket) error

	// ClaimInterface and ReleaseInterface claim/release one interface by
	// number, ahead of/after data relaying on its endpoints.
	ClaimInterface(number uint8) error
	ReleaseInterface(number uint8) error

	// SetConfig applies a configuration to the physical device. fullSpeedCfg
	// is always the full-speed variant and highSpeedCfg always the
	// high-speed variant of the configuration being applied (for devices
	// without a device qualifier, whichever of the two is unavailable is
	// nil); highSpeed reports which of the two is actually active.
	SetConfig(fullSpeedCfg, highSpeedCfg *usbdevice.Configuration, highSpeed bool) error

	// ReadDescriptor reads a raw descriptor buffer of the given type/index,
	// used by device-model construction during enumeration.
	ReadDescriptor(ctx context.Context, descriptorType uint8, index uint8) ([]byte, error)
}

// HostProxy presents a device to the upstream host (spec.md §6). Like
// DeviceProxy, it is an external collaborator whose interface is pinned
// here only.
type HostProxy interface {
	// Connect advertises dev to the host, using its enumerated Model.
	Connect(ctx context.Context, dev usbdevice.Model) error
	// Disconnect withdraws from the host.
	Disconnect() error

	// Send writes a data packet to ep, from the device's perspective.
	Send(ctx context.Context, ep *usbdevice.EndpointRef, pkt *usbpacket.Packet) error
	// Receive reads a data packet bound for ep from the host, waiting up to
	// timeout.
	Receive(ctx context.Context, ep *usbdevice.EndpointRef, timeout time.Duration) (*usbpacket.Packet, error)

	// ReceiveSetup blocks for the next host-originated control transfer,
	// returning a complete SetupPacket (request plus optional data stage).
	ReceiveSetup(ctx context.Context, timeout time.Duration) (*usbpacket.SetupPacket, error)
	// RespondSetup delivers sp's completed response back to the host.
	RespondSetup(ctx context.Context, sp *usbpacket.SetupPacket) error

	// SetConfig mirrors DeviceProxy.SetConfig from the host-facing side.
	SetConfig(fullSpeedCfg, highSpeedCfg *usbdevice.Configuration, highSpeed bool) error
}
