// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

import "fmt"

// EndpointRef is an immutable handle onto one endpoint of an active
// configuration, exposing its descriptor fields and a back-pointer to the
// Interface that owns it.
//
// EndpointRef is read-only for the life of the configuration it belongs to
// (spec.md §3). Non-EP0 EndpointRef values are borrowed from a Model and
// become invalid once the Model rebuilds its active configuration; EP0's
// EndpointRef is synthesized and owned by the Manager instead (spec.md §9).
type EndpointRef struct {
	address       uint8
	maxPacketSize uint16
	interval      uint8
	iface         *Interface
}

// NewEndpointRef constructs an EndpointRef from a parsed descriptor and its
// owning Interface. iface may be nil for the synthesized EP0 endpoint.
func NewEndpointRef(desc *EndpointDescriptor, iface *Interface) *EndpointRef {
	return &EndpointRef{
		address:       desc.EndpointAddress,
		maxPacketSize: desc.MaxPacketSize,
		interval:      desc.Interval,
		iface:         iface,
	}
}

// NewEP0Ref synthesizes the control endpoint's EndpointRef from the device
// descriptor's bMaxPacketSize0, per spec.md §4.7 step 4.
func NewEP0Ref(maxPacketSize0 uint8) *EndpointRef {
	return &EndpointRef{
		address:       EP0Address,
		maxPacketSize: uint16(maxPacketSize0),
		interval:      0,
	}
}

// Address returns the 8-bit endpoint address, direction bit included.
func (e *EndpointRef) Address() uint8 { return e.address }

// Direction derives the endpoint's direction from bit 7 of its address.
func (e *EndpointRef) Direction() Direction { return Direction(e.address & 0x80) }

// EndpointNumber derives the endpoint number from bits 0..3 of its address.
func (e *EndpointRef) EndpointNumber() uint8 { return e.address & 0x0f }

// MaxPacketSize returns wMaxPacketSize for this endpoint.
func (e *EndpointRef) MaxPacketSize() uint16 { return e.maxPacketSize }

// Interval returns bInterval for this endpoint.
func (e *EndpointRef) Interval() uint8 { return e.interval }

// Interface returns the Interface that owns this endpoint, or nil for the
// synthesized EP0 endpoint.
func (e *EndpointRef) Interface() *Interface { return e.iface }

// Equal reports whether e and o refer to the same endpoint address within a
// configuration, per spec.md §4.2's "equality by address" rule.
func (e *EndpointRef) Equal(o *EndpointRef) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.address == o.address
}

// String renders the endpoint address and direction for logging.
func (e *EndpointRef) String() string {
	return fmt.Sprintf("ep%d/%s", e.EndpointNumber(), e.Direction())
}
