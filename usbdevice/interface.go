// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

// Interface is one interface of an active configuration: its descriptor plus
// the ordered set of endpoints it exposes (excluding EP0, which is never
// interface-scoped).
type Interface struct {
	// Descriptor is the parsed interface descriptor.
	Descriptor *InterfaceDescriptor

	// Number is a convenience accessor for Descriptor.InterfaceNumber.
	Number uint8

	endpoints []*EndpointRef
}

// NewInterface constructs an Interface from its descriptor. Endpoints are
// attached afterward via AddEndpoint, since each EndpointRef needs a
// back-pointer to the already-constructed Interface.
func NewInterface(desc *InterfaceDescriptor) *Interface {
	return &Interface{Descriptor: desc, Number: desc.InterfaceNumber}
}

// AddEndpoint appends an endpoint descriptor to this interface, wrapping it
// in an EndpointRef that points back at i.
func (i *Interface) AddEndpoint(desc *EndpointDescriptor) *EndpointRef {
	ep := NewEndpointRef(desc, i)
	i.endpoints = append(i.endpoints, ep)
	return ep
}

// Endpoints returns the interface's endpoints in descriptor order.
func (i *Interface) Endpoints() []*EndpointRef { return i.endpoints }

// EndpointCount returns the number of endpoints on this interface.
func (i *Interface) EndpointCount() int { return len(i.endpoints) }
