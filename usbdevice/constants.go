// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbdevice

// Descriptor types (USB 2.0 Spec Table 9-5).
const (
	DescriptorTypeDevice           = 0x01
	DescriptorTypeConfiguration    = 0x02
	DescriptorTypeString           = 0x03
	DescriptorTypeInterface        = 0x04
	DescriptorTypeEndpoint         = 0x05
	DescriptorTypeDeviceQualifier  = 0x06
	DescriptorTypeOtherSpeedConfig = 0x07
)

// Endpoint transfer types (USB 2.0 Spec Table 9-13).
const (
	EndpointTypeControl     = 0x00
	EndpointTypeIsochronous = 0x01
	EndpointTypeBulk        = 0x02
	EndpointTypeInterrupt   = 0x03
)

// Direction identifies an endpoint's data direction.
type Direction uint8

// Endpoint directions, matching bit 7 of the endpoint address.
const (
	Out Direction = 0x00
	In  Direction = 0x80
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	if d == In {
		return "IN"
	}
	return "OUT"
}

// EP0Address is the reserved address of the control endpoint.
const EP0Address uint8 = 0
