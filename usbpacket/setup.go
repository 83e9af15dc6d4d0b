// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbpacket

import (
	"bytes"

	"github.com/lunixbochs/struc"
)

// Standard USB request codes referenced directly by the control Relayer.
const (
	RequestGetStatus        = 0x00
	RequestClearFeature     = 0x01
	RequestSetFeature       = 0x03
	RequestSetAddress       = 0x05
	RequestGetDescriptor    = 0x06
	RequestSetDescriptor    = 0x07
	RequestGetConfiguration = 0x08
	RequestSetConfiguration = 0x09
	RequestGetInterface     = 0x0a
	RequestSetInterface     = 0x0b
	RequestSynchFrame       = 0x0c
)

// Request is the standard 8-byte USB control request layout (USB 2.0 Spec
// Table 9-2), little-endian on the wire.
//
// Tagged for github.com/lunixbochs/struc, the same way the teacher's
// DeviceHeader is tagged in protocol/discovery.go, since this is exactly
// the fixed-width little-endian record shape struc is built for.
type Request struct {
	// RequestType is bmRequestType: direction, type, and recipient bits.
	RequestType uint8
	// Request is bRequest: the standard or class/vendor request code.
	Request uint8
	// Value is wValue.
	Value uint16 `struc:",little"`
	// Index is wIndex.
	Index uint16 `struc:",little"`
	// Length is wLength: the data-stage length.
	Length uint16 `struc:",little"`
}

// RequestSize is the wire size of a Request in bytes.
const RequestSize = 8

// IsDeviceToHost reports whether bmRequestType's direction bit (7) marks this
// as a device-to-host (IN) control transfer.
func (r *Request) IsDeviceToHost() bool { return r.RequestType&0x80 != 0 }

// Marshal packs r into its 8-byte wire representation.
func (r *Request) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.Pack(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalRequest unpacks an 8-byte wire buffer into a Request.
func UnmarshalRequest(data []byte) (*Request, error) {
	r := &Request{}
	if err := struc.Unpack(bytes.NewReader(data), r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetupPacket is a USB control request, with an optional data stage, flowing
// on the EP0 queue. Only SetupPacket values are ever pushed to that queue;
// every other endpoint-direction's queue carries Packet values.
type SetupPacket struct {
	// Request is the control request itself.
	Request Request

	// Data is the optional data-stage buffer. It is nil if Request.Length is
	// zero or no data was supplied.
	Data []byte

	// Filter marks whether the outgoing transfer must traverse the filter
	// chain before reaching its destination.
	Filter bool

	// TransferResult is set once this transfer completes.
	TransferResult TransferResult
}

// NewSetupPacket constructs a SetupPacket per spec.md §4.1: if
// request.Length is zero or data is nil, the payload is empty.
func NewSetupPacket(request Request, data []byte, filter bool) *SetupPacket {
	sp := &SetupPacket{Request: request, Filter: filter}
	if request.Length != 0 && data != nil {
		sp.Data = data
	}
	return sp
}

// Clone returns a deep copy of sp.
func (sp *SetupPacket) Clone() *SetupPacket {
	cp := *sp
	if sp.Data != nil {
		cp.Data = append([]byte(nil), sp.Data...)
	}
	return &cp
}
