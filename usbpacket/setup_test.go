// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package usbpacket

import (
	"testing"
)

func TestRequestMarshalRoundTrip(t *testing.T) {
	req := Request{
		RequestType: 0x80,
		Request:     RequestGetDescriptor,
		Value:       0x0100,
		Index:       0,
		Length:      18,
	}

	buf, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(buf) != RequestSize {
		t.Fatalf("Marshal returned %d bytes, want %d", len(buf), RequestSize)
	}

	// wValue is little-endian, so 0x0100 is encoded low-byte-first.
	if buf[2] != 0x00 || buf[3] != 0x01 {
		t.Fatalf("wValue not little-endian: % x", buf[2:4])
	}

	got, err := UnmarshalRequest(buf)
	if err != nil {
		t.Fatalf("UnmarshalRequest: %v", err)
	}
	if *got != req {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", *got, req)
	}
}

func TestRequestIsDeviceToHost(t *testing.T) {
	in := Request{RequestType: 0x80}
	if !in.IsDeviceToHost() {
		t.Fatalf("expected IsDeviceToHost true for 0x80")
	}
	out := Request{RequestType: 0x00}
	if out.IsDeviceToHost() {
		t.Fatalf("expected IsDeviceToHost false for 0x00")
	}
}

func TestNewSetupPacketEmptyPayload(t *testing.T) {
	req := Request{RequestType: 0x00, Request: RequestSetConfiguration, Value: 1, Length: 0}

	sp := NewSetupPacket(req, []byte{0xaa}, false)
	if sp.Data != nil {
		t.Fatalf("expected nil Data when Length == 0, got %v", sp.Data)
	}

	sp = NewSetupPacket(req, nil, false)
	if sp.Data != nil {
		t.Fatalf("expected nil Data when data == nil, got %v", sp.Data)
	}

	req.Length = 1
	sp = NewSetupPacket(req, []byte{0xaa}, false)
	if len(sp.Data) != 1 {
		t.Fatalf("expected 1-byte Data, got %v", sp.Data)
	}
}

func TestSetupPacketCloneIndependence(t *testing.T) {
	sp := NewSetupPacket(Request{Length: 2}, []byte{1, 2}, true)
	cp := sp.Clone()
	cp.Data[0] = 0xff

	if sp.Data[0] == 0xff {
		t.Fatalf("Clone shares backing array with original")
	}
}

func TestPacketDirectionHelpers(t *testing.T) {
	p := &Packet{EndpointAddress: 0x81}
	if !p.IsIn() {
		t.Fatalf("expected IsIn for address 0x81")
	}
	if p.EndpointNumber() != 1 {
		t.Fatalf("expected endpoint number 1, got %d", p.EndpointNumber())
	}
}
