// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package inject

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/neo4reo/USBProxy/usbpacket"
)

type recordingSink struct {
	mu       sync.Mutex
	packets  []*usbpacket.Packet
	setups   []*usbpacket.SetupPacket
	fullNext bool
}

func (s *recordingSink) InjectPacket(pkt *usbpacket.Packet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fullNext {
		return false
	}
	s.packets = append(s.packets, pkt)
	return true
}

func (s *recordingSink) InjectSetup(sp *usbpacket.SetupPacket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setups = append(s.setups, sp)
	return true
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packets)
}

func TestSequenceInjectorReplaysInOrder(t *testing.T) {
	sink := &recordingSink{}
	s := &SequenceInjector{
		Packets: []*usbpacket.Packet{
			{EndpointAddress: 0x81, Payload: []byte{1}},
			{EndpointAddress: 0x81, Payload: []byte{2}},
		},
		Interval: time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Run(ctx, sink); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if got := sink.count(); got != 2 {
		t.Fatalf("got %d injected packets, want 2", got)
	}
	if sink.packets[0].Payload[0] != 1 || sink.packets[1].Payload[0] != 2 {
		t.Fatalf("packets out of order: %v", sink.packets)
	}
}

func TestSequenceInjectorStopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	s := &SequenceInjector{
		Packets:  []*usbpacket.Packet{{EndpointAddress: 0x81}},
		Interval: time.Hour,
		Repeat:   true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, sink) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected context error, got nil")
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSequenceInjectorEmptyListReturnsImmediately(t *testing.T) {
	s := &SequenceInjector{}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Run(ctx, &recordingSink{}); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
