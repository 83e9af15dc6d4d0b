// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package manager

import (
	"github.com/neo4reo/USBProxy/usbpacket"
)

// Manager implements inject.PacketSink so it can be passed directly to an
// Injector's Run method, and so its own inject_* operations share one
// implementation.
//
// Both methods take mu for read over the whole check-status-then-enqueue
// sequence, closing the race spec.md §9 calls out: a concurrent
// stop_relaying takes mu for write before nilling out a relay, so either
// the injection is already queued on a live relay, or it observes the
// relay gone/status non-Relaying and fails cleanly.

// InjectPacket enqueues pkt onto the data relayer bound to its endpoint
// address, per spec.md §4.6. It returns false if the Manager is not
// Relaying, no relayer is bound to that endpoint, or the relayer's queue is
// full.
func (m *Manager) InjectPacket(pkt *usbpacket.Packet) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.st.is(Relaying) {
		return false
	}

	num := pkt.EndpointNumber()
	if int(num) >= len(m.inRelays) {
		return false
	}

	var r interface{ Inject(*usbpacket.Packet) bool }
	if pkt.IsIn() {
		if m.inRelays[num] == nil {
			return false
		}
		r = m.inRelays[num]
	} else {
		if m.outRelays[num] == nil {
			return false
		}
		r = m.outRelays[num]
	}
	return r.Inject(pkt)
}

// InjectSetup enqueues sp onto the EP0 relayer. It returns false if the
// Manager is not Relaying.
func (m *Manager) InjectSetup(sp *usbpacket.SetupPacket) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.st.is(Relaying) || m.ep0 == nil {
		return false
	}
	return m.ep0.Inject(sp)
}

// InjectSetupIn enqueues a host-originated control transfer built from
// request, with no data stage, per spec.md §4.6's inject_setup_in.
func (m *Manager) InjectSetupIn(request usbpacket.Request, filter bool) bool {
	return m.InjectSetup(usbpacket.NewSetupPacket(request, nil, filter))
}

// InjectSetupOut enqueues a host-originated control transfer carrying data,
// per spec.md §4.6's inject_setup_out.
func (m *Manager) InjectSetupOut(request usbpacket.Request, data []byte, filter bool) bool {
	return m.InjectSetup(usbpacket.NewSetupPacket(request, data, filter))
}
