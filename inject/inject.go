// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package inject

import (
	"context"

	"github.com/neo4reo/USBProxy/usbpacket"
)

// PacketSink is the capability set of spec.md §4.6 that the Manager hands
// an Injector: the ability to push traffic onto one bound Relayer's queue
// without going through the wire.
type PacketSink interface {
	// InjectPacket enqueues pkt for forwarding. false means pkt was not
	// queued and was discarded (for example because the bound Relayer's queue
	// was full).
	InjectPacket(pkt *usbpacket.Packet) bool

	// InjectSetup enqueues sp for the control Relayer to issue. false means
	// sp was not queued and was discarded (for example because the queue was
	// full).
	InjectSetup(sp *usbpacket.SetupPacket) bool
}

// Injector is a Manager-admitted collaborator that generates its own
// traffic for a bound endpoint, per spec.md §4.6. Run blocks until ctx is
// cancelled or the Injector has nothing further to inject; a non-nil
// return is logged by the Manager but never treated as a relaying failure.
type Injector interface {
	Run(ctx context.Context, sink PacketSink) error
}

// Registration pairs an Injector with whether the Manager owns it, mirroring
// filter.Registration's ownership note.
type Registration struct {
	Injector Injector
	Owned    bool
}
