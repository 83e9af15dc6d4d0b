// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package filter

import (
	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usbpacket"
)

// Action is the disposition a Filter returns for one packet or setup
// transfer.
type Action int

// Filter actions, per spec.md §4.4.
const (
	// Pass forwards the packet/setup unchanged and continues evaluating the
	// remaining chain.
	Pass Action = iota
	// Drop halts delivery: the packet/setup is not forwarded, and no further
	// filter in the chain is consulted.
	Drop
	// Replace substitutes a new packet/setup and continues evaluating the
	// remaining chain against the replacement.
	Replace
)

// Filter is the capability set of spec.md §4.4: test predicates that decide
// whether a Filter binds to a given Relayer, plus the two filtering entry
// points a bound Filter is invoked through.
type Filter interface {
	// TestDevice reports whether this filter applies to dev at all.
	TestDevice(dev usbdevice.Model) bool
	// TestConfiguration reports whether this filter applies to cfg. Only
	// consulted when binding data relays (EP0 binds before a configuration
	// exists).
	TestConfiguration(cfg *usbdevice.Configuration) bool
	// TestInterface reports whether this filter applies to ifc.
	TestInterface(ifc *usbdevice.Interface) bool
	// TestEndpoint reports whether this filter applies to ep.
	TestEndpoint(ep *usbdevice.EndpointRef) bool

	// FilterPacket is invoked for each data Packet a bound Relayer handles.
	// replacement is non-nil only when the returned Action is Replace.
	FilterPacket(pkt *usbpacket.Packet) (action Action, replacement *usbpacket.Packet)
	// FilterSetup is invoked for each SetupPacket the EP0 Relayer handles.
	// replacement is non-nil only when the returned Action is Replace.
	FilterSetup(sp *usbpacket.SetupPacket) (action Action, replacement *usbpacket.SetupPacket)
}

// Registration pairs a Filter with whether the Manager owns it (and so must
// not outlive registration bookkeeping elsewhere) or merely borrows it
// (caller retains ownership), per spec.md §3's ownership note.
type Registration struct {
	Filter Filter
	Owned  bool
}

// Binds reports whether f should be bound to a Relayer for the given
// device/configuration/interface/endpoint, per the test-predicate
// conjunction spec.md §4.7 describes for both start_control_relaying
// (device+endpoint only, no configuration yet) and start_data_relaying
// (device+configuration+interface+endpoint).
func Binds(f Filter, dev usbdevice.Model, cfg *usbdevice.Configuration, ifc *usbdevice.Interface, ep *usbdevice.EndpointRef) bool {
	if !f.TestDevice(dev) {
		return false
	}
	if cfg != nil && !f.TestConfiguration(cfg) {
		return false
	}
	if ifc != nil && !f.TestInterface(ifc) {
		return false
	}
	return f.TestEndpoint(ep)
}
