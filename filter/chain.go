// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package filter

import (
	"github.com/neo4reo/USBProxy/usbpacket"
)

// Chain is the ordered sequence of Filters bound to one Relayer. Evaluation
// proceeds in registration order; the first Drop halts delivery, and
// Replace substitutes the working value and continues (spec.md §4.4).
//
// Chain is built once, during SETUP, and is not safe for concurrent
// mutation; it is safe for concurrent read-only evaluation by its single
// owning Relayer.
type Chain struct {
	filters []Filter
}

// Add appends f to the chain. Only legal before the owning Relayer starts,
// per spec.md §4.5's add_filter contract.
func (c *Chain) Add(f Filter) { c.filters = append(c.filters, f) }

// Len returns the number of filters bound to this chain.
func (c *Chain) Len() int { return len(c.filters) }

// ApplyPacket runs pkt through the chain in order. ok is false if some
// filter returned Drop; otherwise the returned packet is the (possibly
// Replace-substituted) packet to forward.
func (c *Chain) ApplyPacket(pkt *usbpacket.Packet) (out *usbpacket.Packet, ok bool) {
	out = pkt
	for _, f := range c.filters {
		action, replacement := f.FilterPacket(out)
		switch action {
		case Drop:
			return nil, false
		case Replace:
			out = replacement
		case Pass:
		}
	}
	return out, true
}

// ApplySetup runs sp through the chain in order, mirroring ApplyPacket for
// control transfers.
func (c *Chain) ApplySetup(sp *usbpacket.SetupPacket) (out *usbpacket.SetupPacket, ok bool) {
	out = sp
	for _, f := range c.filters {
		action, replacement := f.FilterSetup(out)
		switch action {
		case Drop:
			return nil, false
		case Replace:
			out = replacement
		case Pass:
		}
	}
	return out, true
}
