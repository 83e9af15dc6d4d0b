// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package usbpacket defines the value objects that cross relay queues:
// Packet, a direction-tagged byte buffer bound for one data endpoint, and
// SetupPacket, a USB control request bound for EP0.
//
// Both types are shared, read-only objects once pushed onto a Queue: the
// goroutine that popped a value owns it until it either hands it to a proxy
// or drops it via the filter chain.
package usbpacket
