// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package inject

import (
	"context"
	"time"

	"github.com/neo4reo/USBProxy/usbpacket"
)

// SequenceInjector replays a fixed list of Packets at a steady interval,
// stopping once the list is exhausted or ctx is cancelled, in the same
// timer-driven pacing style as the teacher's replay.Player.
//
// SequenceInjector is not safe for concurrent use; its exported fields must
// not change once Run has been called.
type SequenceInjector struct {
	// Packets is the ordered list of packets to inject.
	Packets []*usbpacket.Packet
	// Interval is the delay between successive injections.
	Interval time.Duration
	// Repeat, if true, restarts from the first packet once the list is
	// exhausted, continuing until ctx is cancelled.
	Repeat bool
}

// Run implements Injector.
func (s *SequenceInjector) Run(ctx context.Context, sink PacketSink) error {
	if len(s.Packets) == 0 {
		return nil
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		sink.InjectPacket(s.Packets[i].Clone())
		i++
		if i >= len(s.Packets) {
			if !s.Repeat {
				return nil
			}
			i = 0
		}
		timer.Reset(s.Interval)
	}
}
