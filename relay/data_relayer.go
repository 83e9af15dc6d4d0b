// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package relay

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/neo4reo/USBProxy/filter"
	"github.com/neo4reo/USBProxy/proxy"
	"github.com/neo4reo/USBProxy/support/logging"
	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usbpacket"
	"github.com/neo4reo/USBProxy/usberror"
)

const (
	// receiveTimeout bounds each poll of the source proxy, per spec.md
	// §4.5 step 3, so the worker loop can observe ctx.Done() promptly even
	// while idle.
	receiveTimeout = 5 * time.Millisecond

	// backoffInitial and backoffMax bound the delay applied after a
	// transient send/receive error, per spec.md §4.5 step 6.
	backoffInitial = 2 * time.Millisecond
	backoffMax     = 100 * time.Millisecond
)

// DataRelayer pumps Packets for one non-control endpoint between the
// device proxy and the host proxy, merging injected traffic from its Queue,
// per spec.md §4.5. A DataRelayer is direction-specific: an IN endpoint
// reads from the device and writes to the host; an OUT endpoint reads from
// the host and writes to the device.
type DataRelayer struct {
	lifecycle

	endpoint *usbdevice.EndpointRef
	device   proxy.DeviceProxy
	host     proxy.HostProxy
	chain    filter.Chain
	queue    *Queue[*usbpacket.Packet]

	// Logger receives Warnf calls for transient transport errors, per
	// spec.md §7's policy that these are logged and never propagated
	// synchronously. Defaults to a no-op if left nil.
	Logger logging.L

	onForward func(*usbpacket.Packet)
	onDrop    func(*usbpacket.Packet)
}

// NewDataRelayer builds a DataRelayer bound to ep. The caller adds filters
// to its chain (via AddFilter) before calling Start.
func NewDataRelayer(ep *usbdevice.EndpointRef, device proxy.DeviceProxy, host proxy.HostProxy) *DataRelayer {
	return &DataRelayer{
		endpoint: ep,
		device:   device,
		host:     host,
		queue:    NewQueue[*usbpacket.Packet](),
	}
}

// Endpoint returns the endpoint this Relayer handles.
func (r *DataRelayer) Endpoint() *usbdevice.EndpointRef { return r.endpoint }

func (r *DataRelayer) logger() logging.L { return logging.Must(r.Logger) }

// AddFilter binds f to this Relayer's chain. Only legal before Start.
func (r *DataRelayer) AddFilter(f filter.Filter) { r.chain.Add(f) }

// Inject enqueues pkt to be forwarded ahead of the next proxy read, per
// spec.md §4.6. It returns false if the Queue is full.
func (r *DataRelayer) Inject(pkt *usbpacket.Packet) bool { return r.queue.TryPush(pkt) }

// Start launches the worker goroutine under ctx. Idempotent.
func (r *DataRelayer) Start(ctx context.Context) { r.lifecycle.start(ctx, r.run) }

// Halt requests the worker stop.
func (r *DataRelayer) Halt() { r.lifecycle.halt() }

// Join blocks until the worker has exited, or ctx is done.
func (r *DataRelayer) Join(ctx context.Context) { r.lifecycle.join(ctx) }

// Dead reports whether the worker gave up permanently after a terminal
// proxy error.
func (r *DataRelayer) Dead() bool { return r.lifecycle.isDead() }

// Err returns the error that caused the worker to give up, if any.
func (r *DataRelayer) Err() error { return r.lifecycle.err() }

// Drain discards whatever packets remain queued for injection, returning
// them, per the STOPPING-time queue release spec.md §3 describes.
func (r *DataRelayer) Drain() []*usbpacket.Packet { return r.queue.Drain() }

func (r *DataRelayer) source() (read func(context.Context, time.Duration) (*usbpacket.Packet, error), write func(context.Context, *usbpacket.Packet) error) {
	if r.endpoint.Direction() == usbdevice.In {
		return r.readFrom(r.device), r.writeTo(r.host)
	}
	return r.readFrom(r.host), r.writeTo(r.device)
}

func (r *DataRelayer) readFrom(p interface {
	Receive(context.Context, *usbdevice.EndpointRef, time.Duration) (*usbpacket.Packet, error)
}) func(context.Context, time.Duration) (*usbpacket.Packet, error) {
	return func(ctx context.Context, timeout time.Duration) (*usbpacket.Packet, error) {
		return p.Receive(ctx, r.endpoint, timeout)
	}
}

func (r *DataRelayer) writeTo(p interface {
	Send(context.Context, *usbdevice.EndpointRef, *usbpacket.Packet) error
}) func(context.Context, *usbpacket.Packet) error {
	return func(ctx context.Context, pkt *usbpacket.Packet) error {
		return p.Send(ctx, r.endpoint, pkt)
	}
}

// run is the worker loop: steps correspond to spec.md §4.5's numbered
// sequence (check for halt, prefer an injected packet over a fresh proxy
// read, apply the filter chain, forward, back off on transient error).
func (r *DataRelayer) run(ctx context.Context) {
	read, write := r.source()
	backoff := backoffInitial

	for {
		if ctx.Err() != nil {
			return
		}

		pkt, ok := r.queue.TryPop()
		if !ok {
			var err error
			pkt, err = read(ctx, receiveTimeout)
			if err != nil {
				if usberror.IsDisconnect(err) {
					r.markDead(err)
					return
				}
				wrapped := errors.Wrapf(usberror.ErrProxyTransportError, "receive on endpoint %s: %s", r.endpoint, err)
				r.logger().Warnf("%s", wrapped)
				r.sleepBackoff(ctx, &backoff)
				continue
			}
			if pkt == nil {
				continue
			}
		}

		out, pass := r.chain.ApplyPacket(pkt)
		if !pass {
			if r.onDrop != nil {
				r.onDrop(pkt)
			}
			backoff = backoffInitial
			continue
		}

		if err := write(ctx, out); err != nil {
			if usberror.IsDisconnect(err) {
				r.markDead(err)
				return
			}
			wrapped := errors.Wrapf(usberror.ErrProxyTransportError, "send on endpoint %s: %s", r.endpoint, err)
			r.logger().Warnf("%s", wrapped)
			r.sleepBackoff(ctx, &backoff)
			continue
		}
		if r.onForward != nil {
			r.onForward(out)
		}
		backoff = backoffInitial
	}
}

func (l *lifecycle) sleepBackoff(ctx context.Context, backoff *time.Duration) {
	t := time.NewTimer(*backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	*backoff *= 2
	if *backoff > backoffMax {
		*backoff = backoffMax
	}
}
