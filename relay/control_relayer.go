// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package relay

import (
	"context"

	"github.com/pkg/errors"

	"github.com/neo4reo/USBProxy/filter"
	"github.com/neo4reo/USBProxy/proxy"
	"github.com/neo4reo/USBProxy/support/logging"
	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usbpacket"
	"github.com/neo4reo/USBProxy/usberror"
)

// ControlRelayer is the EP0-specific Relayer: it pumps SetupPackets
// host-to-device, and synchronously extends or tears down the data relay
// topology in between forwarding the request and acknowledging it upstream,
// per spec.md §4.5's control-transfer sequence.
//
// Unlike DataRelayer, a ControlRelayer only ever reads from the host and
// writes to the device (EP0 out) and back (EP0 in); this asymmetry mirrors
// the Manager owning EP0's EndpointRef outright, per spec.md §9.
type ControlRelayer struct {
	lifecycle

	endpoint *usbdevice.EndpointRef
	device   proxy.DeviceProxy
	host     proxy.HostProxy
	chain    filter.Chain
	queue    *Queue[*usbpacket.SetupPacket]

	// OnSetConfiguration is invoked synchronously after a SET_CONFIGURATION
	// request has been forwarded to the device proxy, before the response is
	// acknowledged upstream, so the Manager can extend the relay topology to
	// match the newly active configuration (spec.md §4.5).
	OnSetConfiguration func(value uint8) error

	// OnSetInterface mirrors OnSetConfiguration for SET_INTERFACE.
	OnSetInterface func(number, alternate uint8) error

	// Logger receives Warnf calls for transient transport errors, per
	// spec.md §7's policy that these are logged and never propagated
	// synchronously. Defaults to a no-op if left nil.
	Logger logging.L
}

// NewControlRelayer builds a ControlRelayer bound to the Manager-owned EP0
// endpoint.
func NewControlRelayer(ep *usbdevice.EndpointRef, device proxy.DeviceProxy, host proxy.HostProxy) *ControlRelayer {
	return &ControlRelayer{
		endpoint: ep,
		device:   device,
		host:     host,
		queue:    NewQueue[*usbpacket.SetupPacket](),
	}
}

// Endpoint returns the synthesized EP0 endpoint.
func (r *ControlRelayer) Endpoint() *usbdevice.EndpointRef { return r.endpoint }

func (r *ControlRelayer) logger() logging.L { return logging.Must(r.Logger) }

// AddFilter binds f to this Relayer's chain. Only legal before Start.
func (r *ControlRelayer) AddFilter(f filter.Filter) { r.chain.Add(f) }

// Inject enqueues sp to be issued ahead of the next host-originated
// transfer, per spec.md §4.6. It returns false if the Queue is full.
func (r *ControlRelayer) Inject(sp *usbpacket.SetupPacket) bool { return r.queue.TryPush(sp) }

// Start launches the worker goroutine under ctx. Idempotent.
func (r *ControlRelayer) Start(ctx context.Context) { r.lifecycle.start(ctx, r.run) }

// Halt requests the worker stop.
func (r *ControlRelayer) Halt() { r.lifecycle.halt() }

// Join blocks until the worker has exited, or ctx is done.
func (r *ControlRelayer) Join(ctx context.Context) { r.lifecycle.join(ctx) }

// Dead reports whether the worker gave up permanently after a terminal
// proxy error.
func (r *ControlRelayer) Dead() bool { return r.lifecycle.isDead() }

// Err returns the error that caused the worker to give up, if any.
func (r *ControlRelayer) Err() error { return r.lifecycle.err() }

// Drain discards whatever setup packets remain queued for injection,
// returning them.
func (r *ControlRelayer) Drain() []*usbpacket.SetupPacket { return r.queue.Drain() }

func (r *ControlRelayer) run(ctx context.Context) {
	backoff := backoffInitial

	for {
		if ctx.Err() != nil {
			return
		}

		sp, ok := r.queue.TryPop()
		if !ok {
			var err error
			sp, err = r.host.ReceiveSetup(ctx, receiveTimeout)
			if err != nil {
				if usberror.IsDisconnect(err) {
					r.markDead(err)
					return
				}
				wrapped := errors.Wrapf(usberror.ErrProxyTransportError, "receive setup: %s", err)
				r.logger().Warnf("%s", wrapped)
				r.sleepBackoff(ctx, &backoff)
				continue
			}
			if sp == nil {
				continue
			}
		}

		out := sp
		if sp.Filter {
			var pass bool
			out, pass = r.chain.ApplySetup(sp)
			if !pass {
				backoff = backoffInitial
				continue
			}
		}

		if err := r.device.SendSetup(ctx, out); err != nil {
			if usberror.IsDisconnect(err) {
				r.markDead(err)
				return
			}
			wrapped := errors.Wrapf(usberror.ErrProxyTransportError, "send setup: %s", err)
			r.logger().Warnf("%s", wrapped)
			r.sleepBackoff(ctx, &backoff)
			continue
		}

		if err := r.extendTopology(out); err != nil {
			out.TransferResult = usbpacket.TransferError
		}

		if err := r.host.RespondSetup(ctx, out); err != nil {
			if usberror.IsDisconnect(err) {
				r.markDead(err)
				return
			}
			wrapped := errors.Wrapf(usberror.ErrProxyTransportError, "respond setup: %s", err)
			r.logger().Warnf("%s", wrapped)
			r.sleepBackoff(ctx, &backoff)
			continue
		}
		backoff = backoffInitial
	}
}

// extendTopology invokes OnSetConfiguration/OnSetInterface for the requests
// that change relay topology, after the wire transfer to the device has
// completed but before the host is acknowledged, per spec.md §4.5.
func (r *ControlRelayer) extendTopology(sp *usbpacket.SetupPacket) error {
	switch sp.Request.Request {
	case usbpacket.RequestSetConfiguration:
		if r.OnSetConfiguration != nil {
			return r.OnSetConfiguration(uint8(sp.Request.Value))
		}
	case usbpacket.RequestSetInterface:
		if r.OnSetInterface != nil {
			return r.OnSetInterface(uint8(sp.Request.Index), uint8(sp.Request.Value))
		}
	}
	return nil
}
