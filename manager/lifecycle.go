// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package manager

import (
	"context"

	"github.com/pkg/errors"

	"github.com/neo4reo/USBProxy/filter"
	"github.com/neo4reo/USBProxy/inject"
	"github.com/neo4reo/USBProxy/relay"
	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usberror"
)

// StartControlRelaying connects both proxies, enumerates the device,
// builds the EP0 relay, and starts injector and EP0 worker goroutines, per
// spec.md §4.7's numbered sequence. Legal only while Idle.
func (m *Manager) StartControlRelaying(ctx context.Context) error {
	if !m.st.is(Idle) {
		return errors.Wrap(usberror.ErrInvalidStateForOperation, "start_control_relaying")
	}
	m.st.store(Setup)
	m.reportStatus(Setup)

	if err := m.deviceProxy.Connect(ctx); err != nil {
		m.st.store(Idle)
		m.reportStatus(Idle)
		return errors.Wrapf(usberror.ErrProxyConnectFailure, "connecting device proxy: %s", err)
	}

	device, err := m.modelBuilder(ctx, m.deviceProxy)
	if err != nil {
		m.deviceProxy.Disconnect()
		m.st.store(Idle)
		m.reportStatus(Idle)
		return errors.Wrap(err, "enumerating device")
	}

	ep0 := usbdevice.NewEP0Ref(device.Descriptor().MaxPacketSize0)
	ep0Relayer := relay.NewControlRelayer(ep0, m.deviceProxy, m.hostProxy)
	ep0Relayer.OnSetConfiguration = m.onSetConfiguration
	ep0Relayer.OnSetInterface = m.onSetInterface
	ep0Relayer.Logger = m.logger()

	m.tableMu.Lock()
	for _, reg := range m.filters {
		if filter.Binds(reg.Filter, device, nil, nil, ep0) {
			ep0Relayer.AddFilter(reg.Filter)
		}
	}
	injectors := append([]inject.Registration(nil), m.injectors...)
	m.tableMu.Unlock()

	if err := m.hostProxy.Connect(ctx, device); err != nil {
		m.mu.Lock()
		m.device = device
		m.ep0Endpoint = ep0
		m.ep0 = ep0Relayer
		m.mu.Unlock()
		m.StopRelaying(ctx)
		return errors.Wrapf(usberror.ErrProxyConnectFailure, "connecting host proxy: %s", err)
	}

	m.mu.Lock()
	m.device = device
	m.ep0Endpoint = ep0
	m.ep0 = ep0Relayer
	m.mu.Unlock()

	m.relayCtx, m.relayCancel = context.WithCancel(context.Background())
	m.startInjectors(injectors)
	ep0Relayer.Start(m.relayCtx)

	m.st.store(Relaying)
	m.reportStatus(Relaying)
	return nil
}

func (m *Manager) startInjectors(regs []inject.Registration) {
	m.injectorCancel = make([]context.CancelFunc, len(regs))
	m.injectorDone = make([]chan struct{}, len(regs))
	for i, reg := range regs {
		ctx, cancel := context.WithCancel(m.relayCtx)
		done := make(chan struct{})
		m.injectorCancel[i] = cancel
		m.injectorDone[i] = done
		go func(j inject.Injector) {
			defer close(done)
			if err := j.Run(ctx, m); err != nil && errors.Cause(err) != context.Canceled {
				m.logger().Warnf("injector exited: %s", err)
			}
		}(reg.Injector)
	}
}

// onSetConfiguration is the narrow callback spec.md §9 asks for, invoked by
// the EP0 Relayer between forwarding SET_CONFIGURATION to the device and
// acknowledging it upstream.
func (m *Manager) onSetConfiguration(value uint8) error {
	m.mu.RLock()
	device := m.device
	m.mu.RUnlock()
	if device == nil {
		return errors.Wrap(usberror.ErrInvalidStateForOperation, "set_config: no device")
	}
	return m.SetConfig(int(value))
}

func (m *Manager) onSetInterface(number, alternate uint8) error {
	// Reported only; spec.md §4.5 says SET_INTERFACE is "forwarded unchanged
	// but also reported." No topology change is required here because the
	// interface's endpoint set does not change across alternate settings in
	// this model.
	m.logger().Debugf("set_interface iface=%d alt=%d", number, alternate)
	return nil
}

// SetConfig applies configuration index value to both proxies, honoring
// high-speed/device-qualifier pairing, then extends the data relay
// topology, per spec.md §4.7. Called from inside the EP0 control callback,
// so it does not itself touch m.st.
func (m *Manager) SetConfig(value int) error {
	m.mu.RLock()
	device := m.device
	m.mu.RUnlock()
	if device == nil {
		return errors.Wrap(usberror.ErrInvalidStateForOperation, "set_config")
	}

	cfg := device.Configuration(uint8(value))
	if cfg == nil {
		return errors.Errorf("set_config: no such configuration %d", value)
	}
	if err := device.SetActiveConfiguration(uint8(value)); err != nil {
		return errors.Wrap(err, "set_config")
	}

	var otherSpeed *usbdevice.Configuration
	if q := device.DeviceQualifier(); q != nil {
		otherSpeed = q.Configuration(uint8(value))
	}
	highSpeed := device.IsHighSpeed()

	// original_source/lib/Manager.cpp's setConfig always passes the
	// full-speed variant in argument position 1 and the high-speed variant
	// in position 2, swapping which of cfg/otherSpeed fills each slot
	// depending on is_highspeed() rather than keeping cfg fixed in
	// position 1.
	fullSpeedCfg, highSpeedCfg := cfg, otherSpeed
	if highSpeed {
		fullSpeedCfg, highSpeedCfg = otherSpeed, cfg
	}

	if err := m.deviceProxy.SetConfig(fullSpeedCfg, highSpeedCfg, highSpeed); err != nil {
		return errors.Wrap(err, "set_config: device proxy")
	}
	if err := m.hostProxy.SetConfig(fullSpeedCfg, highSpeedCfg, highSpeed); err != nil {
		return errors.Wrap(err, "set_config: host proxy")
	}

	if err := m.startDataRelaying(device, cfg); err != nil {
		return err
	}
	dataRelayGauge.Set(float64(m.DataRelayCount()))
	return nil
}

// startDataRelaying populates in_relays/out_relays for every endpoint of
// cfg and starts their workers, per spec.md §4.7's start_data_relaying
// sequence. A configuration change re-enters this after a prior
// configuration's relays are already up, so it first tears those down
// itself rather than requiring callers to do it.
func (m *Manager) startDataRelaying(device usbdevice.Model, cfg *usbdevice.Configuration) error {
	m.tableMu.Lock()
	filters := append([]filter.Registration(nil), m.filters...)
	m.tableMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopDataRelayingLocked(context.Background())

	for _, ifc := range cfg.Interfaces() {
		for _, ep := range ifc.Endpoints() {
			num := ep.EndpointNumber()
			if ep.Direction() == usbdevice.In {
				r := relay.NewDataRelayer(ep, m.deviceProxy, m.hostProxy)
				r.Logger = m.logger()
				m.bindFiltersLocked(r, filters, device, cfg, ifc, ep)
				relay.Monitor(ep.String(), r)
				m.inRelays[num] = r
			} else {
				if num == usbdevice.EP0Address {
					continue
				}
				r := relay.NewDataRelayer(ep, m.deviceProxy, m.hostProxy)
				r.Logger = m.logger()
				m.bindFiltersLocked(r, filters, device, cfg, ifc, ep)
				relay.Monitor(ep.String(), r)
				m.outRelays[num] = r
			}
		}

		if err := m.deviceProxy.ClaimInterface(ifc.Number); err != nil {
			return errors.Wrapf(err, "claiming interface %d", ifc.Number)
		}
		m.claimedIfaces = append(m.claimedIfaces, ifc.Number)
	}

	for _, r := range m.inRelays {
		if r != nil {
			r.Start(m.relayCtx)
		}
	}
	for _, r := range m.outRelays {
		if r != nil {
			r.Start(m.relayCtx)
		}
	}
	return nil
}

func (m *Manager) bindFiltersLocked(r *relay.DataRelayer, filters []filter.Registration, device usbdevice.Model, cfg *usbdevice.Configuration, ifc *usbdevice.Interface, ep *usbdevice.EndpointRef) {
	for _, reg := range filters {
		if filter.Binds(reg.Filter, device, cfg, ifc, ep) {
			r.AddFilter(reg.Filter)
		}
	}
}

// stopDataRelaying halts and joins every data relayer (endpoints 1-15),
// releasing claimed interfaces, without touching EP0 or injectors, per the
// split spec.md §9 calls for.
func (m *Manager) stopDataRelaying(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopDataRelayingLocked(ctx)
}

// stopDataRelayingLocked is the body of stopDataRelaying for callers that
// already hold mu, such as startDataRelaying tearing down a prior
// configuration's relays before building the new one.
func (m *Manager) stopDataRelayingLocked(ctx context.Context) {
	for _, r := range m.inRelays {
		if r != nil {
			r.Halt()
		}
	}
	for _, r := range m.outRelays {
		if r != nil {
			r.Halt()
		}
	}
	for i, r := range m.inRelays {
		if r != nil {
			r.Join(ctx)
			r.Drain()
			m.inRelays[i] = nil
		}
	}
	for i, r := range m.outRelays {
		if r != nil {
			r.Join(ctx)
			r.Drain()
			m.outRelays[i] = nil
		}
	}

	for _, number := range m.claimedIfaces {
		m.deviceProxy.ReleaseInterface(number)
	}
	m.claimedIfaces = nil
}

// StopRelaying tears the session down to Idle, in the strict order spec.md
// §4.7 mandates: halt-all before join-any to avoid pairwise deadlock over
// shared proxy calls. Idempotent; a call while already Idle is a no-op.
func (m *Manager) StopRelaying(ctx context.Context) error {
	prev := m.st.load()
	if prev == Idle {
		return nil
	}
	m.st.store(Stopping)
	m.reportStatus(Stopping)

	m.mu.RLock()
	injectorCancel := m.injectorCancel
	injectorDone := m.injectorDone
	ep0 := m.ep0
	m.mu.RUnlock()

	for _, cancel := range injectorCancel {
		if cancel != nil {
			cancel()
		}
	}
	if ep0 != nil {
		ep0.Halt()
	}
	m.haltDataRelaysLocked()

	for _, done := range injectorDone {
		if done != nil {
			<-done
		}
	}
	m.injectorCancel = nil
	m.injectorDone = nil

	if ep0 != nil {
		ep0.Join(ctx)
		ep0.Drain()
	}
	m.stopDataRelaying(ctx)

	m.mu.Lock()
	ep0Endpoint := m.ep0Endpoint
	m.ep0 = nil
	m.ep0Endpoint = nil
	device := m.device
	m.device = nil
	m.mu.Unlock()
	_ = ep0Endpoint

	if m.relayCancel != nil {
		m.relayCancel()
		m.relayCancel = nil
	}

	m.hostProxy.Disconnect()
	m.deviceProxy.Disconnect()
	_ = device

	m.st.store(Idle)
	m.reportStatus(Idle)
	return nil
}

func (m *Manager) haltDataRelaysLocked() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.inRelays {
		if r != nil {
			r.Halt()
		}
	}
	for _, r := range m.outRelays {
		if r != nil {
			r.Halt()
		}
	}
}
