// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package manager

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/neo4reo/USBProxy/filter"
	"github.com/neo4reo/USBProxy/inject"
	"github.com/neo4reo/USBProxy/proxy"
	"github.com/neo4reo/USBProxy/relay"
	"github.com/neo4reo/USBProxy/support/logging"
	"github.com/neo4reo/USBProxy/usbdevice"
	"github.com/neo4reo/USBProxy/usberror"
)

// ModelBuilder enumerates dp's descriptors and returns the resulting device
// model, per spec.md §4.7 start_control_relaying step 3. Descriptor parsing
// itself lives in package usbdevice; ModelBuilder is the seam between that
// and a concrete DeviceProxy, set by the caller that wires a Manager
// together (mirroring how the teacher's AddressRegistry is supplied rather
// than hard-coded into proxy.Manager).
type ModelBuilder func(ctx context.Context, dp proxy.DeviceProxy) (usbdevice.Model, error)

// Manager is the orchestrator of spec.md §4.7. The zero value is not
// usable; construct with New.
type Manager struct {
	// Logger is the logger instance to use. If nil, no logs are generated.
	Logger logging.L

	deviceProxy  proxy.DeviceProxy
	hostProxy    proxy.HostProxy
	modelBuilder ModelBuilder

	st status

	// mu guards the relay tables (ep0, inRelays, outRelays, claimedIfaces,
	// device) against concurrent start/stop/set_config transitions, and is
	// the "short-lived read capability" spec.md §9 asks for: every inject_*
	// call holds mu for read for the duration of its status check plus
	// queue push, closing the race window between checking status and
	// enqueuing.
	mu            sync.RWMutex
	device        usbdevice.Model
	ep0Endpoint   *usbdevice.EndpointRef
	ep0           *relay.ControlRelayer
	inRelays      [16]*relay.DataRelayer
	outRelays     [16]*relay.DataRelayer
	claimedIfaces []uint8

	// tableMu guards filters/injectors, which are only ever mutated while
	// st is Idle (spec.md §3's invariant), kept separate from mu since
	// queries over the relay tables must not block on filter/injector
	// mutation and vice versa.
	tableMu   sync.Mutex
	filters   []filter.Registration
	injectors []inject.Registration

	relayCtx    context.Context
	relayCancel context.CancelFunc

	injectorCancel []context.CancelFunc
	injectorDone   []chan struct{}
}

// New constructs a Manager bound to the given proxies, using builder to
// enumerate the device model during start_control_relaying.
func New(dp proxy.DeviceProxy, hp proxy.HostProxy, builder ModelBuilder) *Manager {
	return &Manager{
		deviceProxy:  dp,
		hostProxy:    hp,
		modelBuilder: builder,
	}
}

// Status returns the Manager's current lifecycle status.
func (m *Manager) Status() Status { return m.st.load() }

func (m *Manager) logger() logging.L { return logging.Must(m.Logger) }

// AddFilter registers f, appending it to the end of the chain. Legal only
// while Idle, per spec.md §4.7.
func (m *Manager) AddFilter(f filter.Filter, owned bool) error {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	if !m.st.is(Idle) {
		return errors.Wrap(usberror.ErrInvalidStateForOperation, "add_filter")
	}
	m.filters = append(m.filters, filter.Registration{Filter: f, Owned: owned})
	return nil
}

// RemoveFilter removes the filter at index i, preserving the order of the
// rest. Legal only while Idle.
func (m *Manager) RemoveFilter(i int) error {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	if !m.st.is(Idle) {
		return errors.Wrap(usberror.ErrInvalidStateForOperation, "remove_filter")
	}
	if i < 0 || i >= len(m.filters) {
		return errors.Wrap(usberror.ErrIndexOutOfRange, "remove_filter")
	}
	m.filters = append(m.filters[:i], m.filters[i+1:]...)
	return nil
}

// FilterCount returns the number of registered filters.
func (m *Manager) FilterCount() int {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	return len(m.filters)
}

// AddInjector registers j. Legal only while Idle.
func (m *Manager) AddInjector(j inject.Injector, owned bool) error {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	if !m.st.is(Idle) {
		return errors.Wrap(usberror.ErrInvalidStateForOperation, "add_injector")
	}
	m.injectors = append(m.injectors, inject.Registration{Injector: j, Owned: owned})
	return nil
}

// RemoveInjector removes the injector at index i. Legal only while Idle.
func (m *Manager) RemoveInjector(i int) error {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	if !m.st.is(Idle) {
		return errors.Wrap(usberror.ErrInvalidStateForOperation, "remove_injector")
	}
	if i < 0 || i >= len(m.injectors) {
		return errors.Wrap(usberror.ErrIndexOutOfRange, "remove_injector")
	}
	m.injectors = append(m.injectors[:i], m.injectors[i+1:]...)
	return nil
}

// InjectorCount returns the number of registered injectors.
func (m *Manager) InjectorCount() int {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	return len(m.injectors)
}

// Device returns the currently enumerated device model, or nil outside of
// SETUP/RELAYING.
func (m *Manager) Device() usbdevice.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

// DataRelayCount returns the number of currently active data relayers
// (both directions), used by tests to assert topology extension.
func (m *Manager) DataRelayCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.inRelays {
		if r != nil {
			n++
		}
	}
	for _, r := range m.outRelays {
		if r != nil {
			n++
		}
	}
	return n
}
