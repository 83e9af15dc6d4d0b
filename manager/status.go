// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package manager

import "sync/atomic"

// Status is the Manager's lifecycle state, per spec.md §3. It is stored in
// an atomic int32 so reads never race with the single-writer control
// operations that transition it.
type Status int32

const (
	// Idle means no proxy connection exists and the filter/injector tables
	// may be freely mutated.
	Idle Status = iota
	// Setup means start_control_relaying is in progress: proxies are
	// connecting and the device is being enumerated.
	Setup
	// Relaying means the EP0 relayer (and, once a configuration is active,
	// data relayers) are running.
	Relaying
	// Stopping means stop_relaying is tearing the session down.
	Stopping
)

// String renders a Status for logging.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Setup:
		return "setup"
	case Relaying:
		return "relaying"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// status wraps an atomic.Int32 so Manager's zero value starts Idle.
type status struct {
	v atomic.Int32
}

func (s *status) load() Status      { return Status(s.v.Load()) }
func (s *status) store(v Status)    { s.v.Store(int32(v)) }
func (s *status) is(v Status) bool  { return s.load() == v }
