// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package usberror defines the sentinel error kinds of spec.md §7, in the
// same sentinel-error-var-block style as ardnew-softusb/pkg/error.go, using
// github.com/pkg/errors the way the rest of this module wraps errors.
package usberror

import "github.com/pkg/errors"

var (
	// ErrProxyConnectFailure is returned when connecting to the device or
	// host proxy fails during start_control_relaying.
	ErrProxyConnectFailure = errors.New("proxy connect failure")

	// ErrProxyTransportError marks a transient read/write failure. A Relayer
	// recovers from these locally; they are never propagated synchronously.
	ErrProxyTransportError = errors.New("proxy transport error")

	// ErrProxyDisconnect marks a terminal proxy disconnect. A Relayer exits
	// its worker when it observes this and surfaces it to the Manager via
	// post-join inspection.
	ErrProxyDisconnect = errors.New("proxy disconnect")

	// ErrInvalidStateForOperation is returned when a Manager operation is
	// called while the Manager is in the wrong status for it.
	ErrInvalidStateForOperation = errors.New("invalid state for operation")

	// ErrIndexOutOfRange is returned when a filter/injector index is out of
	// bounds for a remove operation.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Disconnecter is implemented by proxy errors that know they represent a
// terminal disconnect rather than a transient transport failure.
type Disconnecter interface {
	error
	Disconnected() bool
}

// IsDisconnect reports whether err represents (or wraps) a terminal proxy
// disconnect, per spec.md §7's ProxyDisconnect kind.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProxyDisconnect) {
		return true
	}
	var d Disconnecter
	if errors.As(err, &d) {
		return d.Disconnected()
	}
	return false
}
