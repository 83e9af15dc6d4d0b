// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package filter implements the Filter Chain of spec.md §4.4: an ordered
// set of pluggable observers/mutators a Relayer consults for every packet
// or setup transfer it relays.
//
// Binding (which filters apply to which Relayer) is decided by the Manager
// at SETUP time by evaluating each Filter's test predicates; this package
// only defines the Filter contract and the ordered Chain that evaluates it,
// grounded on the ordered dispatch-in-registration-order pattern of the
// teacher's device/router.go Listener mechanism.
package filter
