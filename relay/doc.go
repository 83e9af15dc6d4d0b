// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package relay implements the Relay Queue and Relayer of spec.md §4.3-4.5:
// the bounded FIFO that merges injected and proxy-read traffic for one
// endpoint-direction, and the worker that pumps packets between a device
// proxy and a host proxy through a filter chain.
//
// A Relayer's worker is a single goroutine, started and cooperatively
// halted via context.Context, the idiomatic analogue of the
// thread-create/atomic-halt-flag/thread-join triad spec.md §9 asks to be
// re-architected away from, grounded on the halt/shutdown-channel idiom in
// the teacher's device/dispatcher.go and proxy/autoresume.go.
package relay
