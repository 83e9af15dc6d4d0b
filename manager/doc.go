// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package manager implements the Manager of spec.md §4.7: the orchestrator
// that owns the device/host proxies, builds the per-endpoint relay
// topology, drives the IDLE → SETUP → RELAYING → STOPPING → IDLE state
// machine, and admits filters and injectors.
//
// Its shape is grounded on the teacher's proxy.Manager
// (github.com/danjacques/gopushpixels/proxy): an RWMutex-guarded set of
// tables mutated only at well-defined points, plus package-level
// prometheus monitoring, generalized here from "one entry per proxied
// pixel device" to "one entry per relayed USB endpoint-direction."
package manager
