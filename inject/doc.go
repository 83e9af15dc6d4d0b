// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package inject defines the Injector capability of spec.md §4.6: a
// Manager-admitted collaborator that pushes its own Packets and
// SetupPackets onto a running Relayer's queue, rather than consuming
// traffic off the wire itself.
//
// An Injector's Run method follows the same start-goroutine-under-context
// shape as the teacher's proxy.AutoResumeListener and replay.Player: it
// runs until its context is cancelled, or it returns on its own because it
// has nothing left to inject.
package inject
