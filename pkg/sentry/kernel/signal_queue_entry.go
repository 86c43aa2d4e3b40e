// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"

// SignalQueueEntry is a queue entry: a node holding a rich
// signal payload, optionally restricted to one destination thread, with a
// completion callback invoked exactly once when the entry leaves the
// system.
//
// An entry is owned by its creator until enqueued, then jointly owned by
// the containing process and the creator until its completion callback
// runs. The per-process child-signal entry is the one exception: it is
// allocated once, on the first transition, held in ThreadGroup.childEntry
// for the process's whole lifetime (see bindChildSignal in
// child_signal.go), and reused rather than heap-allocated per transition.
type SignalQueueEntry struct {
	sigQueueEntry // list linkage; owner == nil means detached (invariant 1).

	// Info is the signal's number, code, sender identity, and parameter.
	Info linux.SignalInfo

	// Target restricts delivery to one thread; nil means the entry is
	// eligible for any thread of the process that dequeues it.
	Target *Task

	// delivered is set once the entry has left the queue for delivery, so
	// it is no longer considered pending for a fresh dispatch.
	// Re-queuing a delivered entry is only permitted for child signals,
	// which reset it explicitly on rebind.
	delivered bool

	// onRemove is the completion callback. It runs exactly once across
	// the entry's lifetime, whether the entry was delivered, discarded as
	// ignored, or cancelled before it could be.
	onRemove func(*SignalQueueEntry)
}

// NewSignalQueueEntry constructs a detached queue entry with the given
// payload and completion callback.
func NewSignalQueueEntry(info linux.SignalInfo, target *Task, onRemove func(*SignalQueueEntry)) *SignalQueueEntry {
	return &SignalQueueEntry{Info: info, Target: target, onRemove: onRemove}
}

// Delivered reports whether the entry has already left the queue for
// delivery once.
func (e *SignalQueueEntry) Delivered() bool {
	return e.delivered
}

// markDelivered records that e has left the queue for delivery.
func (e *SignalQueueEntry) markDelivered() {
	e.delivered = true
}

// Detached reports whether e is not linked on any list (invariant 1).
// owner, not next, is the authoritative marker: a tail entry legitimately
// has next == nil while still linked.
func (e *SignalQueueEntry) Detached() bool {
	return e.owner == nil
}

// Detach unlinks e from whatever list currently owns it. Reports whether
// it was linked.
func (e *SignalQueueEntry) Detach() bool {
	if e.owner == nil {
		return false
	}
	e.owner.Remove(e)
	return true
}

// complete runs e's completion callback exactly once. Called with no
// process lock held: onRemove callbacks (e.g. the child-signal one) may
// need to acquire locks of their own.
func (e *SignalQueueEntry) complete() {
	if e.onRemove != nil {
		cb := e.onRemove
		e.onRemove = nil
		cb(e)
	}
}
