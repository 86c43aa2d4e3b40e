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

// childSignalDestination picks the process that should be notified of
// tg's next state transition: an attached tracer takes priority over the
// real parent.
func (tg *ThreadGroup) childSignalDestination() *ThreadGroup {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.debug != nil && tg.debug.tracingProcess != nil {
		return tg.debug.tracingProcess
	}
	return tg.parent
}

// queueChildSignal rebinds tg's entry to its current destination with no
// resource usage attached (used by the stop and continue paths, which
// don't carry accounting).
func (tg *ThreadGroup) queueChildSignal(reason ExitReason, status int32) {
	tg.bindChildSignal(reason, status, ResourceUsage{})
}

// bindChildSignal relies on tg owning exactly one reusable
// queue entry for its own state transitions. Under childSignalLock, if
// the entry is currently linked on a previous destination's queue it is
// detached there first (under that destination's own process lock,
// consistent with the lock order below: childSignalLock may be
// acquired before a destination's queued lock, never the reverse); the
// entry is then repopulated and handed to the new destination via
// Enqueue, which is what actually places it on a queue or the
// blocked-deferred list per the ordinary ignore/block rules (§4.2's
// default-ignore class covers CHILD_PROCESS_ACTIVITY, so a destination
// with no tracer and no handler for it defers it for wait rather than
// discarding it).
func (tg *ThreadGroup) bindChildSignal(reason ExitReason, status int32, usage ResourceUsage) {
	dest := tg.childSignalDestination()
	if dest == nil {
		return
	}

	tg.childSignalLock.Lock()
	if tg.childEntry == nil {
		tg.childEntry = NewSignalQueueEntry(linux.SignalInfo{}, nil, nil)
	}
	entry := tg.childEntry
	oldDest := tg.childEntryDest
	tg.childEntryDest = dest
	tg.pendingUsage = usage

	if oldDest != nil {
		oldDest.mu.Lock()
		entry.Detach()
		oldDest.mu.Unlock()
	}
	tg.childSignalLock.Unlock()

	entry.Info = linux.SignalInfo{
		Signal:    linux.ChildProcessActivity,
		Code:      int32(reason),
		SenderPID: tg.PID,
		Parameter: int64(status),
	}
	entry.delivered = false
	entry.onRemove = func(*SignalQueueEntry) {
		tg.childSignalLock.Lock()
		tg.childEntryDest = nil
		tg.childSignalLock.Unlock()

		tg.mu.Lock()
		stillCurrent := tg.ExitReason == reason && tg.ExitStatus == status
		tg.mu.Unlock()
		if stillCurrent && tg.Lifecycle != nil {
			tg.Lifecycle.MarkCollectible(tg)
		}
	}

	dest.Enqueue(nil, linux.ChildProcessActivity, entry, false)
}

// exitReasonFromCode recovers the ExitReason a child signal's Code field
// encodes; a child signal reuses Code to carry the reason rather than a
// conventional sigcode.
func exitReasonFromCode(code int32) ExitReason {
	return ExitReason(code)
}
