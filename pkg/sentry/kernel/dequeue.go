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

// Dequeue is the central pull loop run at every
// user-mode return point. It selects at most one signal for delivery,
// draining the non-maskable fast path first, then the bitmap sets in
// ascending order, then the process queue and the thread queue in turn.
func (t *Task) Dequeue() (linux.SignalInfo, bool) {
	tg := t.tg

	tg.mu.Lock()
	pending := t.signalPending
	tg.mu.Unlock()
	if pending == signalPendingNone {
		return linux.SignalInfo{}, false
	}

	if sig, ok := t.checkNonMaskableSignals(); ok {
		return linux.SignalInfo{Signal: sig}, true
	}

	tg.mu.Lock()
	t.signalPending = signalPendingNone
	tg.mu.Unlock()

	tg.mu.Lock()
	if t.pending.Empty() && tg.pending.Empty() && t.queue.Empty() && tg.queue.Empty() {
		tg.mu.Unlock()
		return linux.SignalInfo{}, false
	}

	effective := t.pending.Union(tg.pending).Difference(t.blocked).Difference(t.running)
	effective.Remove(linux.NonMaskableSuspend)
	effective.Remove(linux.NonMaskableTerminal)
	tg.mu.Unlock()

	for !effective.Empty() {
		sig := effective.Lowest()
		effective.Remove(sig)

		tg.mu.Lock()
		fromThread := t.pending.Contains(sig)
		if fromThread {
			t.pending.Remove(sig)
		} else {
			tg.pending.Remove(sig)
		}
		tg.mu.Unlock()

		info := linux.SignalInfo{Signal: sig, Code: linux.CodeUser}
		result := tg.tracerBreak(t, info, false)

		if result.Signal == 0 {
			continue
		}
		if result.Signal == linux.NonMaskableResume {
			if tracer := tg.Tracer(); tracer == nil || tracer != tg.parent {
				tg.queueChildSignal(ExitContinued, int32(linux.NonMaskableResume))
			}
		}

		tg.mu.Lock()
		handled := tg.handled.Contains(result.Signal)
		mask := t.blocked
		tg.mu.Unlock()
		if !handled {
			if t.applyDefaultAction(result.Signal) {
				continue
			}
		} else if t.Arch != nil {
			t.Arch.SignalSetup(result.Signal, result, tg.Handler(), mask)
		}

		tg.mu.Lock()
		tg.restorePendingIfRemainingLocked(t)
		tg.mu.Unlock()
		return result, true
	}

	if info, ok := t.drainQueues(); ok {
		tg.mu.Lock()
		tg.restorePendingIfRemainingLocked(t)
		tg.mu.Unlock()
		return info, true
	}
	return linux.SignalInfo{}, false
}

// restorePendingIfRemainingLocked raises signalPending back to Any if any
// work remains after a dispatch, so
// the thread does not go to sleep holding unserved work.
func (tg *ThreadGroup) restorePendingIfRemainingLocked(t *Task) {
	if !t.pending.Empty() || !tg.pending.Empty() || !t.queue.Empty() || !tg.queue.Empty() || !tg.blockedDeferred.Empty() {
		t.signalPending = t.signalPending.raise(signalPendingAny)
	}
}

// drainQueues walks the process queue, then the thread queue, applying
// the per-entry default-ignore/blocked/delivered policy.
func (t *Task) drainQueues() (linux.SignalInfo, bool) {
	tg := t.tg
	if info, ok := tg.drainQueue(&tg.queue, t); ok {
		return info, true
	}
	if info, ok := tg.drainQueue(&t.queue, t); ok {
		return info, true
	}
	return linux.SignalInfo{}, false
}

func (tg *ThreadGroup) drainQueue(l *sigQueueList, t *Task) (linux.SignalInfo, bool) {
	tg.mu.Lock()
	var snapshot []*SignalQueueEntry
	l.Range(func(e *SignalQueueEntry) bool {
		snapshot = append(snapshot, e)
		return true
	})
	tg.mu.Unlock()

	for _, e := range snapshot {
		tg.mu.Lock()
		if e.Detached() {
			tg.mu.Unlock()
			continue
		}
		sig := e.Info.Signal
		handled := tg.handled.Contains(sig)
		defaultIgnore := !handled && linux.IsDefaultIgnore(sig)
		hasTracer := tg.debug != nil && tg.debug.tracingProcess != nil
		isChild := sig == linux.ChildProcessActivity

		switch {
		case defaultIgnore && !hasTracer:
			l.Remove(e)
			if isChild {
				tg.blockedDeferred.PushBack(e)
				tg.mu.Unlock()
				continue
			}
			tg.mu.Unlock()
			e.complete()
			continue

		case t.blocked.Contains(sig):
			l.Remove(e)
			tg.blockedDeferred.PushBack(e)
			tg.mu.Unlock()
			continue

		case e.Delivered():
			tg.mu.Unlock()
			continue
		}

		l.Remove(e)
		tg.mu.Unlock()

		result := tg.tracerBreak(t, e.Info, false)
		if result.Signal == 0 {
			e.complete()
			continue
		}
		e.markDelivered()
		if isChild {
			tg.mu.Lock()
			tg.blockedDeferred.PushBack(e)
			tg.mu.Unlock()
			continue
		}

		tg.mu.Lock()
		resultHandled := tg.handled.Contains(result.Signal)
		mask := t.blocked
		tg.mu.Unlock()
		if !resultHandled {
			if t.applyDefaultAction(result.Signal) {
				e.complete()
				continue
			}
		} else if t.Arch != nil {
			t.Arch.SignalSetup(result.Signal, result, tg.Handler(), mask)
		}

		out := result
		e.complete()
		return out, true
	}
	return linux.SignalInfo{}, false
}
