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

// ThreadWaker is the scheduler wake primitive:
// something that can interrupt one thread's sleep. Production code
// installs a real implementation per Task; tests may leave it nil, in
// which case the wake is silently skipped and the thread is expected to
// poll signalPending on its own schedule.
type ThreadWaker interface {
	Wake()
}

// SetThreadWaker installs t's wake collaborator.
func (t *Task) SetThreadWaker(w ThreadWaker) {
	t.waker = w
}

// Enqueue places sig (and, if entry is
// non-nil, a rich queue entry) into thread.queue/pending or
// process.queue/pending, honoring the blocked-deferred and ignore rules,
// then waking suitable threads. t is the destination thread, or nil for
// a process-wide send.
func (tg *ThreadGroup) Enqueue(t *Task, sig linux.Signal, entry *SignalQueueEntry, force bool) {
	tg.mu.Lock()
	toComplete := tg.enqueueLocked(t, sig, entry, force)
	tg.mu.Unlock()
	if toComplete != nil {
		toComplete.complete()
	}
}

func (tg *ThreadGroup) enqueueLocked(t *Task, sig linux.Signal, entry *SignalQueueEntry, force bool) *SignalQueueEntry {
	if force && t != nil {
		t.blocked.Remove(sig)
		if t.running.Contains(sig) {
			tg.killProcessLocked()
			return nil
		}
	}

	ignored := tg.ignored.Contains(sig)
	blocked := t != nil && t.blocked.Contains(sig)
	handled := tg.handled.Contains(sig)
	hasTracer := tg.debug != nil && tg.debug.tracingProcess != nil
	isChild := sig == linux.ChildProcessActivity

	if entry != nil {
		entry.Target = t
		if entry.Delivered() {
			return nil
		}
		defaultIgnore := !handled && linux.IsDefaultIgnore(sig)
		switch {
		case (ignored || defaultIgnore) && !hasTracer:
			if isChild {
				tg.blockedDeferred.PushBack(entry)
				tg.wakeLocked(t, sig, signalPendingChildOnly)
				return nil
			}
			return entry
		case blocked:
			tg.blockedDeferred.PushBack(entry)
			if isChild {
				tg.wakeLocked(t, sig, signalPendingChildOnly)
			}
		default:
			if t != nil {
				t.queue.PushBack(entry)
			} else {
				tg.queue.PushBack(entry)
			}
			tg.wakeLocked(t, sig, signalPendingAny)
		}
		return nil
	}

	if !ignored {
		if t != nil {
			t.pending.Add(sig)
		} else {
			tg.pending.Add(sig)
		}
		if !blocked {
			tg.wakeLocked(t, sig, signalPendingAny)
		}
	}
	return nil
}

// killProcessLocked upgrades a force-send against a signal already in
// service on the target thread into an immediate process-wide KILL.
func (tg *ThreadGroup) killProcessLocked() {
	tg.pending.Add(linux.NonMaskableTerminal)
	tg.wakeLocked(nil, linux.NonMaskableTerminal, signalPendingAny)
}

// wakeLocked raises signalPending on the affected thread(s) and wakes
// them per the wake policy below: a ChildOnly raise only wakes threads
// that are suspended, and process-wide sends skip threads that block the
// signal except for CHILD_PROCESS_ACTIVITY, which may still raise those
// threads to ChildOnly.
func (tg *ThreadGroup) wakeLocked(target *Task, sig linux.Signal, level signalPendingState) {
	isChild := sig == linux.ChildProcessActivity
	if isChild {
		tg.childWait.Signal()
	}

	if target != nil {
		target.signalPending = target.signalPending.raise(level)
		if level == signalPendingChildOnly && !target.suspended {
			return
		}
		if target.waker != nil {
			target.waker.Wake()
		}
		return
	}

	for _, task := range tg.tasks {
		taskLevel := level
		if task.blocked.Contains(sig) {
			if !isChild {
				continue
			}
			taskLevel = signalPendingChildOnly
		}
		task.signalPending = task.signalPending.raise(taskLevel)
		if taskLevel == signalPendingChildOnly && !task.suspended {
			continue
		}
		if task.waker != nil {
			task.waker.Wake()
		}
	}
}

// SendToProcess is the process-scoped send wrapper
// that adds STOP/CONTINUE/KILL barrier coordination on top of Enqueue.
func (tg *ThreadGroup) SendToProcess(sig linux.Signal, entry *SignalQueueEntry, force bool) {
	tg.mu.Lock()
	switch sig {
	case linux.NonMaskableSuspend:
		if !tg.pending.Contains(linux.NonMaskableTerminal) {
			tg.stopEvent.Unsignal()
		}
	case linux.NonMaskableResume:
		tg.pending.Remove(linux.NonMaskableSuspend)
		tg.mu.Unlock()
		tg.stopEvent.Signal()
		tg.Enqueue(nil, sig, entry, force)
		return
	case linux.NonMaskableTerminal:
		tg.pending.Remove(linux.NonMaskableSuspend)
		tg.pending.Remove(linux.NonMaskableResume)
		tg.mu.Unlock()
		tg.stopEvent.Signal()
		tg.Enqueue(nil, sig, entry, force)
		return
	}
	tg.mu.Unlock()
	tg.Enqueue(nil, sig, entry, force)
}
