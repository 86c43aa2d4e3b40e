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

import (
	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
	"github.com/nocturne-kernel/ksignal/pkg/sentry/kernel/auth"
)

// signalPendingState is the tri-state wake hint: only the
// highest-strength state wakes a blocked thread; ChildOnly wakes only
// suspended threads.
type signalPendingState int32

const (
	signalPendingNone signalPendingState = iota
	signalPendingChildOnly
	signalPendingAny
)

// raise upgrades s to the higher of s and other; producers only ever raise
// this state (invariant 8), never lower it directly.
func (s signalPendingState) raise(other signalPendingState) signalPendingState {
	if other > s {
		return other
	}
	return s
}

// Task is one thread of a process (ThreadGroup), carrying the per-thread
// signal state.
type Task struct {
	// tg is the owning process. Immutable after construction.
	tg *ThreadGroup

	// Creds is this thread's identity used for permission checks.
	Creds *auth.Credentials

	// blocked is the per-thread mask: it can never contain STOP or KILL;
	// CONTINUE is removable from it but may not be blocked via the
	// blocked-mask system call (invariant 3, enforced in syscalls_signal.go).
	blocked linux.SignalSet

	// pending is the set of standard signals posted to this thread.
	pending linux.SignalSet

	// running is the set of standard signals currently being serviced on
	// this thread's stack (i.e. re-entry is masked while handling them).
	running linux.SignalSet

	// queue is this thread's queued-signal list.
	queue sigQueueList

	// signalPending is the tri-state wake hint.
	signalPending signalPendingState

	// stopped is true while this thread is parked in the stop wait
	//.
	stopped bool

	// suspended is true while this thread is blocked in
	// SuspendExecution, WaitForChildProcess, or another true suspension
	// point, as opposed to merely being descheduled. Used by the
	// ChildOnly wake policy: a wait-less consumer should not
	// be woken just because a child signal arrived.
	suspended bool

	// exiting is true once this thread has begun termination; terminate
	// uses it so the thread-termination collaborator is called at most
	// once.
	exiting bool

	// Arch is the architecture collaborator backing single-step control,
	// IP reads, and trap-frame save/restore.
	Arch ArchCollaborator

	// onExit is the thread-termination collaborator. It must
	// not return in production; tests install a hook that records the
	// call instead.
	onExit ThreadTerminator

	// waker is the scheduler wake collaborator, consulted by
	// Enqueue's wake policy.
	waker ThreadWaker
}

// SetThreadTerminator installs t's thread-termination collaborator.
func (t *Task) SetThreadTerminator(fn ThreadTerminator) {
	t.onExit = fn
}

// NewTask creates a thread belonging to tg.
func NewTask(tg *ThreadGroup, creds *auth.Credentials) *Task {
	t := &Task{tg: tg, Creds: creds}
	tg.mu.Lock()
	tg.tasks = append(tg.tasks, t)
	tg.threadCount++
	tg.mu.Unlock()
	return t
}

// ThreadGroup returns t's owning process.
func (t *Task) ThreadGroup() *ThreadGroup {
	return t.tg
}

// Blocked returns a copy of t's blocked mask.
func (t *Task) Blocked() linux.SignalSet {
	t.tg.mu.Lock()
	defer t.tg.mu.Unlock()
	return t.blocked
}
