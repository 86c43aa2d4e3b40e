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

// ExitReason classifies how a process left user-mode execution, reported
// through the child signal path and wait-family syscalls.
type ExitReason int32

const (
	// ExitNone is the zero value: the process has not exited.
	ExitNone ExitReason = iota
	ExitExited
	ExitKilled
	ExitDumped
	ExitStopped
	ExitContinued
	ExitTrapped
)

// ResourceUsage is the opaque per-process resource accounting the wait
// family accumulates into a parent on reap. The real fields
// (user/system time, page faults, ...) belong to the usage subsystem,
// which is out of scope here; only the accumulation contract is
// modeled.
type ResourceUsage struct {
	UserTimeNanos   int64
	SystemTimeNanos int64
}

// Add accumulates other into r.
func (r *ResourceUsage) Add(other ResourceUsage) {
	r.UserTimeNanos += other.UserTimeNanos
	r.SystemTimeNanos += other.SystemTimeNanos
}

// ThreadGroup is a process's signal-relevant state. It is
// intentionally much narrower than a real process object: pid/ppid/pgid
// bookkeeping and the child list are kept here only to the extent the
// signal subsystem needs them (permission checks, wait, process-group
// sends); everything else (scheduler, memory, fds, ...) is out of scope
//.
type ThreadGroup struct {
	mu processSignalMutex // the per-process queued lock.

	PID  int32
	PPID int32
	PGID int32
	SID  int32

	// Name is the process name surfaced by the fatal-signal debug print
	// (§6 "Observable outputs"). Empty is a valid value for processes
	// that never set one.
	Name string

	Creds *auth.Credentials

	tasks       []*Task
	threadCount int

	// ignored and handled are mutually exclusive (invariant 2): updating
	// handled implicitly clears the same bits from ignored.
	ignored linux.SignalSet
	handled linux.SignalSet
	pending linux.SignalSet

	queue           sigQueueList // process-wide queue.
	blockedDeferred sigQueueList // entries blocked at enqueue time.

	// handler is the single user-mode trampoline every handled signal is
	// delivered through; nil means no
	// trampoline has been installed.
	handler linux.Sigaction

	// stopEvent is unsignaled while every runnable thread of the process
	// must be suspended in stop (invariant 5).
	stopEvent *Event

	stoppedThreadCount int

	debug *debugData // nil unless a tracer is attached.

	childSignalLock childSignalMutex
	childEntry      *SignalQueueEntry // the one reusable per-process entry.
	childEntryDest  *ThreadGroup      // destination childEntry is currently linked into, if any.
	pendingUsage    ResourceUsage     // usage attached to the most recent bindChildSignal.

	ExitReason ExitReason
	ExitStatus int32

	parent   *ThreadGroup
	children []*ThreadGroup

	// childWait is signaled whenever a child's state changes in a way
	// WaitForChildProcess might care about, and unsignaled once drained.
	// It models the scheduler's wait-queue collaborator.
	childWait *Event

	ChildResourceUsage ResourceUsage

	// Debugger is the kernel-debugger transport collaborator, consulted by TracerBreak when no tracer is attached.
	Debugger KernelDebugger

	// Lifecycle is the process/thread object lifecycle collaborator,
	// notified once this process's child-signal entry has finished being
	// delivered for its current (ExitReason, ExitStatus). Nil is a valid
	// value: it simply means no one is listening for collectibility.
	Lifecycle ProcessLifecycle
}

// NewThreadGroup constructs a process with one initial thread.
func NewThreadGroup(pid, ppid, pgid, sid int32, creds *auth.Credentials) *ThreadGroup {
	tg := &ThreadGroup{
		PID: pid, PPID: ppid, PGID: pgid, SID: sid,
		Creds:     creds,
		stopEvent: NewEvent(true), // signaled: not stopped.
		childWait: NewEvent(false),
		Debugger:  defaultDebugger,
	}
	return tg
}

// ThreadCount returns the number of threads in tg.
func (tg *ThreadGroup) ThreadCount() int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.threadCount
}

// HasTracer reports whether tg currently has a tracer attached.
func (tg *ThreadGroup) HasTracer() bool {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.debug != nil && tg.debug.tracingProcess != nil
}

// Tracer returns the attached tracer process, or nil.
func (tg *ThreadGroup) Tracer() *ThreadGroup {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.debug == nil {
		return nil
	}
	return tg.debug.tracingProcess
}

// AttachTracer attaches tracer to tg's debug data, creating it if absent.
func (tg *ThreadGroup) AttachTracer(tracer *ThreadGroup) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.debug == nil {
		tg.debug = &debugData{}
	}
	tg.debug.tracingProcess = tracer
	tg.debug.allStoppedEvent = NewEvent(false)
}

// DetachTracer clears tg's attached tracer.
func (tg *ThreadGroup) DetachTracer() {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.debug != nil {
		tg.debug.tracingProcess = nil
	}
}

// AddChild records child as a child of tg.
func (tg *ThreadGroup) AddChild(child *ThreadGroup) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	child.parent = tg
	tg.children = append(tg.children, child)
}
