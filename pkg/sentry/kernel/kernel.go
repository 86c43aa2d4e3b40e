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

// Package kernel implements the signal delivery subsystem: per-thread and
// per-process signal queues, the non-maskable fast path, the
// dequeue/deliver and enqueue/send algorithms, the child-signal path that
// drives wait, the tracer-break debug protocol, and the system-call
// facades that front all of it.
package kernel

import linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"

// ArchCollaborator is the architecture-dependent out-of-scope contract
// this subsystem requires: single-step control, instruction-pointer
// read, and pre-signal trap-frame save/restore. The concrete
// implementation lives in pkg/sentry/arch.
type ArchCollaborator interface {
	// IP returns the thread's current instruction pointer.
	IP() uintptr

	// SingleStep reports whether architecture single-stepping is enabled.
	SingleStep() bool

	// SetSingleStep enables architecture single-stepping.
	SetSingleStep()

	// ClearSingleStep disables architecture single-stepping.
	ClearSingleStep()

	// SignalSetup modifies the trap frame in preparation for handling
	// sig through the process's handler trampoline, saving the
	// pre-signal frame so RestoreContext can undo it.
	SignalSetup(sig linux.Signal, info linux.SignalInfo, act linux.Sigaction, mask linux.SignalSet) error

	// SignalRestore restores the trap frame saved by the most recent
	// SignalSetup and returns the signal mask in effect before it.
	SignalRestore() (linux.SignalSet, error)
}

// ThreadTerminator is the process/thread lifecycle collaborator's
// exit-this-thread entry point: the non-maskable
// handler calls into it and does not return. Production code supplies an
// implementation that never returns; tests supply one that records the
// call and panics with a sentinel so the call stack unwinds visibly.
type ThreadTerminator func(t *Task)

// KernelDebugger is the kernel debugger transport collaborator: a connectivity probe and an exception service entry point used by
// TracerBreak's "no debugger attached" branch to forward fatal signals
// when no tracer is attached.
type KernelDebugger interface {
	// Connected reports whether a kernel debugger is attached to the
	// machine image.
	Connected() bool

	// Forward hands sig on thread t to the kernel debugger's exception
	// service entry point.
	Forward(t *Task, sig linux.Signal)
}

// ProcessLifecycle is the process/thread object lifecycle collaborator
// (§1, out of scope): it owns reference counting and garbage collection of
// process objects. The child-signal completion callback calls into it once
// the reusable child-signal entry carrying a given (ExitReason, ExitStatus)
// pair has finished being delivered, so the lifecycle collaborator knows
// the child is no longer needed to answer a future wait call.
type ProcessLifecycle interface {
	// MarkCollectible reports that tg's exit/stop/continue/trap/dump
	// notification has been fully delivered and tg may be garbage
	// collected once its other references are dropped.
	MarkCollectible(tg *ThreadGroup)
}

// noopDebugger is the default KernelDebugger: never connected, so
// TracerBreak's forwarding branch is a no-op unless a real debugger
// transport is wired in.
type noopDebugger struct{}

func (noopDebugger) Connected() bool            { return false }
func (noopDebugger) Forward(*Task, linux.Signal) {}

var defaultDebugger KernelDebugger = noopDebugger{}
