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
	"time"

	"github.com/cenkalti/backoff"

	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
)

// isFaultSignal reports whether sig is one of the architectural fault
// signals that get forwarded to a connected kernel debugger even without a
// tracer attached.
func isFaultSignal(sig linux.Signal) bool {
	switch sig {
	case linux.IllegalInstruction, linux.BusError, linux.MathError, linux.AccessViolation:
		return true
	default:
		return false
	}
}

// tracerBreak is the tracer interposition protocol. With no tracer attached it only
// forwards a narrow set of fatal signals to the kernel debugger transport
// and returns info unchanged. With a tracer attached it runs the full
// interposition protocol: acquire the tracer lock (degrading to a stop
// wait if another thread is already collecting the process), optionally
// collect every other thread into the stop barrier, hand the signal to
// the tracer, wait for its continue, and apply any step command the
// tracer left behind.
func (tg *ThreadGroup) tracerBreak(t *Task, info linux.SignalInfo, alreadyStopped bool) linux.SignalInfo {
	tracer := tg.Tracer()
	if tracer == nil {
		if tg.Debugger != nil && tg.Debugger.Connected() {
			tg.mu.Lock()
			handled := tg.handled.Contains(info.Signal)
			tg.mu.Unlock()
			if info.Signal == linux.Abort || (!handled && isFaultSignal(info.Signal)) {
				tg.Debugger.Forward(t, info.Signal)
			}
		}
		return info
	}

	tg.mu.Lock()
	debug := tg.debug
	tg.mu.Unlock()
	if debug == nil {
		return info
	}

	boff := backoff.NewExponentialBackOff()
	for !debug.tracerLock.TryLock() {
		tg.mu.Lock()
		collecting := debug.tracerStopRequested
		tg.mu.Unlock()
		if collecting {
			tg.stopEvent.Wait()
			continue
		}
		time.Sleep(boff.NextBackOff())
	}
	defer debug.tracerLock.Unlock()

	tg.mu.Lock()
	stillAttached := debug.tracingProcess != nil
	tg.mu.Unlock()
	if !stillAttached {
		return info
	}

	if info.Signal == linux.Trap {
		tg.mu.Lock()
		prevCmd := debug.debugCommand
		br := debug.breakRange
		tg.mu.Unlock()
		if (prevCmd == DebugCommandSingleStep || prevCmd == DebugCommandRangeStep) && t.Arch != nil {
			t.Arch.ClearSingleStep()
		}
		if prevCmd == DebugCommandRangeStep && t.Arch != nil && !br.Contains(t.Arch.IP()) {
			t.Arch.SetSingleStep()
			return linux.SignalInfo{}
		}
	}

	reason := ExitTrapped
	if info.Signal == linux.NonMaskableResume {
		reason = ExitContinued
	}

	tg.mu.Lock()
	if tg.pending.Contains(linux.NonMaskableTerminal) || t.pending.Contains(linux.NonMaskableTerminal) {
		tg.mu.Unlock()
		return info
	}
	debug.debugCommand = DebugCommandNone
	tg.stopEvent.Unsignal()
	tg.mu.Unlock()

	tg.mu.Lock()
	if !alreadyStopped && !t.stopped {
		t.stopped = true
		tg.stoppedThreadCount++
	}
	debug.debugLeaderThread = t
	debug.tracerSignalInformation = info
	debug.tracerStopRequested = true
	needCollect := tg.threadCount > 1
	tg.signalAllStoppedIfComplete()
	tg.mu.Unlock()

	if needCollect {
		tg.requestStopAll(t)
		debug.allStoppedEvent.Wait()
	}

	tg.mu.Lock()
	debug.allStoppedEvent.Unsignal()
	debug.tracerStopRequested = false
	tg.pending.Remove(linux.NonMaskableSuspend)
	for _, task := range tg.tasks {
		task.pending.Remove(linux.NonMaskableSuspend)
	}
	tg.mu.Unlock()

	tg.bindChildSignal(reason, int32(info.Signal), ResourceUsage{})

	tg.stopEvent.Wait()

	tg.mu.Lock()
	if t.stopped {
		t.stopped = false
		tg.stoppedThreadCount--
	}
	result := debug.tracerSignalInformation
	cmd := debug.debugCommand
	brange := debug.breakRange
	debug.tracerStopRequested = false
	debug.debugLeaderThread = nil
	debug.debugCommand = DebugCommandNone
	tg.mu.Unlock()

	debug.allStoppedEvent.Unsignal()

	if t.Arch != nil {
		switch cmd {
		case DebugCommandSingleStep:
			t.Arch.SetSingleStep()
		case DebugCommandRangeStep:
			if brange.Contains(t.Arch.IP()) {
				t.Arch.SetSingleStep()
			} else {
				t.Arch.ClearSingleStep()
			}
		default:
			t.Arch.ClearSingleStep()
		}
	}

	tg.mu.Lock()
	killPending := tg.pending.Contains(linux.NonMaskableTerminal)
	tg.mu.Unlock()
	if killPending {
		return result
	}
	if result.Signal != info.Signal {
		switch result.Signal {
		case linux.NonMaskableTerminal, linux.NonMaskableSuspend, linux.NonMaskableResume:
			tg.SendToProcess(result.Signal, nil, false)
		}
	}

	return result
}

// ContinueTracee is the tracer-side half of the break protocol: it
// supplies the signal to actually deliver to the tracee (0 suppresses it,
// a different number substitutes it, the same number passes it through
// unchanged), optionally arms a single-step or range-step command for the
// tracee's next round, and releases the tracee from its stopEvent wait.
func (tg *ThreadGroup) ContinueTracee(info linux.SignalInfo, cmd DebugCommand, br BreakRange) {
	tg.mu.Lock()
	if tg.debug != nil {
		tg.debug.tracerSignalInformation = info
		tg.debug.debugCommand = cmd
		tg.debug.breakRange = br
	}
	tg.mu.Unlock()
	tg.stopEvent.Signal()
}

// PendingTraceeSignal returns the signal information the tracee most
// recently reported to the tracer-break protocol, for a tracer deciding
// how to call ContinueTracee.
func (tg *ThreadGroup) PendingTraceeSignal() linux.SignalInfo {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.debug == nil {
		return linux.SignalInfo{}
	}
	return tg.debug.tracerSignalInformation
}

// requestStopAll posts the process-wide stop signal so every other thread
// of tg joins the current stop barrier the next time it checks
// non-maskable signals.
// exclude's own bookkeeping has already been updated by the caller.
func (tg *ThreadGroup) requestStopAll(exclude *Task) {
	tg.mu.Lock()
	tg.pending.Add(linux.NonMaskableSuspend)
	tg.wakeLocked(nil, linux.NonMaskableSuspend, signalPendingAny)
	tg.mu.Unlock()
}
