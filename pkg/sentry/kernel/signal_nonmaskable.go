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

// checkNonMaskableSignals runs before any mask or queue is
// consulted: KILL takes the thread down unconditionally, and STOP parks
// the thread (and, for the first thread to do so, drives the tracer-break
// protocol) until a CONTINUE or KILL releases it. It loops until neither
// is pending, returning a substituted signal if the tracer handed one
// back in place of STOP.
func (t *Task) checkNonMaskableSignals() (sig linux.Signal, deliverable bool) {
	tg := t.tg
	for {
		tg.mu.Lock()
		if tg.pending.Contains(linux.SIGKILL) || t.pending.Contains(linux.SIGKILL) {
			tg.mu.Unlock()
			t.terminate()
			return 0, false
		}
		if !tg.pending.Contains(linux.SIGSTOP) && !t.pending.Contains(linux.SIGSTOP) {
			tg.mu.Unlock()
			return 0, false
		}
		tg.pending.Remove(linux.SIGSTOP)
		t.pending.Remove(linux.SIGSTOP)

		driver := false
		if !t.stopped {
			t.stopped = true
			tg.stoppedThreadCount++
			driver = tg.stoppedThreadCount == 1
			tg.signalAllStoppedIfComplete()
		}
		tg.mu.Unlock()

		if driver {
			info := linux.SignalInfo{Signal: linux.SIGSTOP, Code: linux.CodeKernel, SenderPID: tg.PID}
			result := tg.tracerBreak(t, info, true)

			tracer := tg.Tracer()
			if result.Signal == linux.SIGSTOP {
				if tracer == nil || tracer != tg.parent {
					tg.queueChildSignal(ExitStopped, int32(linux.SIGSTOP))
				}
				tg.parkInStop(t)
				continue
			}
			if result.Signal == 0 {
				continue
			}
			return result.Signal, true
		}

		tg.parkInStop(t)
	}
}

// parkInStop waits for stopEvent and then clears this thread's stopped
// bookkeeping: the Stopped -> Continuing transition for a thread that
// isn't running the tracer-break protocol.
func (tg *ThreadGroup) parkInStop(t *Task) {
	tg.stopEvent.Wait()
	tg.mu.Lock()
	if t.stopped {
		t.stopped = false
		tg.stoppedThreadCount--
	}
	tg.mu.Unlock()
}

// signalAllStoppedIfComplete signals allStoppedEvent once every thread has
// reached the stop barrier while a tracer-collection round is in progress
// (invariant 6). Must be called with tg.mu held.
func (tg *ThreadGroup) signalAllStoppedIfComplete() {
	if tg.debug != nil && tg.debug.tracerStopRequested && tg.stoppedThreadCount == tg.threadCount {
		tg.debug.allStoppedEvent.Signal()
	}
}

// terminate hands t to the thread-termination collaborator. It does not
// return in production.
func (t *Task) terminate() {
	if t.exiting {
		return
	}
	t.exiting = true
	if t.onExit != nil {
		t.onExit(t)
	}
}
