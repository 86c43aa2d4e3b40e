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
	"testing"
	"time"

	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
)

type dequeueOutcome struct {
	info linux.SignalInfo
	ok   bool
}

// TestTracerBreakSuppressesSignalViaContinueTracee drives the full
// interposition protocol without any scheduler: the tracee reaches STOP,
// the attached tracer observes it through the ordinary wait path, and the
// tracer's ContinueTracee(0, ...) call suppresses the STOP entirely.
func TestTracerBreakSuppressesSignalViaContinueTracee(t *testing.T) {
	tracerProc, tracerTask := newTestProcess(3, 0, 1, 1)
	child, childTask := newTestProcess(2, 1, 1, 1)
	tracerProc.AddChild(child)
	child.AttachTracer(tracerProc)

	child.SendToProcess(linux.NonMaskableSuspend, nil, false)

	result := make(chan dequeueOutcome, 1)
	go func() {
		info, ok := childTask.Dequeue()
		result <- dequeueOutcome{info, ok}
	}()

	var pid int32
	var reason ExitReason
	deadline := time.Now().Add(2 * time.Second)
	for {
		p, r, _, _, err := tracerTask.WaitForChildProcess(-1, WaitStopped|WaitReturnImmediately)
		if err == nil {
			pid, reason = p, r
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tracer never observed the child's stop notification: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	if pid != 2 || reason != ExitTrapped {
		t.Fatalf("tracer observed (%d, %v), want (2, ExitTrapped)", pid, reason)
	}

	if info := child.PendingTraceeSignal(); info.Signal != linux.SIGSTOP {
		t.Fatalf("PendingTraceeSignal() = %v, want SIGSTOP", info.Signal)
	}

	child.ContinueTracee(linux.SignalInfo{Signal: 0}, DebugCommandNone, BreakRange{})

	select {
	case outcome := <-result:
		if outcome.ok {
			t.Fatalf("Dequeue() = (%v, true) after suppression, want nothing delivered", outcome.info)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tracee never resumed after ContinueTracee")
	}
}

// TestTracerBreakSubstitutesSignal has the tracer hand back a different
// signal than the one the tracee reported; the tracee's Dequeue must
// surface the substitute instead.
func TestTracerBreakSubstitutesSignal(t *testing.T) {
	tracerProc, tracerTask := newTestProcess(3, 0, 1, 1)
	child, childTask := newTestProcess(2, 1, 1, 1)
	tracerProc.AddChild(child)
	child.AttachTracer(tracerProc)

	child.SendToProcess(linux.NonMaskableSuspend, nil, false)

	result := make(chan dequeueOutcome, 1)
	go func() {
		info, ok := childTask.Dequeue()
		result <- dequeueOutcome{info, ok}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, _, _, _, err := tracerTask.WaitForChildProcess(-1, WaitStopped|WaitReturnImmediately)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tracer never observed the child's stop notification: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	child.ContinueTracee(linux.SignalInfo{Signal: linux.SIGUSR1}, DebugCommandNone, BreakRange{})

	select {
	case outcome := <-result:
		if !outcome.ok || outcome.info.Signal != linux.SIGUSR1 {
			t.Fatalf("Dequeue() = (%v, %v), want (SIGUSR1, true)", outcome.info, outcome.ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tracee never resumed after ContinueTracee")
	}
}
