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
	"errors"
	"testing"

	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
	"github.com/nocturne-kernel/ksignal/pkg/errors/ksignalerr"
)

// recordingLifecycle is a ProcessLifecycle collaborator that records its
// last MarkCollectible call.
type recordingLifecycle struct {
	marked *ThreadGroup
	calls  int
}

func (r *recordingLifecycle) MarkCollectible(tg *ThreadGroup) {
	r.marked = tg
	r.calls++
}

func TestWaitForChildProcessReapsExitedChild(t *testing.T) {
	parent, parentTask := newTestProcess(1, 0, 1, 1)
	child, _ := newTestProcess(2, 1, 1, 1)
	parent.AddChild(child)

	lifecycle := &recordingLifecycle{}
	child.Lifecycle = lifecycle

	child.ReportExit(ExitExited, 7, ResourceUsage{UserTimeNanos: 100})

	pid, reason, status, usage, err := parentTask.WaitForChildProcess(-1, WaitExited)
	if err != nil {
		t.Fatalf("WaitForChildProcess() error = %v, want nil", err)
	}
	if pid != 2 || reason != ExitExited || status != 7 {
		t.Fatalf("WaitForChildProcess() = (%d, %v, %d), want (2, ExitExited, 7)", pid, reason, status)
	}
	if usage.UserTimeNanos != 100 {
		t.Fatalf("usage.UserTimeNanos = %d, want 100", usage.UserTimeNanos)
	}

	if lifecycle.calls != 1 || lifecycle.marked != child {
		t.Fatalf("Lifecycle.MarkCollectible was not invoked for the reaped child (calls=%d)", lifecycle.calls)
	}
}

func TestWaitForChildProcessNoEligibleChildren(t *testing.T) {
	_, parentTask := newTestProcess(1, 0, 1, 1)

	_, _, _, _, err := parentTask.WaitForChildProcess(-1, WaitExited)
	if !errors.Is(err, ksignalerr.NoEligibleChildren) {
		t.Fatalf("WaitForChildProcess() error = %v, want NoEligibleChildren", err)
	}
}

func TestWaitForChildProcessReturnImmediatelyWithNoData(t *testing.T) {
	parent, parentTask := newTestProcess(1, 0, 1, 1)
	child, _ := newTestProcess(2, 1, 1, 1)
	parent.AddChild(child)

	_, _, _, _, err := parentTask.WaitForChildProcess(-1, WaitExited|WaitReturnImmediately)
	if !errors.Is(err, ksignalerr.NoDataAvailable) {
		t.Fatalf("WaitForChildProcess() error = %v, want NoDataAvailable", err)
	}
}

// TestWaitForChildProcessWNohangNeverObservesInterrupted exercises the
// exact ordering a caller depends on: a WNOHANG-equivalent wait that
// dispatches an unrelated signal during its poll must still report
// NoDataAvailable, never Interrupted, once it finds no child transition.
func TestWaitForChildProcessWNohangNeverObservesInterrupted(t *testing.T) {
	parent, parentTask := newTestProcess(1, 0, 1, 1)
	child, _ := newTestProcess(2, 1, 1, 1)
	parent.AddChild(child)

	// Handled, so Dequeue dispatches it rather than applying its default
	// terminate action.
	parent.handled.Add(linux.SIGUSR1)
	parent.Enqueue(parentTask, linux.SIGUSR1, nil, false)

	_, _, _, _, err := parentTask.WaitForChildProcess(-1, WaitExited|WaitReturnImmediately)
	if !errors.Is(err, ksignalerr.NoDataAvailable) {
		t.Fatalf("WaitForChildProcess() error = %v, want NoDataAvailable even though a signal was dispatched", err)
	}
}

// TestWaitForChildProcessBlockingReportsInterrupted is the non-WNOHANG
// counterpart: without WaitReturnImmediately, a dispatched signal with no
// matching child transition is reported as Interrupted.
func TestWaitForChildProcessBlockingReportsInterrupted(t *testing.T) {
	parent, parentTask := newTestProcess(1, 0, 1, 1)
	child, _ := newTestProcess(2, 1, 1, 1)
	parent.AddChild(child)

	parent.handled.Add(linux.SIGUSR1)
	parent.Enqueue(parentTask, linux.SIGUSR1, nil, false)

	_, _, _, _, err := parentTask.WaitForChildProcess(-1, WaitExited)
	if !errors.Is(err, ksignalerr.Interrupted) {
		t.Fatalf("WaitForChildProcess() error = %v, want Interrupted", err)
	}
}

func TestBindChildSignalRebindsAcrossDestinations(t *testing.T) {
	tracerProc, tracerTask := newTestProcess(3, 0, 1, 1)
	parent, parentTask := newTestProcess(1, 0, 1, 1)
	child, _ := newTestProcess(2, 1, 1, 1)
	parent.AddChild(child)
	tracerProc.AddChild(child)

	child.ReportExit(ExitStopped, int32(linux.SIGSTOP), ResourceUsage{})
	if _, _, _, _, err := parentTask.WaitForChildProcess(-1, WaitStopped|WaitReturnImmediately); err != nil {
		t.Fatalf("first WaitForChildProcess() error = %v, want nil", err)
	}

	// Attach a tracer: the same reusable entry, already reaped by the
	// parent above, should carry the next transition to the tracer instead.
	child.AttachTracer(tracerProc)
	child.ReportExit(ExitTrapped, int32(linux.SIGTRAP), ResourceUsage{})

	pid, reason, _, _, err := tracerTask.WaitForChildProcess(-1, WaitStopped)
	if err != nil {
		t.Fatalf("tracer WaitForChildProcess() error = %v, want nil", err)
	}
	if pid != 2 || reason != ExitTrapped {
		t.Fatalf("tracer WaitForChildProcess() = (%d, %v), want (2, ExitTrapped)", pid, reason)
	}
}
