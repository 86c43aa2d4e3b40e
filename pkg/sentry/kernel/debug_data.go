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

// DebugCommand is the tracer's outstanding single-step/range-step request,
// consumed and invalidated by the next TracerBreak.
type DebugCommand int32

const (
	// DebugCommandNone means no outstanding step command.
	DebugCommandNone DebugCommand = iota
	// DebugCommandSingleStep requests architecture single-step.
	DebugCommandSingleStep
	// DebugCommandRangeStep requests single-step with an address-range
	// exemption (PTRACE_CONT-style range continue).
	DebugCommandRangeStep
)

// BreakRange is the instruction-pointer range (minus a hole) a
// DebugCommandRangeStep is scoped to.
type BreakRange struct {
	Start     uintptr
	End       uintptr
	HoleStart uintptr
	HoleEnd   uintptr
}

// Contains reports whether ip is in [Start, End) and not in
// [HoleStart, HoleEnd).
func (r BreakRange) Contains(ip uintptr) bool {
	if ip < r.Start || ip >= r.End {
		return false
	}
	if ip >= r.HoleStart && ip < r.HoleEnd {
		return false
	}
	return true
}

// debugData holds the tracer-interposition state,
// present only once a tracer is attached.
type debugData struct {
	tracerLock tracerMutex

	// tracingProcess is the attached tracer, or nil if detached.
	tracingProcess *ThreadGroup

	debugCommand DebugCommand
	breakRange   BreakRange

	// tracerSignalInformation is the signal handed to the tracer for the
	// round currently in progress.
	tracerSignalInformation linux.SignalInfo

	// tracerStopRequested is true while the debug leader is collecting
	// the rest of the tracee's threads into the stop barrier.
	tracerStopRequested bool

	// debugLeaderThread is the thread running the tracer-break protocol
	// on behalf of the whole process for the current round.
	debugLeaderThread *Task

	// allStoppedEvent is signaled once stoppedThreadCount == threadCount
	// while tracerStopRequested is set (invariant 6).
	allStoppedEvent *Event
}
