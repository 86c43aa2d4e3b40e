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

// Package linux holds the wire-level signal ABI: signal numbers, the
// fixed-width signal set, and the default-action table, modeled on Linux's
// numbering and golang.org/x/sys/unix's named constants.
package linux

import "golang.org/x/sys/unix"

// Signal is a signal number in [0, SignalCount).
type Signal int32

// Standard signal numbers, taken directly from golang.org/x/sys/unix so
// that numeric values match the host kernel's.
const (
	SIGHUP    = Signal(unix.SIGHUP)
	SIGINT    = Signal(unix.SIGINT)
	SIGQUIT   = Signal(unix.SIGQUIT)
	SIGILL    = Signal(unix.SIGILL)
	SIGTRAP   = Signal(unix.SIGTRAP)
	SIGABRT   = Signal(unix.SIGABRT)
	SIGBUS    = Signal(unix.SIGBUS)
	SIGFPE    = Signal(unix.SIGFPE)
	SIGKILL   = Signal(unix.SIGKILL)
	SIGUSR1   = Signal(unix.SIGUSR1)
	SIGSEGV   = Signal(unix.SIGSEGV)
	SIGUSR2   = Signal(unix.SIGUSR2)
	SIGPIPE   = Signal(unix.SIGPIPE)
	SIGALRM   = Signal(unix.SIGALRM)
	SIGTERM   = Signal(unix.SIGTERM)
	SIGSTKFLT = Signal(unix.SIGSTKFLT)
	SIGCHLD   = Signal(unix.SIGCHLD)
	SIGCONT   = Signal(unix.SIGCONT)
	SIGSTOP   = Signal(unix.SIGSTOP)
	SIGTSTP   = Signal(unix.SIGTSTP)
	SIGTTIN   = Signal(unix.SIGTTIN)
	SIGTTOU   = Signal(unix.SIGTTOU)
	SIGURG    = Signal(unix.SIGURG)
	SIGXCPU   = Signal(unix.SIGXCPU)
	SIGXFSZ   = Signal(unix.SIGXFSZ)
	SIGVTALRM = Signal(unix.SIGVTALRM)
	SIGPROF   = Signal(unix.SIGPROF)
	SIGWINCH  = Signal(unix.SIGWINCH)
	SIGIO     = Signal(unix.SIGIO)
	SIGPWR    = Signal(unix.SIGPWR)
	SIGSYS    = Signal(unix.SIGSYS)
)

// Aliases used by the rest of the subsystem for the abstract signal
// roles. These name the same numbers as the Linux constants above.
const (
	// NonMaskableTerminal is the non-maskable terminal signal.
	NonMaskableTerminal = SIGKILL
	// NonMaskableSuspend is the non-maskable suspend signal.
	NonMaskableSuspend = SIGSTOP
	// NonMaskableResume is the non-maskable resume signal; it may be
	// handled, but queuing it always releases a stop.
	NonMaskableResume = SIGCONT
	// ChildProcessActivity reports a child's exit/stop/continue/trap/dump.
	ChildProcessActivity = SIGCHLD

	IllegalInstruction    = SIGILL
	BusError              = SIGBUS
	MathError             = SIGFPE
	AccessViolation       = SIGSEGV
	Abort                 = SIGABRT
	RequestCoreDump       = SIGQUIT
	BadSystemCall         = SIGSYS
	Trap                  = SIGTRAP
	CPUQuotaReached       = SIGXCPU
	FileSizeTooLarge      = SIGXFSZ
	Timer                 = SIGALRM
	ControllingTTYClosed  = SIGHUP
	KeyboardInterrupt     = SIGINT
	BrokenPipe            = SIGPIPE
	RequestTermination    = SIGTERM
	Application1          = SIGUSR1
	Application2          = SIGUSR2
	AsynchronousIOReady   = SIGIO
	ProfileTimer          = SIGPROF
	ExecutionTimerExpired = SIGVTALRM
	RequestStop           = SIGTSTP
	BackgroundTTYInput    = SIGTTIN
	BackgroundTTYOutput   = SIGTTOU
)

const (
	// StandardSignalCount is the exclusive end of the standard
	// (bitmap-represented) signal range [1, StandardSignalCount).
	StandardSignalCount = 32

	// SignalCount is the exclusive end of the full signal range
	// [1, SignalCount). Signals in [StandardSignalCount, SignalCount) are
	// "queued" (real-time-like) signals represented only by list entries.
	SignalCount = 65

	// FirstRealtimeSignal is the first real-time signal number available
	// to applications, mirroring glibc's SIGRTMIN. The queued range itself
	// starts at StandardSignalCount (32); glibc reserves 32 and 33 for
	// internal use.
	FirstRealtimeSignal = Signal(34)
)

// String returns a human-readable signal name. Immutable global table, per
// SPEC_FULL's note that the only module state carried is this table and
// the default-ignore predicate.
func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	if int(s) >= FirstRealtimeSignal.sig() && int(s) < SignalCount {
		return "realtime signal"
	}
	return "unknown signal"
}

func (s Signal) sig() int { return int(s) }

var signalNames = map[Signal]string{
	SIGHUP: "SIGHUP", SIGINT: "SIGINT", SIGQUIT: "SIGQUIT", SIGILL: "SIGILL",
	SIGTRAP: "SIGTRAP", SIGABRT: "SIGABRT", SIGBUS: "SIGBUS", SIGFPE: "SIGFPE",
	SIGKILL: "SIGKILL", SIGUSR1: "SIGUSR1", SIGSEGV: "SIGSEGV", SIGUSR2: "SIGUSR2",
	SIGPIPE: "SIGPIPE", SIGALRM: "SIGALRM", SIGTERM: "SIGTERM", SIGSTKFLT: "SIGSTKFLT",
	SIGCHLD: "SIGCHLD", SIGCONT: "SIGCONT", SIGSTOP: "SIGSTOP", SIGTSTP: "SIGTSTP",
	SIGTTIN: "SIGTTIN", SIGTTOU: "SIGTTOU", SIGURG: "SIGURG", SIGXCPU: "SIGXCPU",
	SIGXFSZ: "SIGXFSZ", SIGVTALRM: "SIGVTALRM", SIGPROF: "SIGPROF", SIGWINCH: "SIGWINCH",
	SIGIO: "SIGIO", SIGPWR: "SIGPWR", SIGSYS: "SIGSYS",
}

// defaultIgnoreSet is the set of signals whose default action, absent a
// handler, is to discard the signal.
var defaultIgnoreSet = map[Signal]bool{
	ChildProcessActivity: true,
	SIGURG:               true,
	SIGWINCH:             true,
}

// IsDefaultIgnore reports whether sig's default action is to be silently
// discarded when unhandled.
func IsDefaultIgnore(sig Signal) bool {
	return defaultIgnoreSet[sig]
}

// DefaultAction classifies what happens to a process that receives sig
// with no handler installed and the signal not ignored.
type DefaultAction int

const (
	// DefaultActionTerminate kills the process (ExitReason = Killed).
	DefaultActionTerminate DefaultAction = iota
	// DefaultActionDump aborts the process with a core dump
	// (ExitReason = Dumped).
	DefaultActionDump
	// DefaultActionStop suspends the process (ExitReason = Stopped).
	DefaultActionStop
	// DefaultActionIgnore discards the signal.
	DefaultActionIgnore
	// DefaultActionContinue resumes a stopped process.
	DefaultActionContinue
)

var defaultActionDump = map[Signal]bool{
	Abort: true, BusError: true, MathError: true, IllegalInstruction: true,
	RequestCoreDump: true, AccessViolation: true, BadSystemCall: true,
	Trap: true, CPUQuotaReached: true, FileSizeTooLarge: true,
}

var defaultActionTerminate = map[Signal]bool{
	Timer: true, ControllingTTYClosed: true, KeyboardInterrupt: true,
	BrokenPipe: true, RequestTermination: true, Application1: true,
	Application2: true, AsynchronousIOReady: true, ProfileTimer: true,
	ExecutionTimerExpired: true,
}

var defaultActionStop = map[Signal]bool{
	RequestStop: true, BackgroundTTYInput: true, BackgroundTTYOutput: true,
}

// Default returns sig's default action. Any
// queued signal (sig >= StandardSignalCount) not otherwise classified
// defaults to terminate, matching Linux's real-time signal behavior.
func (s Signal) Default() DefaultAction {
	switch {
	case s == NonMaskableResume:
		return DefaultActionContinue
	case s == NonMaskableSuspend:
		return DefaultActionStop
	case IsDefaultIgnore(s):
		return DefaultActionIgnore
	case defaultActionDump[s]:
		return DefaultActionDump
	case defaultActionTerminate[s]:
		return DefaultActionTerminate
	case defaultActionStop[s]:
		return DefaultActionStop
	case int(s) >= StandardSignalCount:
		return DefaultActionTerminate
	default:
		return DefaultActionTerminate
	}
}
