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

	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
	"github.com/nocturne-kernel/ksignal/pkg/errors/ksignalerr"
	"github.com/nocturne-kernel/ksignal/pkg/sentry/kernel/auth"
)

// TargetType selects the destination of SendSignal.
type TargetType int

const (
	TargetThread TargetType = iota
	TargetCurrentProcess
	TargetProcess
	TargetCurrentProcessGroup
	TargetProcessGroup
	TargetAllProcesses
)

// ProcessTable resolves the thread/process/process-group identifiers a
// SendSignal call names into the actual objects.
type ProcessTable interface {
	FindTask(pid int32) *Task
	FindThreadGroup(pid int32) *ThreadGroup
	ThreadGroupsInProcessGroup(pgid int32) []*ThreadGroup
	AllThreadGroups() []*ThreadGroup
}

// SetSignalHandler swaps tg's signal trampoline and returns the
// previous one.
func (tg *ThreadGroup) SetSignalHandler(act linux.Sigaction) linux.Sigaction {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	prev := tg.handler
	tg.handler = act
	return prev
}

// Handler returns tg's currently installed signal trampoline.
func (tg *ThreadGroup) Handler() linux.Sigaction {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.handler
}

// requeueBlockedDeferredLocked moves every entry whose signal is no
// longer blocked for t back onto the appropriate queue, implementing the
// "requeues blocked-deferred list" step shared by SetSignalMask and
// RestoreContext.
func (tg *ThreadGroup) requeueBlockedDeferredLocked(t *Task) {
	var stillBlocked sigQueueList
	for e := tg.blockedDeferred.PopFront(); e != nil; e = tg.blockedDeferred.PopFront() {
		sig := e.Info.Signal
		if e.Target != nil && e.Target != t {
			stillBlocked.PushBack(e)
			continue
		}
		if t.blocked.Contains(sig) {
			stillBlocked.PushBack(e)
			continue
		}
		if e.Target != nil {
			e.Target.queue.PushBack(e)
		} else {
			tg.queue.PushBack(e)
		}
	}
	for e := stillBlocked.PopFront(); e != nil; e = stillBlocked.PopFront() {
		tg.blockedDeferred.PushBack(e)
	}
	t.signalPending = t.signalPending.raise(signalPendingAny)
}

// SetSignalMask overwrites t.blocked, stripping STOP/KILL/CONTINUE, and
// returns the previous mask.
func (t *Task) SetSignalMask(mask linux.SignalSet) linux.SignalSet {
	tg := t.tg
	tg.mu.Lock()
	defer tg.mu.Unlock()
	prev := t.blocked
	mask.Remove(linux.NonMaskableSuspend)
	mask.Remove(linux.NonMaskableTerminal)
	mask.Remove(linux.NonMaskableResume)
	t.blocked = mask
	tg.requeueBlockedDeferredLocked(t)
	return prev
}

// RestoreContext restores the
// pre-signal trap frame saved at signal entry, then requeues the
// blocked-deferred list.
func (t *Task) RestoreContext() (linux.SignalSet, error) {
	tg := t.tg
	if t.Arch == nil {
		return linux.SignalSet{}, ksignalerr.NotImplemented
	}
	mask, err := t.Arch.SignalRestore()
	if err != nil {
		return linux.SignalSet{}, err
	}
	tg.mu.Lock()
	t.blocked = mask
	tg.requeueBlockedDeferredLocked(t)
	tg.mu.Unlock()
	return mask, nil
}

// normalizeSendCode maps a caller-supplied positive code to the
// user-sent code.
func normalizeSendCode(code int32) int32 {
	if code > 0 {
		return linux.CodeUser
	}
	return code
}

// SendSignal dispatches to one of
// six target kinds, checking permission against each resolved recipient.
// Permission failures on a multi-target send are sticky (the most recent
// failure is returned) but do not stop delivery to other eligible
// targets.
func SendSignal(procs ProcessTable, sender *auth.Credentials, target TargetType, targetID int32, sig linux.Signal, code int32, param int64, current *ThreadGroup) error {
	code = normalizeSendCode(code)
	info := linux.SignalInfo{Signal: sig, Code: code, Parameter: param}

	send := func(tg *ThreadGroup) error {
		if !auth.CanSignal(sender, tg.Creds, sig == linux.NonMaskableResume) {
			return ksignalerr.PermissionDenied
		}
		if sig == 0 {
			return nil
		}
		var entry *SignalQueueEntry
		if sig >= linux.StandardSignalCount {
			entry = NewSignalQueueEntry(info, nil, nil)
		}
		tg.SendToProcess(sig, entry, false)
		return nil
	}

	switch target {
	case TargetThread:
		task := procs.FindTask(targetID)
		if task == nil {
			return ksignalerr.NoSuchThread
		}
		if !auth.CanSignal(sender, task.tg.Creds, sig == linux.NonMaskableResume) {
			return ksignalerr.PermissionDenied
		}
		if sig == 0 {
			return nil
		}
		var entry *SignalQueueEntry
		if sig >= linux.StandardSignalCount {
			entry = NewSignalQueueEntry(info, task, nil)
		}
		task.tg.Enqueue(task, sig, entry, false)
		return nil

	case TargetCurrentProcess:
		return send(current)

	case TargetProcess:
		tg := procs.FindThreadGroup(targetID)
		if tg == nil {
			return ksignalerr.NoSuchProcess
		}
		return send(tg)

	case TargetCurrentProcessGroup:
		return sendToGroup(procs.ThreadGroupsInProcessGroup(current.PGID), send)

	case TargetProcessGroup:
		return sendToGroup(procs.ThreadGroupsInProcessGroup(targetID), send)

	case TargetAllProcesses:
		return sendToGroup(procs.AllThreadGroups(), send)

	default:
		return ksignalerr.InvalidParameter
	}
}

// sendToGroup implements the sticky-last-error multi-target semantics of
// Every permitted target is signaled, and the most
// recent permission failure (if any) is what's returned.
func sendToGroup(targets []*ThreadGroup, send func(*ThreadGroup) error) error {
	if len(targets) == 0 {
		return ksignalerr.NoSuchProcess
	}
	var last error
	sent := 0
	for _, tg := range targets {
		if err := send(tg); err != nil {
			last = err
			continue
		}
		sent++
	}
	if sent == 0 && last != nil {
		return last
	}
	return last
}

// MaskType selects which set SetSignalBehavior operates on.
type MaskType int

const (
	MaskBlocked MaskType = iota
	MaskIgnored
	MaskHandled
	MaskPending
)

// MaskOp is the operation SetSignalBehavior applies to the set named by a
// MaskType.
type MaskOp int

const (
	OpNone MaskOp = iota
	OpOverwrite
	OpSet
	OpClear
)

// SetSignalBehavior updates tg's blocked, ignored, or handled mask. STOP and KILL
// are always stripped from the input regardless of target; CONTINUE is
// additionally stripped when the target is blocked. Writing handled
// clears the same bits from ignored. Reading pending returns the union
// of both pending bitmaps plus the numbers of any blocked-deferred
// entries destined for this thread (or unrestricted).
func (t *Task) SetSignalBehavior(maskType MaskType, op MaskOp, set linux.SignalSet) linux.SignalSet {
	tg := t.tg
	set.Remove(linux.NonMaskableSuspend)
	set.Remove(linux.NonMaskableTerminal)
	if maskType == MaskBlocked {
		set.Remove(linux.NonMaskableResume)
	}

	tg.mu.Lock()
	defer tg.mu.Unlock()

	switch maskType {
	case MaskPending:
		result := t.pending.Union(tg.pending)
		tg.blockedDeferred.Range(func(e *SignalQueueEntry) bool {
			if e.Target == nil || e.Target == t {
				result.Add(e.Info.Signal)
			}
			return true
		})
		return result

	case MaskBlocked:
		prev := t.blocked
		t.blocked = applyOp(t.blocked, op, set)
		t.blocked.Remove(linux.NonMaskableSuspend)
		t.blocked.Remove(linux.NonMaskableTerminal)
		t.blocked.Remove(linux.NonMaskableResume)
		if op != OpNone {
			tg.requeueBlockedDeferredLocked(t)
		}
		return prev

	case MaskIgnored:
		prev := tg.ignored
		tg.ignored = applyOp(tg.ignored, op, set)
		return prev

	case MaskHandled:
		prev := tg.handled
		tg.handled = applyOp(tg.handled, op, set)
		if op != OpNone {
			tg.ignored = tg.ignored.Difference(tg.handled)
		}
		return prev

	default:
		return linux.SignalSet{}
	}
}

func applyOp(current linux.SignalSet, op MaskOp, set linux.SignalSet) linux.SignalSet {
	switch op {
	case OpOverwrite:
		return set
	case OpSet:
		return current.Union(set)
	case OpClear:
		return current.Difference(set)
	default:
		return current
	}
}

// WaitFlags selects which child state transitions WaitForChildProcess is
// willing to report.
type WaitFlags int

const (
	WaitExited WaitFlags = 1 << iota
	WaitStopped
	WaitContinued
	WaitReturnImmediately
	WaitDontDiscard
)

func (f WaitFlags) has(bit WaitFlags) bool { return f&bit != 0 }

func reasonMatchesFlags(reason ExitReason, flags WaitFlags) bool {
	switch reason {
	case ExitExited, ExitKilled, ExitDumped:
		return flags.has(WaitExited)
	case ExitStopped, ExitTrapped:
		return flags.has(WaitStopped)
	case ExitContinued:
		return flags.has(WaitContinued)
	default:
		return false
	}
}

// pidSelectorMatches implements the wait-family pid-selector rules:
// -1 matches any child; 0 matches the current process group; a positive
// value matches that pid; a value below -1 matches that process group.
func pidSelectorMatches(selector int32, child *ThreadGroup, current *ThreadGroup) bool {
	switch {
	case selector == -1:
		return true
	case selector == 0:
		return child.PGID == current.PGID
	case selector > 0:
		return child.PID == selector
	default:
		return child.PGID == -selector
	}
}

// WaitForChildProcess implements the wait-family reap operation and the
// selection rules of §4.6: it dispatches any pending signal for the
// caller through Dequeue, then looks for a matching child transition in
// the blocked-deferred list and the process queue before falling back to
// suspending.
func (t *Task) WaitForChildProcess(selector int32, flags WaitFlags) (pid int32, reason ExitReason, status int32, usage ResourceUsage, err error) {
	tg := t.tg
	if !flags.has(WaitExited) && !flags.has(WaitStopped) && !flags.has(WaitContinued) {
		return 0, 0, 0, ResourceUsage{}, ksignalerr.InvalidParameter
	}

	hadEligible := false
	tg.mu.Lock()
	for _, child := range tg.children {
		if pidSelectorMatches(selector, child, tg) {
			hadEligible = true
			break
		}
	}
	tg.mu.Unlock()
	if !hadEligible {
		return 0, 0, 0, ResourceUsage{}, ksignalerr.NoEligibleChildren
	}

	for {
		_, dispatched := t.Dequeue()

		if pid, reason, status, usage, ok := t.consumeChildSignal(selector, flags); ok {
			return pid, reason, status, usage, nil
		}

		// The ReturnImmediately (WNOHANG) escape is checked before the
		// dispatched-signal check below, so a NoHang caller never
		// observes Interrupted: it only ever sees NoDataAvailable.
		if flags.has(WaitReturnImmediately) {
			return 0, 0, 0, ResourceUsage{}, ksignalerr.NoDataAvailable
		}

		if dispatched {
			return 0, 0, 0, ResourceUsage{}, ksignalerr.Interrupted
		}

		t.suspendOn(tg.childWait)
	}
}

// consumeChildSignal looks for a matching child transition among the
// blocked-deferred entries destined for this process, then falls back to
// scanning the process queue. Matches are removed and (unless
// DontDiscard) accumulate the child's resource usage into the parent's.
func (t *Task) consumeChildSignal(selector int32, flags WaitFlags) (int32, ExitReason, int32, ResourceUsage, bool) {
	tg := t.tg
	tg.mu.Lock()

	var match *SignalQueueEntry
	find := func(e *SignalQueueEntry) bool {
		if e.Info.Signal != linux.ChildProcessActivity {
			return true
		}
		child := tg.findChildLocked(e.Info.SenderPID)
		if child == nil || !pidSelectorMatches(selector, child, tg) {
			return true
		}
		reason := exitReasonFromCode(e.Info.Code)
		if !reasonMatchesFlags(reason, flags) {
			return true
		}
		match = e
		return false
	}
	tg.blockedDeferred.Range(find)
	if match == nil {
		tg.queue.Range(find)
	}
	if match == nil {
		// Rearm childWait for the next wake while still holding tg.mu, so
		// it's serialized against wakeLocked's Signal call: a concurrent
		// bindChildSignal either lands before this Unlock (and its entry
		// is already visible to the Range above) or after it (and its
		// Signal is what wakes the next suspendOn). Neither ordering
		// loses a wakeup.
		tg.childWait.Unsignal()
		tg.mu.Unlock()
		return 0, 0, 0, ResourceUsage{}, false
	}

	pid := match.Info.SenderPID
	reason := exitReasonFromCode(match.Info.Code)
	status := int32(match.Info.Parameter)

	var usage ResourceUsage
	if child := tg.findChildLocked(pid); child != nil {
		usage = child.pendingUsage
	}

	discard := !flags.has(WaitDontDiscard)
	if discard {
		match.Detach()
		tg.ChildResourceUsage.Add(usage)
	}
	tg.mu.Unlock()

	if discard {
		match.complete()
	}
	return pid, reason, status, usage, true
}

func (tg *ThreadGroup) findChildLocked(pid int32) *ThreadGroup {
	for _, c := range tg.children {
		if c.PID == pid {
			return c
		}
	}
	return nil
}

// suspendOn marks t suspended for the duration of waiting on ev, so
// Enqueue's ChildOnly wake policy can tell a true suspension
// point from a merely descheduled thread.
func (t *Task) suspendOn(ev *Event) {
	t.tg.mu.Lock()
	t.suspended = true
	t.tg.mu.Unlock()

	ev.Wait()

	t.tg.mu.Lock()
	t.suspended = false
	t.tg.mu.Unlock()
}

// ReportExit rebinds tg's child-signal entry to reflect a state
// transition. It is the entry point the out-of-scope
// process-lifecycle collaborator calls on exit, stop, continue, trap, or
// dump.
func (tg *ThreadGroup) ReportExit(reason ExitReason, status int32, usage ResourceUsage) {
	tg.mu.Lock()
	tg.ExitReason = reason
	tg.ExitStatus = status
	tg.mu.Unlock()
	tg.bindChildSignal(reason, status, usage)
}

// SuspendOp selects how SuspendExecution temporarily modifies the blocked
// mask for the duration of the wait.
type SuspendOp int

const (
	// SuspendOverwrite is sigsuspend semantics: the blocked mask is
	// replaced by set for the duration of the wait, so only signals
	// outside set can be dequeued at all.
	SuspendOverwrite SuspendOp = iota
	// SuspendClear is sigtimedwait/sigwaitinfo semantics: the members of
	// set are temporarily unblocked so the caller can wait specifically
	// for one of them, without it being applied through the ordinary
	// handler/default-action path.
	SuspendClear
)

// suspendPollInterval bounds how long SuspendExecution sleeps between
// Dequeue attempts. The real scheduler wait primitive (out of scope here;
// see ThreadWaker and Event) would instead block until woken; this models
// the same "wait for a signal or a deadline" contract without requiring a
// full wait-queue integration.
const suspendPollInterval = 500 * time.Microsecond

// SuspendExecution temporarily modifies t's blocked mask per op, then loops
// calling Dequeue until a signal is available or timeout elapses (an
// indefinite wait never times out). On an ordinary dequeued signal it
// returns Interrupted, carrying the signal in the returned SignalInfo for
// the caller to report to user space. In Clear mode, a signal that is a
// member of set is likewise reported as Interrupted, but is left pending
// (or queued) rather than run through the handler/default-action path:
// the wait only observes it, it does not apply it, so a later ordinary
// dispatch still delivers it. The previous blocked mask is always
// restored before returning.
func (t *Task) SuspendExecution(op SuspendOp, set linux.SignalSet, timeout time.Duration, indefinite bool) (linux.SignalInfo, error) {
	tg := t.tg

	tg.mu.Lock()
	prev := t.blocked
	switch op {
	case SuspendOverwrite:
		t.blocked = set
		t.blocked.Remove(linux.NonMaskableSuspend)
		t.blocked.Remove(linux.NonMaskableTerminal)
		t.blocked.Remove(linux.NonMaskableResume)
	case SuspendClear:
		t.blocked = prev.Difference(set)
	}
	tg.requeueBlockedDeferredLocked(t)
	tg.mu.Unlock()

	defer func() {
		tg.mu.Lock()
		t.blocked = prev
		tg.requeueBlockedDeferredLocked(t)
		tg.mu.Unlock()
	}()

	t.tg.mu.Lock()
	t.suspended = true
	t.tg.mu.Unlock()
	defer func() {
		t.tg.mu.Lock()
		t.suspended = false
		t.tg.mu.Unlock()
	}()

	// A monotonic deadline, recomputed against time.Now() on every
	// iteration rather than reset on every wakeup, so repeated spurious
	// wakeups cannot extend the budget (§5 "Timeouts").
	deadline := time.Now().Add(timeout)

	for {
		if op == SuspendClear {
			if info, ok := t.peekClearSetMember(set); ok {
				return info, ksignalerr.Interrupted
			}
		}
		if info, ok := t.Dequeue(); ok {
			return info, ksignalerr.Interrupted
		}
		if !indefinite && !time.Now().Before(deadline) {
			return linux.SignalInfo{}, ksignalerr.Timeout
		}
		time.Sleep(suspendPollInterval)
	}
}

// peekClearSetMember reports whether a signal in set is already pending
// or queued for t, without consuming it. SuspendClear mode must report
// such a signal as Interrupted while leaving it fully intact: unlike an
// ordinary Dequeue, this must not run it through the handler/default-
// action path, so a later Dequeue can still deliver it (§8's
// round-trip property).
func (t *Task) peekClearSetMember(set linux.SignalSet) (linux.SignalInfo, bool) {
	tg := t.tg
	tg.mu.Lock()
	defer tg.mu.Unlock()

	if bitmap := t.pending.Union(tg.pending).Intersect(set); !bitmap.Empty() {
		return linux.SignalInfo{Signal: bitmap.Lowest(), Code: linux.CodeUser}, true
	}

	var found linux.SignalInfo
	ok := false
	match := func(e *SignalQueueEntry) bool {
		if !e.Delivered() && set.Contains(e.Info.Signal) {
			found = e.Info
			ok = true
			return false
		}
		return true
	}
	tg.queue.Range(match)
	if !ok {
		t.queue.Range(match)
	}
	return found, ok
}

// CancelQueuedSignal cancels entry if it is still linked on whatever queue
// currently holds it (i.e. not yet picked up for delivery, nor already
// served). Once an entry has been detached by the dequeue path, a
// cancellation attempt is TooLate and the caller must not free the entry
// itself: the dequeue path that detached it owns running (or has already
// run) its completion callback. A successful cancellation runs the
// completion callback itself, since nothing else will.
func (tg *ThreadGroup) CancelQueuedSignal(entry *SignalQueueEntry) error {
	tg.mu.Lock()
	linked := !entry.Detached()
	if linked {
		entry.Detach()
	}
	tg.mu.Unlock()

	if !linked {
		return ksignalerr.TooLate
	}
	entry.complete()
	return nil
}
