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

// Package arch implements kernel.ArchCollaborator for amd64 traced
// subprocesses: instruction-pointer reads, single-step control, and the
// signal trap-frame save/restore pair RestoreContext needs.
package arch

import (
	"golang.org/x/sys/unix"

	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
	"github.com/nocturne-kernel/ksignal/pkg/errors/ksignalerr"
)

// savedFrame is the trap frame SignalSetup stashes away so SignalRestore
// can undo it: the general-purpose register file in effect when the
// signal trampoline was entered, plus the mask that was active before
// delivery.
type savedFrame struct {
	regs unix.PtraceRegs
	mask linux.SignalSet
	set  bool
}

// Context is the per-thread amd64 register state, backed by a traced
// subprocess's thread id. It implements kernel.ArchCollaborator.
type Context struct {
	tid        int
	singleStep bool
	saved      savedFrame
}

// NewContext returns an arch.Context for the traced thread tid.
func NewContext(tid int) *Context {
	return &Context{tid: tid}
}

// IP returns the thread's current instruction pointer.
func (c *Context) IP() uintptr {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(c.tid, &regs); err != nil {
		return 0
	}
	return uintptr(regs.Rip)
}

// SingleStep reports whether architecture single-stepping is enabled.
func (c *Context) SingleStep() bool {
	return c.singleStep
}

// SetSingleStep enables architecture single-stepping: the next
// PTRACE_CONT-equivalent resume is issued as PTRACE_SINGLESTEP by the
// caller, which consults this flag.
func (c *Context) SetSingleStep() {
	c.singleStep = true
}

// ClearSingleStep disables architecture single-stepping.
func (c *Context) ClearSingleStep() {
	c.singleStep = false
}

// SignalSetup saves the current register file and the pre-signal mask,
// then redirects Rip to act's trampoline so user space runs the handler
// next. info and act are not otherwise encoded into the trap frame here:
// the real ABI layout (siginfo_t, ucontext_t on the user stack) belongs
// to the user-mode copy-out path, out of scope for this subsystem.
func (c *Context) SignalSetup(sig linux.Signal, info linux.SignalInfo, act linux.Sigaction, mask linux.SignalSet) error {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(c.tid, &regs); err != nil {
		return err
	}
	c.saved = savedFrame{regs: regs, mask: mask, set: true}
	if act.Handler != 0 {
		regs.Rip = uint64(act.Handler)
		if err := unix.PtraceSetRegs(c.tid, &regs); err != nil {
			return err
		}
	}
	return nil
}

// SignalRestore restores the register file saved by the most recent
// SignalSetup and returns the mask in effect before delivery.
func (c *Context) SignalRestore() (linux.SignalSet, error) {
	if !c.saved.set {
		return linux.SignalSet{}, ksignalerr.InvalidParameter
	}
	if err := unix.PtraceSetRegs(c.tid, &c.saved.regs); err != nil {
		return linux.SignalSet{}, err
	}
	mask := c.saved.mask
	c.saved = savedFrame{}
	return mask, nil
}
