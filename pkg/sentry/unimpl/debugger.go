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

package unimpl

import (
	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
	"github.com/nocturne-kernel/ksignal/pkg/context"
	"github.com/nocturne-kernel/ksignal/pkg/sentry/kernel"
)

// EventDebugger implements kernel.KernelDebugger on top of an Events sink:
// it reports as connected whenever a sink has been installed on ctx, and
// forwards fatal exceptions to it rather than a real debugger transport.
type EventDebugger struct {
	ctx context.Context
}

// NewEventDebugger returns a KernelDebugger that reports through ctx's
// registered Events sink.
func NewEventDebugger(ctx context.Context) *EventDebugger {
	return &EventDebugger{ctx: ctx}
}

// Connected reports whether ctx has an Events sink registered.
func (d *EventDebugger) Connected() bool {
	return d.ctx.Value(CtxEvents) != nil
}

// Forward reports sig on t's process through the registered sink.
func (d *EventDebugger) Forward(t *kernel.Task, sig linux.Signal) {
	EmitFatalSignalEvent(d.ctx, t.ThreadGroup().PID, int32(sig))
}
