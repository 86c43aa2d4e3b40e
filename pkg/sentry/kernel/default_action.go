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
	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
	"github.com/nocturne-kernel/ksignal/pkg/log"
)

// applyDefaultAction runs the §6 default-action table against sig once it
// has survived tracer interposition with no handler installed for it.
// It reports whether sig was fully disposed of by its default action
// (dump, terminate, stop, or the plain discard of a default-ignore
// signal that reached the bitmap dispatch path): true means the caller
// must not treat sig as delivered to user space. CONTINUE's own default
// action is a no-op here (§4.3's non-maskable path and the CONTINUED
// child-signal report already cover it), so it always reports false and
// falls through to ordinary delivery.
func (t *Task) applyDefaultAction(sig linux.Signal) bool {
	tg := t.tg
	switch sig.Default() {
	case linux.DefaultActionIgnore:
		return true

	case linux.DefaultActionDump, linux.DefaultActionTerminate:
		reason := ExitKilled
		if sig.Default() == linux.DefaultActionDump {
			reason = ExitDumped
		}
		tg.mu.Lock()
		tg.ExitReason = reason
		tg.ExitStatus = int32(sig)
		tg.mu.Unlock()
		log.WithFields(log.Fields{
			"pid":     tg.PID,
			"process": tg.Name,
			"signal":  sig.String(),
		}).Warningf("unhandled fatal signal, no handler installed")
		tg.SendToProcess(linux.NonMaskableTerminal, nil, false)
		t.terminate()
		return true

	case linux.DefaultActionStop:
		tg.SendToProcess(linux.NonMaskableSuspend, nil, false)
		return true

	default: // DefaultActionContinue.
		return false
	}
}
