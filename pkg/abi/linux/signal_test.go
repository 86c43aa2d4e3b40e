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

package linux

import "testing"

func TestDefaultAction(t *testing.T) {
	tests := []struct {
		sig  Signal
		want DefaultAction
	}{
		{Abort, DefaultActionDump},
		{BusError, DefaultActionDump},
		{MathError, DefaultActionDump},
		{IllegalInstruction, DefaultActionDump},
		{AccessViolation, DefaultActionDump},
		{Trap, DefaultActionDump},
		{Timer, DefaultActionTerminate},
		{KeyboardInterrupt, DefaultActionTerminate},
		{BrokenPipe, DefaultActionTerminate},
		{RequestTermination, DefaultActionTerminate},
		{RequestStop, DefaultActionStop},
		{BackgroundTTYInput, DefaultActionStop},
		{BackgroundTTYOutput, DefaultActionStop},
		{ChildProcessActivity, DefaultActionIgnore},
		{SIGURG, DefaultActionIgnore},
		{SIGWINCH, DefaultActionIgnore},
		{NonMaskableResume, DefaultActionContinue},
		{NonMaskableSuspend, DefaultActionStop},
		{Signal(40), DefaultActionTerminate}, // unclassified queued signal
	}
	for _, test := range tests {
		if got := test.sig.Default(); got != test.want {
			t.Errorf("Signal(%d).Default() = %v, want %v", test.sig, got, test.want)
		}
	}
}

func TestIsDefaultIgnore(t *testing.T) {
	if !IsDefaultIgnore(ChildProcessActivity) {
		t.Errorf("IsDefaultIgnore(ChildProcessActivity) = false, want true")
	}
	if IsDefaultIgnore(SIGTERM) {
		t.Errorf("IsDefaultIgnore(SIGTERM) = true, want false")
	}
}

func TestSignalString(t *testing.T) {
	if got := SIGKILL.String(); got != "SIGKILL" {
		t.Errorf("SIGKILL.String() = %q, want SIGKILL", got)
	}
	if got := Signal(40).String(); got != "realtime signal" {
		t.Errorf("Signal(40).String() = %q, want %q", got, "realtime signal")
	}
	if got := Signal(0).String(); got != "unknown signal" {
		t.Errorf("Signal(0).String() = %q, want %q", got, "unknown signal")
	}
}
