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

package auth

import (
	"testing"

	"github.com/syndtr/gocapability/capability"
)

// TestCanSignalRealMatchesSaved exercises scenario 4 of spec.md §8: a
// sender whose real uid matches the recipient's saved uid is permitted
// even though neither effective uid matches.
func TestCanSignalRealMatchesSaved(t *testing.T) {
	sender := &Credentials{RealUID: 1000, EffectiveUID: 1000, SavedUID: 1000}
	recipient := &Credentials{RealUID: 2000, EffectiveUID: 2000, SavedUID: 1000}
	if !CanSignal(sender, recipient, false) {
		t.Fatalf("CanSignal: sender.real == recipient.saved should be permitted")
	}
}

func TestCanSignalDenied(t *testing.T) {
	sender := &Credentials{RealUID: 1000, EffectiveUID: 1000, SavedUID: 1000}
	recipient := &Credentials{RealUID: 2000, EffectiveUID: 2000, SavedUID: 2000}
	if CanSignal(sender, recipient, false) {
		t.Fatalf("CanSignal: unrelated uids with no capability should be denied")
	}
}

func TestCanSignalContinueSameSession(t *testing.T) {
	sender := &Credentials{RealUID: 1000, EffectiveUID: 1000, SavedUID: 1000, SessionID: 7}
	recipient := &Credentials{RealUID: 2000, EffectiveUID: 2000, SavedUID: 2000, SessionID: 7}
	if !CanSignal(sender, recipient, true) {
		t.Fatalf("CanSignal: CONTINUE within the same session should be permitted")
	}
	if CanSignal(sender, recipient, false) {
		t.Fatalf("CanSignal: a non-CONTINUE signal across unrelated uids in the same session should still be denied")
	}
}

func TestCanSignalCapabilityOverride(t *testing.T) {
	sender := &Credentials{RealUID: 1000, EffectiveUID: 1000, SavedUID: 1000}
	recipient := &Credentials{RealUID: 2000, EffectiveUID: 2000, SavedUID: 2000}
	sender.GrantCapability(capability.CAP_KILL)
	if !CanSignal(sender, recipient, false) {
		t.Fatalf("CanSignal: CAP_KILL should override uid checks")
	}
}
