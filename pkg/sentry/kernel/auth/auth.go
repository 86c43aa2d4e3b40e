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

// Package auth holds the thread/process identity the signal subsystem
// checks permissions against: real/effective/saved user ids, session id,
// process group id, and the capability set backing the Kill override.
package auth

import (
	"os"

	"github.com/syndtr/gocapability/capability"
)

// UID is a user id.
type UID uint32

// Credentials is the identity relevant to signal permission checks.
type Credentials struct {
	RealUID      UID
	EffectiveUID UID
	SavedUID     UID

	SessionID      int32
	ProcessGroupID int32

	// caps is the capability set backing the Kill override: a sender
	// holding CAP_KILL may signal any process regardless of uid match.
	caps capability.Capabilities
}

// NewCredentials returns Credentials for a process running as uid with no
// elevated capabilities.
func NewCredentials(uid UID, sid, pgid int32) *Credentials {
	return &Credentials{RealUID: uid, EffectiveUID: uid, SavedUID: uid, SessionID: sid, ProcessGroupID: pgid}
}

// HasCapability reports whether creds holds the effective capability c.
func (creds *Credentials) HasCapability(c capability.Cap) bool {
	if creds.caps == nil {
		return false
	}
	return creds.caps.Get(capability.EFFECTIVE, c)
}

// GrantCapability grants c to creds, for tests and privileged bootstrap
// contexts that construct a root-equivalent Credentials.
func (creds *Credentials) GrantCapability(c capability.Cap) {
	if creds.caps == nil {
		caps, err := capability.NewPid2(os.Getpid())
		if err != nil {
			caps = capability.Capabilities(nil)
		}
		creds.caps = caps
	}
	if creds.caps != nil {
		creds.caps.Set(capability.EFFECTIVE, c)
	}
}

// CanSignal reports whether sender may send a signal to recipient, per
// Permitted when any of {sender.effective, sender.real} equals
// {recipient.real, recipient.saved}; CAP_KILL overrides. isContinue should
// be true only when the signal being sent is CONTINUE, which is
// additionally permitted to any process in the same session.
func CanSignal(sender, recipient *Credentials, isContinue bool) bool {
	if sender.HasCapability(capability.CAP_KILL) {
		return true
	}
	if isContinue && sender.SessionID == recipient.SessionID {
		return true
	}
	return (sender.EffectiveUID == recipient.RealUID || sender.EffectiveUID == recipient.SavedUID) ||
		(sender.RealUID == recipient.RealUID || sender.RealUID == recipient.SavedUID)
}
