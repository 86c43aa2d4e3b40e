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

// SignalInfo carries the parameters of a queue entry: number, code
// (reason), sender identity, and an opaque parameter (exit status for
// child signals, or a sigqueue value otherwise).
type SignalInfo struct {
	Signal    Signal
	Code      int32
	SenderPID int32
	SenderUID uint32
	Parameter int64
}

// Signal codes. The system-call facade treats any caller-supplied positive
// code as "sent by a user process" and normalizes it to CodeUser.
const (
	CodeUser    int32 = 0
	CodeKernel  int32 = 0x80
	CodeTimer   int32 = -2
	CodeTracer  int32 = -6
	CodeChild   int32 = -6
)

// Sigaction mirrors the minimal fields of struct sigaction the subsystem
// needs: a nullable handler trampoline pointer. The real trampoline
// contents (entry address, flags, restorer) belong to the architecture
// layer; here it is opaque.
type Sigaction struct {
	// Handler is nil for SIG_DFL, or a non-nil trampoline pointer.
	Handler uintptr
}

// IsDefault reports whether a is the default disposition (SIG_DFL).
func (a Sigaction) IsDefault() bool {
	return a.Handler == 0
}
