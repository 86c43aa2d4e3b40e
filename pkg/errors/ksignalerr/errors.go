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

// Package ksignalerr defines the fixed set of error kinds the signal
// subsystem surfaces to user space. Every error returned across a system
// call boundary in pkg/sentry/kernel is one of these sentinels, or wraps
// one with fmt.Errorf("%w: ...", sentinel); callers compare with errors.Is.
// The exception is Task.RestoreContext, which returns the architecture
// collaborator's own error unchanged when restoring the trap frame fails.
//
// Success is not represented here: the zero value of error (nil) is
// success, matching the convention used throughout pkg/sentry.
package ksignalerr

// Error is a signal-subsystem error kind. It implements error directly so
// sentinels can be returned, compared, and wrapped without an intermediate
// conversion. Comparison uses plain equality (errors.Is falls back to this
// for values without their own Is method), so wrapping with
// fmt.Errorf("%w: ...", sentinel) still round-trips through errors.Is.
type Error struct {
	name string
}

// Error implements error.
func (e *Error) Error() string {
	return e.name
}

func newError(name string) *Error {
	return &Error{name: name}
}

// The error kinds returned across the signal subsystem.
var (
	InvalidParameter      = newError("invalid parameter")
	NoSuchThread          = newError("no such thread")
	NoSuchProcess         = newError("no such process")
	NoEligibleChildren    = newError("no eligible children")
	NoDataAvailable       = newError("no data available")
	AccessDenied          = newError("access denied")
	PermissionDenied      = newError("operation not permitted")
	InsufficientResources = newError("insufficient resources")
	Interrupted           = newError("interrupted system call")
	Timeout               = newError("timed out")
	TooLate               = newError("signal already in service")
	NotImplemented        = newError("not implemented")
)
