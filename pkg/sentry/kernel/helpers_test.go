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
	"sync/atomic"
	"testing"

	"github.com/nocturne-kernel/ksignal/pkg/sentry/kernel/auth"
)

// newTestProcess builds a one-thread process with a distinct identity, for
// tests that don't care about the process's broader pid/credential setup.
func newTestProcess(pid, ppid, pgid, sid int32) (*ThreadGroup, *Task) {
	creds := auth.NewCredentials(auth.UID(pid), sid, pgid)
	tg := NewThreadGroup(pid, ppid, pgid, sid, creds)
	task := NewTask(tg, creds)
	return tg, task
}

// countingWaker is a ThreadWaker that counts calls, for tests that only
// care whether a wake was requested rather than observing an actual
// scheduler wakeup.
type countingWaker struct{ n int32 }

func (w *countingWaker) Wake() { atomic.AddInt32(&w.n, 1) }

func (w *countingWaker) count() int32 { return atomic.LoadInt32(&w.n) }

// termSentinel is the panic value recordingTerminator raises, standing in
// for terminate's "does not return in production" contract.
type termSentinel struct{}

// recordingTerminator returns a ThreadTerminator that increments called and
// panics with termSentinel, so a test driving the KILL fast path can use
// expectTerminate to observe it without the goroutine actually exiting.
func recordingTerminator(called *int32) ThreadTerminator {
	return func(*Task) {
		atomic.AddInt32(called, 1)
		panic(termSentinel{})
	}
}

// expectTerminate runs fn and requires it to panic with termSentinel.
func expectTerminate(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a terminate panic, got none")
		}
		if _, ok := r.(termSentinel); !ok {
			panic(r)
		}
	}()
	fn()
}
