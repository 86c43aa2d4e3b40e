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

import "sync"

// Event is a level-triggered event object, the scheduler wait primitive
// lists as a required collaborator: {unsignal, signalAll, wait}. stopEvent
// and allStoppedEvent are both instances of this.
//
// Unlike a condition variable, a goroutine that calls Wait after Signal has
// already fired still observes the signaled state instead of blocking
// forever: the event is level-triggered, not edge-triggered.
type Event struct {
	mu       sync.Mutex
	cond     sync.Cond
	signaled bool
}

// NewEvent returns an Event, initially unsignaled unless startSignaled.
func NewEvent(startSignaled bool) *Event {
	e := &Event{signaled: startSignaled}
	e.cond.L = &e.mu
	return e
}

// Signal sets the event and wakes all waiters.
func (e *Event) Signal() {
	e.mu.Lock()
	e.signaled = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

// Unsignal clears the event; future Wait calls will block until the next
// Signal.
func (e *Event) Unsignal() {
	e.mu.Lock()
	e.signaled = false
	e.mu.Unlock()
}

// Wait blocks until the event is signaled.
func (e *Event) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for !e.signaled {
		e.cond.Wait()
	}
}

// IsSignaled reports the event's current state without blocking.
func (e *Event) IsSignaled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}
