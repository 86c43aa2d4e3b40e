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
	"testing"

	linux "github.com/nocturne-kernel/ksignal/pkg/abi/linux"
)

func TestDequeueDeliversLowestPendingFirst(t *testing.T) {
	tg, task := newTestProcess(1, 0, 1, 1)
	// Handled, so Dequeue returns them instead of applying their default
	// terminate action.
	tg.handled.Add(linux.SIGUSR1)
	tg.handled.Add(linux.SIGUSR2)
	tg.Enqueue(task, linux.SIGUSR2, nil, false)
	tg.Enqueue(task, linux.SIGUSR1, nil, false)

	info, ok := task.Dequeue()
	if !ok || info.Signal != linux.SIGUSR1 {
		t.Fatalf("Dequeue() = (%v, %v), want (SIGUSR1, true)", info, ok)
	}

	info, ok = task.Dequeue()
	if !ok || info.Signal != linux.SIGUSR2 {
		t.Fatalf("Dequeue() = (%v, %v), want (SIGUSR2, true)", info, ok)
	}

	if _, ok := task.Dequeue(); ok {
		t.Fatalf("Dequeue() should report nothing left once both standard signals are drained")
	}
}

func TestDequeueSkipsBlockedUntilUnblocked(t *testing.T) {
	tg, task := newTestProcess(1, 0, 1, 1)
	tg.handled.Add(linux.SIGUSR1)
	task.blocked.Add(linux.SIGUSR1)
	tg.Enqueue(task, linux.SIGUSR1, nil, false)

	if _, ok := task.Dequeue(); ok {
		t.Fatalf("a blocked signal must not be dequeued")
	}

	task.SetSignalMask(linux.SignalSet{})

	info, ok := task.Dequeue()
	if !ok || info.Signal != linux.SIGUSR1 {
		t.Fatalf("Dequeue() after unblocking = (%v, %v), want (SIGUSR1, true)", info, ok)
	}
}

func TestDequeueQueuedEntryDelivery(t *testing.T) {
	tg, task := newTestProcess(1, 0, 1, 1)
	tg.handled.Add(linux.FirstRealtimeSignal)
	entry := NewSignalQueueEntry(linux.SignalInfo{Signal: linux.FirstRealtimeSignal, Parameter: 99}, nil, nil)
	tg.Enqueue(task, linux.FirstRealtimeSignal, entry, false)

	info, ok := task.Dequeue()
	if !ok || info.Signal != linux.FirstRealtimeSignal || info.Parameter != 99 {
		t.Fatalf("Dequeue() = (%v, %v), want the queued entry's payload", info, ok)
	}
	if !entry.Delivered() {
		t.Fatalf("delivered queue entry should be marked Delivered")
	}
	if !entry.Detached() {
		t.Fatalf("delivered queue entry should be detached from the queue")
	}
}

func TestDequeueQueuedEntriesSurviveAcrossCalls(t *testing.T) {
	tg, task := newTestProcess(1, 0, 1, 1)
	tg.handled.Add(linux.FirstRealtimeSignal)
	first := NewSignalQueueEntry(linux.SignalInfo{Signal: linux.FirstRealtimeSignal, Parameter: 1}, nil, nil)
	second := NewSignalQueueEntry(linux.SignalInfo{Signal: linux.FirstRealtimeSignal, Parameter: 2}, nil, nil)
	tg.Enqueue(task, linux.FirstRealtimeSignal, first, false)
	tg.Enqueue(task, linux.FirstRealtimeSignal, second, false)

	info, ok := task.Dequeue()
	if !ok || info.Parameter != 1 {
		t.Fatalf("first Dequeue() = (%v, %v), want parameter 1", info, ok)
	}

	// A second entry left behind in the queue must still be reachable by
	// a later Dequeue call: signalPending has to be restored after a
	// queue-path delivery exactly as it is after a bitmap-path one.
	info, ok = task.Dequeue()
	if !ok || info.Parameter != 2 {
		t.Fatalf("second Dequeue() = (%v, %v), want parameter 2 (signalPending must survive a queue-path delivery)", info, ok)
	}

	if _, ok := task.Dequeue(); ok {
		t.Fatalf("queue should be empty after draining both entries")
	}
}
