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

// sigQueueEntry provides the intrusive doubly-linked list linkage for
// SignalQueueEntry, in the style of the teacher's generated ilist.Entry.
// owner records which list currently holds the entry (nil means
// detached, invariant 1) so a tail entry, whose next pointer is
// legitimately nil, isn't mistaken for an unlinked one.
type sigQueueEntry struct {
	next  *SignalQueueEntry
	prev  *SignalQueueEntry
	owner *sigQueueList
}

// sigQueueList is an intrusive doubly-linked list of *SignalQueueEntry: a
// process's signal queue, or its blocked-deferred list.
type sigQueueList struct {
	head *SignalQueueEntry
	tail *SignalQueueEntry
}

// Empty reports whether l has no entries.
func (l *sigQueueList) Empty() bool {
	return l.head == nil
}

// Front returns the first entry in l, or nil.
func (l *sigQueueList) Front() *SignalQueueEntry {
	return l.head
}

// PushBack appends e to the tail of l. e must be detached.
func (l *sigQueueList) PushBack(e *SignalQueueEntry) {
	e.prev = l.tail
	e.next = nil
	if l.tail != nil {
		l.tail.next = e
	} else {
		l.head = e
	}
	l.tail = e
	e.owner = l
}

// Remove unlinks e from l. e must currently be linked on l.
func (l *sigQueueList) Remove(e *SignalQueueEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.next = nil
	e.prev = nil
	e.owner = nil
}

// PopFront removes and returns the first entry in l, or nil if empty.
func (l *sigQueueList) PopFront() *SignalQueueEntry {
	e := l.head
	if e != nil {
		l.Remove(e)
	}
	return e
}

// Range iterates l's entries in order, in the style of the teacher's
// generated list Next() traversal. Range captures the current entry's
// next pointer before calling visit, so visit may remove the current
// entry; removing any other entry during the walk is not safe.
func (l *sigQueueList) Range(visit func(*SignalQueueEntry) bool) {
	for e := l.head; e != nil; {
		next := e.next
		if !visit(e) {
			return
		}
		e = next
	}
}
