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

// Package locking backs the per-lock wrapper types generated for each named
// lock in the signal subsystem (queued lock, childSignalLock, tracerLock).
// It counts how many locks of each class are currently held, so tests can
// check the lock ordering rule ("never hold two process queued locks
// simultaneously") through HeldCount. The counts are kept in one
// process-wide bucket, not per goroutine, and a violation is not detected
// or reported by this package itself.
package locking

import (
	"fmt"
	"reflect"

	"github.com/nocturne-kernel/ksignal/pkg/sync"
)

// MutexClass identifies one generated mutex wrapper type for the purposes
// of held-lock bookkeeping.
type MutexClass struct {
	name  string
	nests []string
}

// NewMutexClass registers a mutex wrapper type. nestNames are user-friendly
// names for the NestedLock/NestedUnlock indices declared by that type's
// go_template_instance consts block.
func NewMutexClass(t reflect.Type, nestNames []string) *MutexClass {
	return &MutexClass{name: t.Name(), nests: nestNames}
}

var (
	heldMu sync.Mutex
	held   = map[int64]map[*MutexClass]int{} // goroutine id (best effort) -> class -> depth
)

// nextID and idKey are not used: currentG below keeps all held-lock
// bookkeeping in a single bucket.
var nextID int64

type idKey struct{}

// AddGLock records that the calling goroutine is acquiring a lock of class
// c. idx is the NestedLock index, or -1 for a plain Lock.
func AddGLock(c *MutexClass, idx int) {
	if c == nil {
		return
	}
	heldMu.Lock()
	defer heldMu.Unlock()
	g := held[currentG()]
	if g == nil {
		g = map[*MutexClass]int{}
		held[currentG()] = g
	}
	g[c]++
}

// DelGLock records that the calling goroutine released a lock of class c.
func DelGLock(c *MutexClass, idx int) {
	if c == nil {
		return
	}
	heldMu.Lock()
	defer heldMu.Unlock()
	g := held[currentG()]
	if g == nil {
		return
	}
	g[c]--
	if g[c] <= 0 {
		delete(g, c)
	}
}

// HeldCount returns how many locks of class c the calling goroutine
// currently holds. Used by tests asserting the lock ordering invariant.
func HeldCount(c *MutexClass) int {
	heldMu.Lock()
	defer heldMu.Unlock()
	return held[currentG()][c]
}

// currentG is a process-wide stand-in for a goroutine id. Real goroutine
// ids aren't exposed by the runtime; callers that need accurate per-
// goroutine scoping should use goroutine-local storage instead. For this
// package's purpose (best-effort diagnostics, not correctness) a single
// bucket is sufficient and avoids runtime.Stack parsing in the hot path.
func currentG() int64 {
	return 0
}

// String implements fmt.Stringer for diagnostics.
func (c *MutexClass) String() string {
	return fmt.Sprintf("MutexClass(%s)", c.name)
}
