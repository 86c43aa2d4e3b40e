package kernel

import (
	"reflect"

	"github.com/nocturne-kernel/ksignal/pkg/sync"
	"github.com/nocturne-kernel/ksignal/pkg/sync/locking"
)

// childSignalMutex is the per-process childSignalLock: a spin
// lock serialising rebinding of the reusable child-signal entry. It may be
// acquired before the destination process's processSignalMutex, never the
// reverse.
type childSignalMutex struct {
	mu sync.Mutex
}

var childSignalprefixIndex *locking.MutexClass

var childSignalLockNames []string

type childSignalLockNameIndex int

// DO NOT REMOVE: The following function automatically replaced with lock index constants.
// LOCK_NAME_INDEX_CONSTANTS
const ()

// Lock locks m.
// +checklocksignore
func (m *childSignalMutex) Lock() {
	locking.AddGLock(childSignalprefixIndex, -1)
	m.mu.Lock()
}

// NestedLock locks m knowing that another lock of the same type is held.
// +checklocksignore
func (m *childSignalMutex) NestedLock(i childSignalLockNameIndex) {
	locking.AddGLock(childSignalprefixIndex, int(i))
	m.mu.Lock()
}

// Unlock unlocks m.
// +checklocksignore
func (m *childSignalMutex) Unlock() {
	locking.DelGLock(childSignalprefixIndex, -1)
	m.mu.Unlock()
}

// NestedUnlock unlocks m knowing that another lock of the same type is held.
// +checklocksignore
func (m *childSignalMutex) NestedUnlock(i childSignalLockNameIndex) {
	locking.DelGLock(childSignalprefixIndex, int(i))
	m.mu.Unlock()
}

// DO NOT REMOVE: The following function is automatically replaced.
func childSignalInitLockNames() {}

func init() {
	childSignalInitLockNames()
	childSignalprefixIndex = locking.NewMutexClass(reflect.TypeOf(childSignalMutex{}), childSignalLockNames)
}
