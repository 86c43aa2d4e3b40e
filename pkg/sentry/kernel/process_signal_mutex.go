package kernel

import (
	"reflect"

	"github.com/nocturne-kernel/ksignal/pkg/sync"
	"github.com/nocturne-kernel/ksignal/pkg/sync/locking"
)

// processSignalMutex is the per-process queued lock: it
// serialises all reads/writes of a process's signal sets, pending
// bitmaps, queues, blocked-deferred list, handler pointer,
// ignored/handled masks, stopEvent operations, and tracer-break state
// transitions. It is sleepable: holders may block on it.
type processSignalMutex struct {
	mu sync.Mutex
}

var processSignalprefixIndex *locking.MutexClass

// lockNames is a list of user-friendly lock names. Populated in init.
var processSignalLockNames []string

// lockNameIndex is used as an index passed to NestedLock and NestedUnlock,
// referring to an index within lockNames.
type processSignalLockNameIndex int

// DO NOT REMOVE: The following function automatically replaced with lock index constants.
// LOCK_NAME_INDEX_CONSTANTS
const ()

// Lock locks m.
// +checklocksignore
func (m *processSignalMutex) Lock() {
	locking.AddGLock(processSignalprefixIndex, -1)
	m.mu.Lock()
}

// NestedLock locks m knowing that another lock of the same type is held.
// +checklocksignore
func (m *processSignalMutex) NestedLock(i processSignalLockNameIndex) {
	locking.AddGLock(processSignalprefixIndex, int(i))
	m.mu.Lock()
}

// Unlock unlocks m.
// +checklocksignore
func (m *processSignalMutex) Unlock() {
	locking.DelGLock(processSignalprefixIndex, -1)
	m.mu.Unlock()
}

// NestedUnlock unlocks m knowing that another lock of the same type is held.
// +checklocksignore
func (m *processSignalMutex) NestedUnlock(i processSignalLockNameIndex) {
	locking.DelGLock(processSignalprefixIndex, int(i))
	m.mu.Unlock()
}

// DO NOT REMOVE: The following function is automatically replaced.
func processSignalInitLockNames() {}

func init() {
	processSignalInitLockNames()
	processSignalprefixIndex = locking.NewMutexClass(reflect.TypeOf(processSignalMutex{}), processSignalLockNames)
}
