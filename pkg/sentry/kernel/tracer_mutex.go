package kernel

import (
	"reflect"

	"github.com/nocturne-kernel/ksignal/pkg/sync"
	"github.com/nocturne-kernel/ksignal/pkg/sync/locking"
)

// tracerMutex is the per-process tracerLock: a spin lock giving
// exclusive access to the debug protocol to one thread at a time. It may be
// acquired while no processSignalMutex is held, and processSignalMutex may
// be acquired while it is held, but not the reverse for the same process.
type tracerMutex struct {
	mu sync.Mutex
}

var tracerprefixIndex *locking.MutexClass

var tracerLockNames []string

type tracerLockNameIndex int

// DO NOT REMOVE: The following function automatically replaced with lock index constants.
// LOCK_NAME_INDEX_CONSTANTS
const ()

// Lock locks m.
// +checklocksignore
func (m *tracerMutex) Lock() {
	locking.AddGLock(tracerprefixIndex, -1)
	m.mu.Lock()
}

// TryLock attempts to lock m without blocking, returning whether it
// succeeded. Used by the tracer-break protocol's cooperative spin: a
// failed attempt degrades to a stopEvent wait when
// tracerStopRequested is set, rather than busy-looping unconditionally.
// +checklocksignore
func (m *tracerMutex) TryLock() bool {
	ok := m.mu.TryLock()
	if ok {
		locking.AddGLock(tracerprefixIndex, -1)
	}
	return ok
}

// NestedLock locks m knowing that another lock of the same type is held.
// +checklocksignore
func (m *tracerMutex) NestedLock(i tracerLockNameIndex) {
	locking.AddGLock(tracerprefixIndex, int(i))
	m.mu.Lock()
}

// Unlock unlocks m.
// +checklocksignore
func (m *tracerMutex) Unlock() {
	locking.DelGLock(tracerprefixIndex, -1)
	m.mu.Unlock()
}

// NestedUnlock unlocks m knowing that another lock of the same type is held.
// +checklocksignore
func (m *tracerMutex) NestedUnlock(i tracerLockNameIndex) {
	locking.DelGLock(tracerprefixIndex, int(i))
	m.mu.Unlock()
}

// DO NOT REMOVE: The following function is automatically replaced.
func tracerInitLockNames() {}

func init() {
	tracerInitLockNames()
	tracerprefixIndex = locking.NewMutexClass(reflect.TypeOf(tracerMutex{}), tracerLockNames)
}
