package rwlock

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// maxReaders is the bias a writer subtracts from the reader counter.
const maxReaders = 1 << 30

// --- Holder ----------------------------------------------------------------

var holderSerial atomic.Uint64

// Holder identifies a logical caller of an RWLock. It replaces the thread
// identity a writer is recognized by when re-entering the lock.
type Holder struct {
	id uint64
}

// NewHolder creates a holder token with a unique, non-zero identity.
func NewHolder() *Holder {
	return &Holder{id: holderSerial.Add(1)}
}

// ID returns the holder's identity.
func (h *Holder) ID() uint64 {
	if h == nil {
		return 0
	}
	return h.id
}

// --- Lock ------------------------------------------------------------------

// RWLock is a recursive multiple-reader/single-writer lock.
//
// The reader counter is positive while only readers are active. An admitted
// writer subtracts maxReaders from it: every reader arriving afterwards sees a
// negative value and blocks on readerSem, and the value before the
// subtraction is the number of readers the writer has to wait for on
// writerSem.
type RWLock struct {
	readerCount atomic.Int32        // active readers, biased by -maxReaders while a writer holds the lock
	writerCount atomic.Int32        // writers holding or waiting for the lock
	readerSem   *semaphore.Weighted // readers wait here while a writer is active
	writerSem   *semaphore.Weighted // the writer waits here for readers to drain
	writerGate  *semaphore.Weighted // serializes waiting writers
	writer      atomic.Uint64       // holder id of the current writer, 0 if none
	writeNest   int                 // write lock depth of the current writer
	readNest    int                 // read locks taken by the current writer
}

// Suspension records the nesting depth of a suspended write lock.
type Suspension struct {
	write, read int
}

// New creates an unlocked RWLock.
func New() *RWLock {
	return &RWLock{
		readerSem:  drainedSemaphore(),
		writerSem:  drainedSemaphore(),
		writerGate: drainedSemaphore(),
	}
}

// drainedSemaphore returns a counting semaphore without any permits.
// Release adds permits, Acquire waits for them.
func drainedSemaphore() *semaphore.Weighted {
	s := semaphore.NewWeighted(maxReaders)
	mustHold(s.TryAcquire(maxReaders), "cannot drain semaphore")
	return s
}

func acquire(s *semaphore.Weighted, n int64) {
	// There is no cancellation; Acquire fails only for a done context.
	err := s.Acquire(context.Background(), n)
	mustHold(err == nil, "semaphore acquire failed: %v", err)
}

// IsWriteLocked reports whether h currently holds the write lock.
func (l *RWLock) IsWriteLocked(h *Holder) bool {
	return h != nil && l.writer.Load() == h.id
}

// HasWriter reports whether any holder owns the write lock. The answer may
// be stale by the time the caller looks at it.
func (l *RWLock) HasWriter() bool {
	return l.writer.Load() != 0
}

// ReadLock acquires the lock for reading. If h already holds the write lock,
// only a nesting counter is incremented.
func (l *RWLock) ReadLock(h *Holder) {
	mustHold(h != nil, "nil holder")
	if l.IsWriteLocked(h) {
		l.readNest++
		return
	}
	if l.readerCount.Add(1) < 0 {
		// a writer has reserved the lock
		acquire(l.readerSem, 1)
	}
}

// ReadUnlock releases a read lock acquired with ReadLock.
func (l *RWLock) ReadUnlock(h *Holder) {
	mustHold(h != nil, "nil holder")
	if l.IsWriteLocked(h) {
		mustHold(l.readNest > 0, "read-unlock by writer %d without nested read lock", h.id)
		l.readNest--
		return
	}
	r := l.readerCount.Add(-1)
	if r < 0 {
		if r+1 == 0 || r+1 == -maxReaders {
			l.readerCount.Add(1)
			mustHold(false, "read-unlock by holder %d of lock not read-locked", h.id)
		}
		// a writer is waiting for this reader
		l.writerSem.Release(1)
	}
}

// WriteLock acquires the lock exclusively. If h already holds the write lock,
// only a nesting counter is incremented.
func (l *RWLock) WriteLock(h *Holder) {
	mustHold(h != nil, "nil holder")
	if l.IsWriteLocked(h) {
		l.writeNest++
		return
	}
	if l.writerCount.Add(1) > 1 {
		acquire(l.writerGate, 1)
	}
	r := l.readerCount.Add(-maxReaders) + maxReaders
	if r > 0 {
		tracer().Debugf("writer %d waits for %d reader(s)", h.id, r)
		acquire(l.writerSem, int64(r))
	}
	l.writer.Store(h.id)
	l.writeNest = 1
	l.readNest = 0
}

// WriteUnlock releases one level of the write lock. The lock is released
// when the outermost level is unlocked. Calling WriteUnlock without holding
// the write lock panics.
func (l *RWLock) WriteUnlock(h *Holder) {
	mustHold(l.IsWriteLocked(h), "write-unlock by holder %d which is not the writer", h.ID())
	if l.writeNest > 1 {
		l.writeNest--
		return
	}
	mustHold(l.readNest == 0, "write-unlock with %d nested read lock(s) open", l.readNest)
	l.writeNest = 0
	l.writer.Store(0)
	r := l.readerCount.Add(maxReaders)
	if r > 0 {
		// wake the readers that piled up while the writer was active
		l.readerSem.Release(int64(r))
	}
	if l.writerCount.Add(-1) > 0 {
		l.writerGate.Release(1)
	}
}

// Suspend releases the write lock held by h completely, whatever its nesting
// depth. The returned Suspension restores the depth with Resume.
func (l *RWLock) Suspend(h *Holder) Suspension {
	mustHold(l.IsWriteLocked(h), "suspend by holder %d which is not the writer", h.ID())
	s := Suspension{write: l.writeNest, read: l.readNest}
	l.writeNest, l.readNest = 1, 0
	l.WriteUnlock(h)
	return s
}

// Resume re-acquires a write lock released by Suspend, blocking as WriteLock
// does, and restores its nesting depth.
func (l *RWLock) Resume(h *Holder, s Suspension) {
	mustHold(!l.IsWriteLocked(h), "resume by holder %d which already is the writer", h.ID())
	mustHold(s.write > 0, "resume of empty suspension")
	l.WriteLock(h)
	l.writeNest, l.readNest = s.write, s.read
}
