/*
Package rwlock provides a recursive multiple-reader/single-writer lock.

Many readers may hold an RWLock at the same time, or exactly one writer.
The writer may re-enter the lock as a reader or as a writer without blocking
itself; nested acquisitions are counted and must be balanced by the same
number of unlocks before the lock is actually released.

Go has no notion of thread identity, therefore the caller's identity is made
explicit: every logical caller creates a Holder token and passes it to each
lock operation. A Holder must not be used by more than one goroutine at a
time.

Readers cannot upgrade to writers. A reader that tries to acquire the write
lock will deadlock against itself.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package rwlock

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glyphcache.rwlock'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache.rwlock")
}

// mustHold panics when condition is false. Locking protocol violations are
// programming errors and must never be ignored.
func mustHold(condition bool, msg string, args ...any) {
	if !condition {
		panic(fmt.Sprintf("rwlock: "+msg, args...))
	}
}
