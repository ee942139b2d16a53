package util

import (
	"fmt"

	"github.com/gofrs/flock"
)

// LibraryLock guards a library database against a second clipbox process
type LibraryLock struct {
	lock *flock.Flock
}

// AcquireLibraryLock takes an exclusive, non-blocking lock next to the database file
func AcquireLibraryLock(dbPath string) (*LibraryLock, error) {
	lockPath := dbPath + ".lock"
	l := flock.New(lockPath)

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLibraryLocked, lockPath)
	}

	DebugLog("Acquired library lock: %s", lockPath)
	return &LibraryLock{lock: l}, nil
}

// Release drops the lock; safe on a nil lock
func (l *LibraryLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
