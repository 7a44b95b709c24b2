package fs

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// LockTimeout is the default timeout for acquiring an archive lock.
const LockTimeout = 5 * time.Second

// Lock errors.
var (
	// ErrLockTimeout is returned when the lock could not be acquired
	// before the timeout expired.
	ErrLockTimeout = errors.New("lock timeout")

	errLockFileOpen = errors.New("failed to open lock file")
)

// Lock represents a held archive lock. Call [Lock.Close] to release it.
//
// flock locks an inode, not a pathname, so the lock lives on a dedicated
// "<archive>.lock" file that is never replaced or unlinked while locks
// may be held.
type Lock struct {
	file File
}

// Close releases the lock and closes the underlying descriptor.
// Close is idempotent.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}

	file := l.file
	l.file = nil

	_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)

	return file.Close()
}

// LockArchive acquires an exclusive advisory lock for the archive at
// path, polling until timeout. Concurrent invocations of the tool on the
// same archive exclude each other through this lock; nothing stops a
// process that ignores it.
func LockArchive(fsys FS, path string, timeout time.Duration) (*Lock, error) {
	lockPath := path + ".lock"

	file, err := fsys.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errLockFileOpen, err)
	}

	const retryInterval = 10 * time.Millisecond

	deadline := time.Now().Add(timeout)

	for {
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &Lock{file: file}, nil
		}

		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = file.Close()

			return nil, fmt.Errorf("locking %s: %w", lockPath, err)
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}

		time.Sleep(retryInterval)
	}
}
