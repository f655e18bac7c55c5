package sourcerepo

import (
	"os"

	"golang.org/x/sys/unix"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
)

// Lock is an acquired advisory lock on a repository's .lock file. The
// underlying flock is released automatically when the owning file
// descriptor closes, so Release is safe to call multiple times and safe to
// defer immediately after a successful Lock/TryLock.
type Lock struct {
	file *os.File
}

// Lock acquires an exclusive advisory lock on the repository, blocking until
// it is available. All write operations (commit, checkout into a repo, ref
// updates, GC) must hold this lock; reads do not need it.
func (r *Repository) Lock() (*Lock, error) {
	return r.acquireLock(0)
}

// TryLock attempts to acquire the lock without blocking, returning
// LockContention immediately if another process holds it.
func (r *Repository) TryLock() (*Lock, error) {
	return r.acquireLock(unix.LOCK_NB)
}

func (r *Repository) acquireLock(extraFlags int) (*Lock, error) {
	f, err := os.OpenFile(r.Path.LockPath().String(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeLockFailed, "open_lock_file", r.Path.LockPath().String(), err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|extraFlags); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, apperr.New(pkgName, apperr.CodeLockContention, "flock", r.Path.LockPath().String(), err)
		}
		return nil, apperr.New(pkgName, apperr.CodeLockFailed, "flock", r.Path.LockPath().String(), err)
	}

	return &Lock{file: f}, nil
}

// Release drops the lock. Safe to call more than once.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "unlock", "", err)
	}
	return closeErr
}
