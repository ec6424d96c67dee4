//go:build unix

package historylog

import (
	"os"
	"syscall"
)

// tryLockExclusive attempts a non-blocking advisory exclusive lock on
// f, the Go stdlib equivalent of the flock(2) call original_source's
// fs2::FileExt wraps. No third-party library in the retrieval pack
// offers file locking, so this is one of the rare places this repo
// reaches for syscall directly rather than a pack-grounded dependency.
func tryLockExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func unlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
