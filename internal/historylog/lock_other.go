//go:build !unix

package historylog

import "os"

// tryLockExclusive is a no-op on non-unix platforms (mirrors
// history.rs's own #[cfg(not(unix))] fallback, which writes without
// locking rather than failing outright).
func tryLockExclusive(f *os.File) error { return nil }

func unlock(f *os.File) error { return nil }
