package repocache

import (
	"fmt"
	"os"
	"time"
)

// staleLockAge is how old a lock file must be before we assume its owner
// crashed and reclaim it.
const staleLockAge = 5 * time.Minute

// acquireLock creates path exclusively and returns a release func. A lock
// older than staleLockAge is removed and re-taken once.
func acquireLock(path string) (func(), error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquiring cache lock: %w", err)
		}
		info, statErr := os.Stat(path)
		if statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.Remove(path)
			continue
		}
		return nil, fmt.Errorf("cache locked by another process: %s", path)
	}
	return nil, fmt.Errorf("cache locked by another process: %s", path)
}
