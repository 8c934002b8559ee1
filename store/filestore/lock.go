package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/danielhkuo/quickly-call/store"
)

const lockPollInterval = 10 * time.Millisecond

// acquire takes an exclusive flock on path, giving up with store.ErrBusy
// after timeout. The returned func releases it.
func acquire(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock: %w: %w", store.ErrUnavailable, err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return func() {
				unix.Flock(int(f.Fd()), unix.LOCK_UN)
				f.Close()
			}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			f.Close()
			return nil, fmt.Errorf("flock: %w: %w", store.ErrUnavailable, err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-deadline.C:
			f.Close()
			return nil, fmt.Errorf("lock %s: %w", path, store.ErrBusy)
		case <-time.After(lockPollInterval):
		}
	}
}
