//go:build unix

package storage

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsProcessAlive probes pid with signal 0. EPERM means the process exists
// but belongs to another user.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)

	return err == nil || errors.Is(err, unix.EPERM)
}
