//go:build unix

package stream

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// statSize returns the size reported by fstat(2) on the descriptor behind v.
// Sockets and pipes report zero, which counts as unknown.
func statSize(v any) (int64, bool) {
	sc, ok := v.(syscall.Conn)
	if !ok {
		return 0, false
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}

	var (
		stat    unix.Stat_t
		statErr error
	)
	if err := raw.Control(func(fd uintptr) {
		statErr = unix.Fstat(int(fd), &stat)
	}); err != nil || statErr != nil {
		return 0, false
	}

	if stat.Size <= 0 {
		return 0, false
	}
	return stat.Size, true
}
