//go:build !windows

package layout

import "syscall"

// freeSpaceBytes returns the space available to an unprivileged caller
// at path, following vmunix-arrgo's getFreeSpace shape.
func freeSpaceBytes(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	if stat.Bsize < 0 {
		return 0, nil
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
