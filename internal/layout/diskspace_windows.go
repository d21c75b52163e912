//go:build windows

package layout

import "golang.org/x/sys/windows"

// freeSpaceBytes returns the space available to an unprivileged caller
// at path, via the Windows GetDiskFreeSpaceEx API.
func freeSpaceBytes(path string) (uint64, error) {
	var freeAvailable, total, free uint64
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(ptr, &freeAvailable, &total, &free); err != nil {
		return 0, err
	}
	return freeAvailable, nil
}
