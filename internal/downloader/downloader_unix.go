//go:build !windows

package downloader

import "os/exec"

// configureCmd is a no-op on non-Windows platforms; the console
// codepage issue configureCmd addresses on Windows doesn't exist here.
func configureCmd(cmd *exec.Cmd) {}
