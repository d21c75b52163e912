//go:build windows

package downloader

import (
	"os"
	"os/exec"
)

// configureCmd forces a UTF-8 console code page and UTF-8 child I/O
// encoding; the aniworld binary emits non-ASCII episode titles that
// mangle under the default Windows console codepage otherwise.
func configureCmd(cmd *exec.Cmd) {
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	_ = exec.Command("cmd", "/C", "chcp", "65001").Run()
}
