//go:build !windows

package shell

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the child in its own process group so that a
// cancelled context kills grandchildren spawned by the shell too.
func configureProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
