//go:build windows

package shell

import (
	"os/exec"
)

func configureProcessGroup(c *exec.Cmd) {}
