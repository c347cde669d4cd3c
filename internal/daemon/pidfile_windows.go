//go:build windows

package daemon

import (
	"fmt"
	"os"
)

// killProcess terminates the process; Windows has no SIGTERM
func killProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := process.Kill(); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}
