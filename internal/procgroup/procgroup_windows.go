//go:build windows

package procgroup

import (
	"os/exec"
	"syscall"
)

func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killGroup on Windows terminates only the process leader; Windows process
// groups do not support a negative-PID broadcast signal the way POSIX does.
func killGroup(pid int, sig syscall.Signal) error {
	process, err := syscall.OpenProcess(syscall.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer syscall.CloseHandle(process)
	return syscall.TerminateProcess(process, 1)
}
